package projects

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

// LegacyArchiveRepo stores the older single-source payload verbatim, replacing rows on
// conflict.
type LegacyArchiveRepo interface {
	UpsertMetadata(dbc dbctx.Context, m *types.LegacyMetadata) error
	UpsertObjects(dbc dbctx.Context, rows []*types.LegacyObject, batchSize int) (int64, error)
	UpsertRelationships(dbc dbctx.Context, rows []*types.LegacyRelationship, batchSize int) (int64, error)
}

type legacyArchiveRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLegacyArchiveRepo(db *gorm.DB, baseLog *logger.Logger) LegacyArchiveRepo {
	return &legacyArchiveRepo{
		db:  db,
		log: baseLog.With("repo", "LegacyArchiveRepo"),
	}
}

func (r *legacyArchiveRepo) UpsertMetadata(dbc dbctx.Context, m *types.LegacyMetadata) error {
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "model_version"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"project_name", "created_by", "description", "total_object_count",
				"source_file_path", "exported_at", "updated_at",
			}),
		}).
		Create(m).Error
}

func (r *legacyArchiveRepo) UpsertObjects(dbc dbctx.Context, rows []*types.LegacyObject, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "model_version"}, {Name: "object_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"object_uuid", "element_id", "category", "family", "type_name",
				"activity_id", "properties", "bounding_box", "updated_at",
			}),
		}).
		CreateInBatches(rows, batchSize)
	return res.RowsAffected, res.Error
}

func (r *legacyArchiveRepo) UpsertRelationships(dbc dbctx.Context, rows []*types.LegacyRelationship, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "model_version"},
				{Name: "source_object_id"},
				{Name: "target_object_id"},
				{Name: "relation_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"is_directed", "updated_at"}),
		}).
		CreateInBatches(rows, batchSize)
	return res.RowsAffected, res.Error
}
