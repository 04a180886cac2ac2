package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type RevisionVersionRepo interface {
	Get(dbc dbctx.Context, modelVersion string) (*types.RevisionVersion, error)
	Upsert(dbc dbctx.Context, v *types.RevisionVersion) error
	ListByRevision(dbc dbctx.Context, revisionID uuid.UUID) ([]*types.RevisionVersion, error)
}

type revisionVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionVersionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionVersionRepo {
	return &revisionVersionRepo{
		db:  db,
		log: baseLog.With("repo", "RevisionVersionRepo"),
	}
}

func (r *revisionVersionRepo) Get(dbc dbctx.Context, modelVersion string) (*types.RevisionVersion, error) {
	var out types.RevisionVersion
	if err := dbc.Conn(r.db).Where("model_version = ?", modelVersion).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.RevisionID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

// Upsert points the model version at v.RevisionID. A second source for the same version
// turns the alias into "both".
func (r *revisionVersionRepo) Upsert(dbc dbctx.Context, v *types.RevisionVersion) error {
	now := time.Now().UTC()
	v.UpdatedAt = now
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "model_version"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"revision_id": gorm.Expr("EXCLUDED.revision_id"),
				"source_type": gorm.Expr(
					"CASE WHEN revision_versions.source_type = EXCLUDED.source_type THEN EXCLUDED.source_type ELSE ? END",
					types.SourceBoth,
				),
				"source_file_path": gorm.Expr("COALESCE(NULLIF(EXCLUDED.source_file_path, ''), revision_versions.source_file_path)"),
				"extracted_at":     gorm.Expr("COALESCE(EXCLUDED.extracted_at, revision_versions.extracted_at)"),
				"updated_at":       now,
			}),
		}).
		Create(v).Error
}

func (r *revisionVersionRepo) ListByRevision(dbc dbctx.Context, revisionID uuid.UUID) ([]*types.RevisionVersion, error) {
	var out []*types.RevisionVersion
	if err := dbc.Conn(r.db).Where("revision_id = ?", revisionID).Order("model_version ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
