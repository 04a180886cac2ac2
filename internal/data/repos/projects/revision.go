package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

// RevisionPatch carries the fields merged into an existing revision on re-ingest. Empty
// strings and nil metadata leave the stored value alone.
type RevisionPatch struct {
	VersionTag     string
	Description    string
	SourceFilePath string
	TotalObjects   int
	Metadata       datatypes.JSON
}

type RevisionRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Revision, error)
	GetByNumber(dbc dbctx.Context, projectID uuid.UUID, sourceType string, number int) (*types.Revision, error)
	Latest(dbc dbctx.Context, projectID uuid.UUID, sourceType string) (*types.Revision, error)
	List(dbc dbctx.Context, projectID uuid.UUID, sourceType string, limit int) ([]*types.Revision, error)
	LockAllocation(dbc dbctx.Context, projectID uuid.UUID, sourceType string) error
	MaxNumber(dbc dbctx.Context, projectID uuid.UUID, sourceType string) (int, error)
	Create(dbc dbctx.Context, rev *types.Revision) error
	InsertIfAbsent(dbc dbctx.Context, rev *types.Revision) (bool, error)
	Merge(dbc dbctx.Context, id uuid.UUID, patch RevisionPatch) error
	RefreshCounters(dbc dbctx.Context, id uuid.UUID) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type revisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return &revisionRepo{
		db:  db,
		log: baseLog.With("repo", "RevisionRepo"),
	}
}

func (r *revisionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Revision, error) {
	var rev types.Revision
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&rev).Error; err != nil {
		return nil, err
	}
	if rev.ID == uuid.Nil {
		return nil, nil
	}
	return &rev, nil
}

func (r *revisionRepo) GetByNumber(dbc dbctx.Context, projectID uuid.UUID, sourceType string, number int) (*types.Revision, error) {
	var rev types.Revision
	err := dbc.Conn(r.db).
		Where("project_id = ? AND source_type = ? AND revision_number = ?", projectID, sourceType, number).
		Limit(1).
		Find(&rev).Error
	if err != nil {
		return nil, err
	}
	if rev.ID == uuid.Nil {
		return nil, nil
	}
	return &rev, nil
}

func (r *revisionRepo) Latest(dbc dbctx.Context, projectID uuid.UUID, sourceType string) (*types.Revision, error) {
	var rev types.Revision
	err := dbc.Conn(r.db).
		Where("project_id = ? AND source_type = ?", projectID, sourceType).
		Order("revision_number DESC").
		Limit(1).
		Find(&rev).Error
	if err != nil {
		return nil, err
	}
	if rev.ID == uuid.Nil {
		return nil, nil
	}
	return &rev, nil
}

func (r *revisionRepo) List(dbc dbctx.Context, projectID uuid.UUID, sourceType string, limit int) ([]*types.Revision, error) {
	var out []*types.Revision
	q := dbc.Conn(r.db).Where("project_id = ?", projectID)
	if sourceType != "" {
		q = q.Where("source_type = ?", sourceType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("revision_number DESC, source_type ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LockAllocation serializes revision number allocation for one (project, source_type) until
// the surrounding transaction ends. It must run inside a transaction.
func (r *revisionRepo) LockAllocation(dbc dbctx.Context, projectID uuid.UUID, sourceType string) error {
	return dbc.Conn(r.db).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?::text || ':' || ?::text, 0))", projectID.String(), sourceType).
		Error
}

func (r *revisionRepo) MaxNumber(dbc dbctx.Context, projectID uuid.UUID, sourceType string) (int, error) {
	var max int
	err := dbc.Conn(r.db).
		Raw("SELECT COALESCE(MAX(revision_number), 0) FROM revisions WHERE project_id = ? AND source_type = ?", projectID, sourceType).
		Scan(&max).Error
	return max, err
}

func (r *revisionRepo) Create(dbc dbctx.Context, rev *types.Revision) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	if len(rev.Metadata) == 0 {
		rev.Metadata = datatypes.JSON([]byte("{}"))
	}
	return dbc.Conn(r.db).Create(rev).Error
}

// InsertIfAbsent inserts rev unless (project, number, source) is taken.
func (r *revisionRepo) InsertIfAbsent(dbc dbctx.Context, rev *types.Revision) (bool, error) {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	if len(rev.Metadata) == 0 {
		rev.Metadata = datatypes.JSON([]byte("{}"))
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "revision_number"}, {Name: "source_type"}},
			DoNothing: true,
		}).
		Create(rev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *revisionRepo) Merge(dbc dbctx.Context, id uuid.UUID, patch RevisionPatch) error {
	updates := map[string]interface{}{
		"version_tag":      gorm.Expr("COALESCE(NULLIF(?, ''), version_tag)", patch.VersionTag),
		"description":      gorm.Expr("COALESCE(NULLIF(?, ''), description)", patch.Description),
		"source_file_path": gorm.Expr("COALESCE(NULLIF(?, ''), source_file_path)", patch.SourceFilePath),
		"total_objects":    gorm.Expr("GREATEST(total_objects, ?)", patch.TotalObjects),
		"updated_at":       time.Now().UTC(),
	}
	if len(patch.Metadata) > 0 {
		updates["metadata"] = gorm.Expr("metadata || ?::jsonb", string(patch.Metadata))
	}
	return dbc.Conn(r.db).
		Model(&types.Revision{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// RefreshCounters recomputes object and category counts from the stored objects. Counters
// only ever grow.
func (r *revisionRepo) RefreshCounters(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Exec(`
		UPDATE revisions r
		SET total_objects = GREATEST(r.total_objects, s.objects),
		    total_categories = GREATEST(r.total_categories, s.categories),
		    updated_at = now()
		FROM (
			SELECT COUNT(*) AS objects, COUNT(DISTINCT NULLIF(category, '')) AS categories
			FROM unified_objects
			WHERE revision_id = ?
		) s
		WHERE r.id = ?`, id, id).Error
}

func (r *revisionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", id).Delete(&types.Revision{}).Error
}
