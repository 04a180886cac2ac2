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

type ProjectRepo interface {
	GetByCode(dbc dbctx.Context, code string) (*types.Project, error)
	GetByName(dbc dbctx.Context, name string) (*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	InsertIfAbsent(dbc dbctx.Context, p *types.Project) (bool, error)
	Touch(dbc dbctx.Context, id uuid.UUID, sourceFileName, sourceFilePath string) error
	SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error
	HardDelete(dbc dbctx.Context, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{
		db:  db,
		log: baseLog.With("repo", "ProjectRepo"),
	}
}

func (r *projectRepo) GetByCode(dbc dbctx.Context, code string) (*types.Project, error) {
	return r.first(dbc, "code = ?", code)
}

// GetByName matches the display name exactly, preferring active projects.
func (r *projectRepo) GetByName(dbc dbctx.Context, name string) (*types.Project, error) {
	var p types.Project
	err := dbc.Conn(r.db).
		Where("name = ?", name).
		Order("is_active DESC, created_at ASC").
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *projectRepo) first(dbc dbctx.Context, query string, args ...interface{}) (*types.Project, error) {
	var p types.Project
	err := dbc.Conn(r.db).Where(query, args...).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

// InsertIfAbsent inserts p unless its code already exists. It reports whether a row was
// written; callers re-read on false.
func (r *projectRepo) InsertIfAbsent(dbc dbctx.Context, p *types.Project) (bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Touch fills missing source file fields and reactivates the project.
func (r *projectRepo) Touch(dbc dbctx.Context, id uuid.UUID, sourceFileName, sourceFilePath string) error {
	return dbc.Conn(r.db).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"source_file_name": gorm.Expr("COALESCE(NULLIF(source_file_name, ''), ?)", sourceFileName),
			"source_file_path": gorm.Expr("COALESCE(NULLIF(source_file_path, ''), ?)", sourceFilePath),
			"is_active":        true,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (r *projectRepo) SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error {
	return dbc.Conn(r.db).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		}).Error
}

// HardDelete removes the project. Revisions, version aliases, objects and hierarchy rows go
// with it through cascading keys; legacy archive rows are keyed by model version and removed
// here explicitly.
func (r *projectRepo) HardDelete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Conn(r.db)
	versions := transaction.
		Model(&types.RevisionVersion{}).
		Select("revision_versions.model_version").
		Joins("JOIN revisions ON revisions.id = revision_versions.revision_id").
		Where("revisions.project_id = ?", id)

	if err := transaction.Where("model_version IN (?)", versions).Delete(&types.LegacyRelationship{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("model_version IN (?)", versions).Delete(&types.LegacyObject{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("model_version IN (?)", versions).Delete(&types.LegacyMetadata{}).Error; err != nil {
		return err
	}
	return transaction.Where("id = ?", id).Delete(&types.Project{}).Error
}
