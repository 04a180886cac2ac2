package projects

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type HierarchyAttributeRepo interface {
	UpsertBatch(dbc dbctx.Context, rows []*types.HierarchyAttribute, batchSize int) (int64, error)
}

type hierarchyAttributeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHierarchyAttributeRepo(db *gorm.DB, baseLog *logger.Logger) HierarchyAttributeRepo {
	return &hierarchyAttributeRepo{
		db:  db,
		log: baseLog.With("repo", "HierarchyAttributeRepo"),
	}
}

func (r *hierarchyAttributeRepo) UpsertBatch(dbc dbctx.Context, rows []*types.HierarchyAttribute, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "revision_id"}, {Name: "object_key"}, {Name: "property_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"parent_key":       gorm.Expr("EXCLUDED.parent_key"),
				"level":            gorm.Expr("EXCLUDED.level"),
				"display_name":     gorm.Expr("EXCLUDED.display_name"),
				"category":         gorm.Expr("EXCLUDED.category"),
				"property_value":   gorm.Expr("EXCLUDED.property_value"),
				"canonical_id":     gorm.Expr("COALESCE(EXCLUDED.canonical_id, hierarchy_attributes.canonical_id)"),
				"source_file_path": gorm.Expr("COALESCE(EXCLUDED.source_file_path, hierarchy_attributes.source_file_path)"),
				"updated_at":       gorm.Expr("now()"),
			}),
		}).
		CreateInBatches(rows, batchSize)
	return res.RowsAffected, res.Error
}
