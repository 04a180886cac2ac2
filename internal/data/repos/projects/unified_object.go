package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

// SpatialPathSeparator joins ancestor display names in materialized paths.
const SpatialPathSeparator = " > "

type UnifiedObjectRepo interface {
	UpsertBatch(dbc dbctx.Context, rows []*types.UnifiedObject, batchSize int) (int64, error)
	RecomputeSpatialPaths(dbc dbctx.Context, revisionID uuid.UUID, sourceType string) (int64, error)
	Find(dbc dbctx.Context, q ObjectQuery) ([]*types.UnifiedObject, error)
	Count(dbc dbctx.Context, q ObjectQuery) (int64, error)
}

// ObjectQuery selects objects of one revision. Empty filters match everything; a non-nil
// empty ParentKey selects roots.
type ObjectQuery struct {
	RevisionID uuid.UUID
	SourceType string
	Category   string
	ParentKey  *string
	MaxLevel   *int
	ByLevel    bool // order by level, display_name instead of unique_key
	Limit      int
	Offset     int
}

type unifiedObjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnifiedObjectRepo(db *gorm.DB, baseLog *logger.Logger) UnifiedObjectRepo {
	return &unifiedObjectRepo{
		db:  db,
		log: baseLog.With("repo", "UnifiedObjectRepo"),
	}
}

// objectMerge is the on-conflict assignment set: properties are unioned with incoming keys
// winning, identity and geometry fields are filled only when absent, descriptive fields
// take non-empty incoming values.
var objectMerge = clause.Assignments(map[string]interface{}{
	"properties":   gorm.Expr("unified_objects.properties || EXCLUDED.properties"),
	"object_guid":  gorm.Expr("COALESCE(unified_objects.object_guid, EXCLUDED.object_guid)"),
	"geometry":     gorm.Expr("COALESCE(unified_objects.geometry, EXCLUDED.geometry)"),
	"canonical_id": gorm.Expr("COALESCE(unified_objects.canonical_id, EXCLUDED.canonical_id)"),
	"element_id":   gorm.Expr("COALESCE(EXCLUDED.element_id, unified_objects.element_id)"),
	"category":     gorm.Expr("COALESCE(NULLIF(EXCLUDED.category, ''), unified_objects.category)"),
	"display_name": gorm.Expr("COALESCE(NULLIF(EXCLUDED.display_name, ''), unified_objects.display_name)"),
	"family":       gorm.Expr("COALESCE(NULLIF(EXCLUDED.family, ''), unified_objects.family)"),
	"type_name":    gorm.Expr("COALESCE(NULLIF(EXCLUDED.type_name, ''), unified_objects.type_name)"),
	"activity_id":  gorm.Expr("COALESCE(NULLIF(EXCLUDED.activity_id, ''), unified_objects.activity_id)"),
	"parent_key":   gorm.Expr("COALESCE(NULLIF(EXCLUDED.parent_key, ''), unified_objects.parent_key)"),
	"level":        gorm.Expr("COALESCE(EXCLUDED.level, unified_objects.level)"),
	"updated_at":   gorm.Expr("now()"),
})

// UpsertBatch merge-upserts rows on (revision_id, source_type, unique_key). Rows must already
// be unique on that key; a repeated key inside one statement is rejected by Postgres.
func (r *unifiedObjectRepo) UpsertBatch(dbc dbctx.Context, rows []*types.UnifiedObject, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "revision_id"},
				{Name: "source_type"},
				{Name: "unique_key"},
			},
			DoUpdates: objectMerge,
		}).
		CreateInBatches(rows, batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// RecomputeSpatialPaths rebuilds spatial_path for every object of the revision and source.
// Objects whose parent is absent from the revision are treated as roots.
func (r *unifiedObjectRepo) RecomputeSpatialPaths(dbc dbctx.Context, revisionID uuid.UUID, sourceType string) (int64, error) {
	res := dbc.Conn(r.db).Exec(`
		WITH RECURSIVE scope AS (
			SELECT id, unique_key, parent_key, COALESCE(display_name, '') AS display_name
			FROM unified_objects
			WHERE revision_id = @rev AND source_type = @src
		), tree AS (
			SELECT s.id, s.unique_key, s.display_name::text AS path, 1 AS depth
			FROM scope s
			WHERE s.parent_key IS NULL
			   OR NOT EXISTS (SELECT 1 FROM scope p WHERE p.unique_key = s.parent_key)
			UNION ALL
			SELECT c.id, c.unique_key, t.path || @sep || c.display_name, t.depth + 1
			FROM scope c
			JOIN tree t ON c.parent_key = t.unique_key
			WHERE t.depth < 512
		)
		UPDATE unified_objects u
		SET spatial_path = tree.path, updated_at = now()
		FROM tree
		WHERE u.id = tree.id`,
		map[string]interface{}{"rev": revisionID, "src": sourceType, "sep": SpatialPathSeparator},
	)
	return res.RowsAffected, res.Error
}

func (r *unifiedObjectRepo) scope(dbc dbctx.Context, q ObjectQuery) *gorm.DB {
	db := dbc.Conn(r.db).Model(&types.UnifiedObject{}).Where("revision_id = ?", q.RevisionID)
	if q.SourceType != "" {
		db = db.Where("source_type = ?", q.SourceType)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.ParentKey != nil {
		if *q.ParentKey == "" {
			db = db.Where("parent_key IS NULL")
		} else {
			db = db.Where("parent_key = ?", *q.ParentKey)
		}
	}
	if q.MaxLevel != nil {
		db = db.Where("level <= ?", *q.MaxLevel)
	}
	return db
}

func (r *unifiedObjectRepo) Find(dbc dbctx.Context, q ObjectQuery) ([]*types.UnifiedObject, error) {
	db := r.scope(dbc, q)
	if q.ByLevel {
		db = db.Order("level ASC NULLS LAST").Order("display_name ASC").Order("unique_key ASC")
	} else {
		db = db.Order("unique_key ASC")
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	var out []*types.UnifiedObject
	if err := db.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *unifiedObjectRepo) Count(dbc dbctx.Context, q ObjectQuery) (int64, error) {
	var n int64
	err := r.scope(dbc, q).Count(&n).Error
	return n, err
}
