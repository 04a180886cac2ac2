package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Project{},
		&types.Revision{},
		&types.RevisionVersion{},
		&types.UnifiedObject{},
		&types.HierarchyAttribute{},

		// Legacy archive
		&types.LegacyMetadata{},
		&types.LegacyObject{},
		&types.LegacyRelationship{},
	); err != nil {
		return err
	}
	if err := EnsureObjectIndexes(db); err != nil {
		return err
	}
	return EnsureLatestRevisionView(db)
}

func EnsureObjectIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_revisions_project_source_number", `
			CREATE INDEX IF NOT EXISTS idx_revisions_project_source_number
			ON revisions (project_id, source_type, revision_number DESC);`},
		{"idx_unified_objects_revision_unique_key", `
			CREATE INDEX IF NOT EXISTS idx_unified_objects_revision_unique_key
			ON unified_objects (revision_id, unique_key);`},
		{"idx_unified_objects_project_unique_key", `
			CREATE INDEX IF NOT EXISTS idx_unified_objects_project_unique_key
			ON unified_objects (project_id, unique_key);`},
		{"idx_unified_objects_parent", `
			CREATE INDEX IF NOT EXISTS idx_unified_objects_parent
			ON unified_objects (revision_id, source_type, parent_key)
			WHERE parent_key IS NOT NULL;`},
		{"idx_unified_objects_properties", `
			CREATE INDEX IF NOT EXISTS idx_unified_objects_properties
			ON unified_objects USING GIN (properties jsonb_path_ops);`},
		{"idx_hierarchy_attributes_property", `
			CREATE INDEX IF NOT EXISTS idx_hierarchy_attributes_property
			ON hierarchy_attributes (revision_id, property_name);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

// EnsureLatestRevisionView (re)creates the view detection reads from: objects of the highest
// revision_number per (project, source_type), active projects only.
func EnsureLatestRevisionView(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE OR REPLACE VIEW v_latest_revisions AS
		SELECT DISTINCT ON (r.project_id, r.source_type)
			r.id AS revision_id, r.project_id, r.source_type, r.revision_number
		FROM revisions r
		JOIN projects p ON p.id = r.project_id
		WHERE p.is_active
		ORDER BY r.project_id, r.source_type, r.revision_number DESC;
	`).Error; err != nil {
		return fmt.Errorf("create v_latest_revisions: %w", err)
	}
	if err := db.Exec(`
		CREATE OR REPLACE VIEW v_unified_objects_latest AS
		SELECT o.*
		FROM unified_objects o
		JOIN v_latest_revisions lr ON lr.revision_id = o.revision_id;
	`).Error; err != nil {
		return fmt.Errorf("create v_unified_objects_latest: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
