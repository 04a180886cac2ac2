package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SourceRevit      = "revit"
	SourceNavisworks = "navisworks"
	SourceIFC        = "ifc"

	// SourceBoth is only valid on revision version aliases.
	SourceBoth = "both"
)

// ValidSourceType reports whether s is one of the object-bearing source types.
func ValidSourceType(s string) bool {
	switch s {
	case SourceRevit, SourceNavisworks, SourceIFC:
		return true
	}
	return false
}

type Revision struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_revisions_project_number_source,priority:1" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	RevisionNumber int    `gorm:"column:revision_number;not null;uniqueIndex:idx_revisions_project_number_source,priority:2" json:"revision_number"`
	SourceType     string `gorm:"column:source_type;not null;uniqueIndex:idx_revisions_project_number_source,priority:3" json:"source_type"`

	VersionTag     string `gorm:"column:version_tag" json:"version_tag,omitempty"`
	Description    string `gorm:"column:description" json:"description,omitempty"`
	SourceFilePath string `gorm:"column:source_file_path" json:"source_file_path,omitempty"`

	TotalObjects    int `gorm:"column:total_objects;not null;default:0" json:"total_objects"`
	TotalCategories int `gorm:"column:total_categories;not null;default:0" json:"total_categories"`

	ParentRevisionID *uuid.UUID `gorm:"type:uuid;column:parent_revision_id" json:"parent_revision_id,omitempty"`

	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedBy string         `gorm:"column:created_by" json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Revision) TableName() string { return "revisions" }

// RevisionVersion maps a free-text model version onto a revision row.
type RevisionVersion struct {
	ModelVersion string    `gorm:"column:model_version;primaryKey" json:"model_version"`
	RevisionID   uuid.UUID `gorm:"type:uuid;not null;index" json:"revision_id"`
	Revision     *Revision `gorm:"constraint:OnDelete:CASCADE;foreignKey:RevisionID;references:ID" json:"-"`
	SourceType   string    `gorm:"column:source_type;not null" json:"source_type"`

	SourceFilePath string     `gorm:"column:source_file_path" json:"source_file_path,omitempty"`
	ExtractedAt    *time.Time `gorm:"column:extracted_at" json:"extracted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RevisionVersion) TableName() string { return "revision_versions" }
