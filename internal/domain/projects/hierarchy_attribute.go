package projects

import (
	"time"

	"github.com/google/uuid"
)

// HierarchyAttribute is one raw (object, property) row from a tree-structured export.
type HierarchyAttribute struct {
	RevisionID   uuid.UUID `gorm:"type:uuid;column:revision_id;primaryKey" json:"revision_id"`
	Revision     *Revision `gorm:"constraint:OnDelete:CASCADE;foreignKey:RevisionID;references:ID" json:"-"`
	ObjectKey    string    `gorm:"column:object_key;primaryKey" json:"object_key"`
	PropertyName string    `gorm:"column:property_name;primaryKey" json:"property_name"`

	ParentKey     *string `gorm:"column:parent_key" json:"parent_key,omitempty"`
	Level         int     `gorm:"column:level;not null;default:0" json:"level"`
	DisplayName   string  `gorm:"column:display_name" json:"display_name,omitempty"`
	Category      string  `gorm:"column:category" json:"category,omitempty"`
	PropertyValue string  `gorm:"column:property_value" json:"property_value"`

	CanonicalID    *string `gorm:"column:canonical_id" json:"canonical_id,omitempty"`
	SourceFilePath *string `gorm:"column:source_file_path" json:"source_file_path,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (HierarchyAttribute) TableName() string { return "hierarchy_attributes" }
