package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UnifiedObject is one modeled element. UniqueKey is always present; ObjectGUID only when a
// canonical id was supplied or derived.
type UnifiedObject struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	RevisionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_unified_objects_conflict,priority:1" json:"revision_id"`
	Revision   *Revision `gorm:"constraint:OnDelete:CASCADE;foreignKey:RevisionID;references:ID" json:"-"`
	SourceType string    `gorm:"column:source_type;not null;uniqueIndex:idx_unified_objects_conflict,priority:2" json:"source_type"`
	UniqueKey  string    `gorm:"column:unique_key;not null;uniqueIndex:idx_unified_objects_conflict,priority:3" json:"unique_key"`

	ObjectGUID  *uuid.UUID `gorm:"type:uuid;column:object_guid;index" json:"object_guid,omitempty"`
	CanonicalID *string    `gorm:"column:canonical_id" json:"canonical_id,omitempty"`
	ElementID   *int64     `gorm:"column:element_id" json:"element_id,omitempty"`

	Category    string `gorm:"column:category" json:"category,omitempty"`
	DisplayName string `gorm:"column:display_name" json:"display_name,omitempty"`
	Family      string `gorm:"column:family" json:"family,omitempty"`
	TypeName    string `gorm:"column:type_name" json:"type_name,omitempty"`
	ActivityID  string `gorm:"column:activity_id" json:"activity_id,omitempty"`

	Properties datatypes.JSON `gorm:"column:properties;type:jsonb;not null;default:'{}'" json:"properties"`
	Geometry   datatypes.JSON `gorm:"column:geometry;type:jsonb" json:"geometry,omitempty"`

	ParentKey   *string `gorm:"column:parent_key" json:"parent_key,omitempty"`
	Level       *int    `gorm:"column:level" json:"level,omitempty"`
	SpatialPath string  `gorm:"column:spatial_path" json:"spatial_path,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UnifiedObject) TableName() string { return "unified_objects" }
