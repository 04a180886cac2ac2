package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Legacy archive tables keep the older single-source payload as received, keyed by the
// free-text model version.

type LegacyMetadata struct {
	ModelVersion     string    `gorm:"column:model_version;primaryKey" json:"model_version"`
	ProjectName      string    `gorm:"column:project_name;not null" json:"project_name"`
	CreatedBy        string    `gorm:"column:created_by;not null" json:"created_by"`
	Description      string    `gorm:"column:description" json:"description,omitempty"`
	TotalObjectCount int       `gorm:"column:total_object_count;not null;default:0" json:"total_object_count"`
	SourceFilePath   string    `gorm:"column:source_file_path" json:"source_file_path,omitempty"`
	ExportedAt       time.Time `gorm:"column:exported_at;not null" json:"exported_at"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LegacyMetadata) TableName() string { return "legacy_metadata" }

type LegacyObject struct {
	ModelVersion string    `gorm:"column:model_version;primaryKey" json:"model_version"`
	ObjectID     string    `gorm:"column:object_id;primaryKey" json:"object_id"`
	ObjectUUID   uuid.UUID `gorm:"type:uuid;column:object_uuid;not null;index" json:"object_uuid"`

	ElementID   int            `gorm:"column:element_id" json:"element_id"`
	Category    string         `gorm:"column:category" json:"category"`
	Family      string         `gorm:"column:family" json:"family,omitempty"`
	TypeName    string         `gorm:"column:type_name" json:"type_name,omitempty"`
	ActivityID  string         `gorm:"column:activity_id" json:"activity_id,omitempty"`
	Properties  datatypes.JSON `gorm:"column:properties;type:jsonb;not null;default:'{}'" json:"properties"`
	BoundingBox datatypes.JSON `gorm:"column:bounding_box;type:jsonb" json:"bounding_box,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LegacyObject) TableName() string { return "legacy_objects" }

type LegacyRelationship struct {
	ModelVersion   string `gorm:"column:model_version;primaryKey" json:"model_version"`
	SourceObjectID string `gorm:"column:source_object_id;primaryKey" json:"source_object_id"`
	TargetObjectID string `gorm:"column:target_object_id;primaryKey" json:"target_object_id"`
	RelationType   string `gorm:"column:relation_type;primaryKey" json:"relation_type"`
	IsDirected     bool   `gorm:"column:is_directed;not null" json:"is_directed"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LegacyRelationship) TableName() string { return "legacy_relationships" }
