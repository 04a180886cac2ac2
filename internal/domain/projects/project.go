package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Project struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code string    `gorm:"column:code;not null;uniqueIndex:idx_projects_code" json:"code"`
	Name string    `gorm:"column:name;not null" json:"name"`

	SiteName   string `gorm:"column:site_name" json:"site_name,omitempty"`
	Location   string `gorm:"column:location" json:"location,omitempty"`
	ClientName string `gorm:"column:client_name" json:"client_name,omitempty"`

	SourceFileName string `gorm:"column:source_file_name" json:"source_file_name,omitempty"`
	SourceFilePath string `gorm:"column:source_file_path" json:"source_file_path,omitempty"`

	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedBy string         `gorm:"column:created_by" json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }
