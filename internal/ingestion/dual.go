package ingestion

import (
	"encoding/json"
	"strings"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

// DualPayload is the batch shape carrying unique_key / object_guid per object.
type DualPayload struct {
	ProjectCode    string       `json:"project_code"`
	ProjectName    string       `json:"project_name,omitempty"`
	RevisionNumber int          `json:"revision_number"`
	SourceType     string       `json:"source_type"`
	CreatedBy      string       `json:"created_by,omitempty"`
	VersionTag     string       `json:"version_tag,omitempty"`
	Description    string       `json:"description,omitempty"`
	SourceFilePath string       `json:"source_file_path,omitempty"`
	Objects        []DualObject `json:"objects"`
}

type DualObject struct {
	UniqueKey   string          `json:"unique_key,omitempty"`
	ObjectGUID  string          `json:"object_guid,omitempty"`
	UniqueID    string          `json:"unique_id,omitempty"`
	SourceType  string          `json:"source_type,omitempty"`
	CanonicalID string          `json:"canonical_id,omitempty"`
	ElementID   *int64          `json:"element_id,omitempty"`
	Category    string          `json:"category,omitempty"`
	Name        string          `json:"name,omitempty"`
	Family      string          `json:"family,omitempty"`
	Type        string          `json:"type,omitempty"`
	ParentKey   string          `json:"parent_key,omitempty"`
	Level       *int            `json:"level,omitempty"`
	Properties  map[string]any  `json:"properties,omitempty"`
	Geometry    json.RawMessage `json:"geometry,omitempty"`
}

// Command maps the payload onto the canonical command.
func (p DualPayload) Command() (Command, error) {
	const op = "ingestion.DualPayload"
	code := strings.TrimSpace(p.ProjectCode)
	if code == "" {
		return Command{}, failure.Validation(op, "project_code is required")
	}
	if p.RevisionNumber < 1 {
		return Command{}, failure.Validation(op, "revision_number must be >= 1, got %d", p.RevisionNumber)
	}
	if len(p.Objects) == 0 {
		return Command{}, failure.Validation(op, "at least one object is required")
	}
	source := strings.ToLower(strings.TrimSpace(p.SourceType))
	number := p.RevisionNumber

	cmd := Command{
		Path:       PathDual,
		SourceType: source,
		Project: revisions.ProjectRef{
			Code:           code,
			Name:           strings.TrimSpace(p.ProjectName),
			CreatedBy:      p.CreatedBy,
			SourceFilePath: p.SourceFilePath,
		},
		Revision: revisions.RevisionSpec{
			Number:         &number,
			VersionTag:     p.VersionTag,
			Description:    p.Description,
			SourceFilePath: p.SourceFilePath,
			CreatedBy:      p.CreatedBy,
		},
		Objects: make([]ObjectInput, 0, len(p.Objects)),
	}
	for _, o := range p.Objects {
		objSource := strings.ToLower(strings.TrimSpace(o.SourceType))
		if objSource == "" {
			objSource = source
		}
		cmd.Objects = append(cmd.Objects, ObjectInput{
			UniqueKey:   strings.TrimSpace(o.UniqueKey),
			ObjectGUID:  strings.TrimSpace(o.ObjectGUID),
			UniqueID:    strings.TrimSpace(o.UniqueID),
			SourceType:  objSource,
			CanonicalID: strings.TrimSpace(o.CanonicalID),
			ElementID:   o.ElementID,
			Category:    o.Category,
			DisplayName: o.Name,
			Family:      o.Family,
			TypeName:    o.Type,
			ParentKey:   strings.TrimSpace(o.ParentKey),
			Level:       o.Level,
			Properties:  o.Properties,
			Geometry:    o.Geometry,
		})
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
