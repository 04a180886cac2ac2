package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

const (
	PathLegacy    = "legacy"
	PathDual      = "dual"
	PathHierarchy = "hierarchy"
)

const maxWarnings = 100

// ObjectInput is one incoming object after adapter mapping. Identifier fields are raw; the
// pipeline runs them through the identity migrator.
type ObjectInput struct {
	UniqueKey  string
	ObjectGUID string
	UniqueID   string
	SourceType string

	CanonicalID string
	ElementID   *int64
	Category    string
	DisplayName string
	Family      string
	TypeName    string
	ActivityID  string
	ParentKey   string
	Level       *int

	Properties map[string]any
	Geometry   json.RawMessage
}

// LegacyArchive is the verbatim copy of a legacy payload, stored next to the unified rows.
type LegacyArchive struct {
	Metadata      *types.LegacyMetadata
	Objects       []*types.LegacyObject
	Relationships []*types.LegacyRelationship
}

// Command is the single canonical ingestion request both payload shapes resolve to.
type Command struct {
	Path       string
	Project    revisions.ProjectRef
	Revision   revisions.RevisionSpec
	SourceType string
	Objects    []ObjectInput
	Archive    *LegacyArchive
	Warnings   []string
}

// Validate checks the fields required before any write.
func (c Command) Validate() error {
	const op = "ingestion.Validate"
	if strings.TrimSpace(c.Project.Code) == "" && strings.TrimSpace(c.Project.Name) == "" {
		return failure.Validation(op, "project code or name is required")
	}
	if !types.ValidSourceType(c.SourceType) {
		return failure.Validation(op, "source_type must be one of revit, navisworks, ifc; got %q", c.SourceType)
	}
	if c.Revision.Number == nil && strings.TrimSpace(c.Revision.ModelVersion) == "" {
		return failure.Validation(op, "revision_number or model version is required")
	}
	if c.Revision.Number != nil && *c.Revision.Number < 1 {
		return failure.Validation(op, "revision_number must be >= 1, got %d", *c.Revision.Number)
	}
	for i, o := range c.Objects {
		if o.SourceType != "" && !types.ValidSourceType(o.SourceType) {
			return failure.Validation(op, "objects[%d].source_type %q is not valid", i, o.SourceType)
		}
	}
	return nil
}

func (c *Command) warnf(format string, args ...any) {
	c.Warnings = appendWarning(c.Warnings, fmt.Sprintf(format, args...))
}

func appendWarning(ws []string, w string) []string {
	if len(ws) < maxWarnings {
		return append(ws, w)
	}
	return ws
}

// Result reports one ingestion call.
type Result struct {
	Path                 string        `json:"path"`
	ProjectID            uuid.UUID     `json:"project_id"`
	ProjectCode          string        `json:"project_code"`
	ProjectCreated       bool          `json:"project_created"`
	RevisionID           uuid.UUID     `json:"revision_id"`
	RevisionNumber       int           `json:"revision_number"`
	RevisionCreated      bool          `json:"revision_created"`
	SourceType           string        `json:"source_type"`
	Attempted            int           `json:"objects_attempted"`
	Written              int64         `json:"objects_written"`
	Skipped              int           `json:"objects_skipped"`
	RelationshipsWritten int64         `json:"relationships_written,omitempty"`
	Warnings             []string      `json:"warnings,omitempty"`
	Elapsed              time.Duration `json:"-"`
	ElapsedMS            int64         `json:"elapsed_ms"`
}
