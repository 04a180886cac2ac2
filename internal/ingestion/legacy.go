package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/identity"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

// LegacyPayload is the PascalCase snapshot shape emitted by older exporters.
type LegacyPayload struct {
	Metadata      LegacyMetadataRecord `json:"Metadata"`
	Objects       []LegacyObjectRecord `json:"Objects"`
	Relationships []LegacyRelationship `json:"Relationships"`
}

type LegacyMetadataRecord struct {
	ModelVersion     string `json:"ModelVersion"`
	Timestamp        string `json:"Timestamp"`
	ProjectName      string `json:"ProjectName"`
	CreatedBy        string `json:"CreatedBy"`
	Description      string `json:"Description"`
	TotalObjectCount int    `json:"TotalObjectCount"`
	SourceFilePath   string `json:"SourceFilePath"`
	RevitFilePath    string `json:"RevitFilePath"`
}

type LegacyObjectRecord struct {
	ObjectID    string   `json:"ObjectId"`
	ElementID   int      `json:"ElementId"`
	Category    string   `json:"Category"`
	Family      string   `json:"Family"`
	Type        string   `json:"Type"`
	ActivityID  string   `json:"ActivityId"`
	Properties  jsonText `json:"Properties"`
	BoundingBox jsonText `json:"BoundingBox"`
}

type LegacyRelationship struct {
	SourceObjectID string `json:"SourceObjectId"`
	TargetObjectID string `json:"TargetObjectId"`
	RelationType   string `json:"RelationType"`
	IsDirected     *bool  `json:"IsDirected"`
}

// jsonText holds a field that arrives either as a JSON document or as a string containing one.
// Decoding of the inner document is deferred so a bad value only affects its own object.
type jsonText []byte

func (t *jsonText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = jsonText(strings.TrimSpace(s))
		return nil
	}
	*t = append((*t)[:0], b...)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Command maps the legacy payload onto the canonical command. Malformed per-object JSON is
// reported as a warning and never fails the batch.
func (p LegacyPayload) Command() (Command, error) {
	const op = "ingestion.LegacyPayload"
	meta := p.Metadata
	modelVersion := strings.TrimSpace(meta.ModelVersion)
	projectName := strings.TrimSpace(meta.ProjectName)
	createdBy := strings.TrimSpace(meta.CreatedBy)
	switch {
	case modelVersion == "":
		return Command{}, failure.Validation(op, "ModelVersion is required")
	case projectName == "":
		return Command{}, failure.Validation(op, "ProjectName is required")
	case createdBy == "":
		return Command{}, failure.Validation(op, "CreatedBy is required")
	}
	filePath := strings.TrimSpace(meta.SourceFilePath)
	if filePath == "" {
		filePath = strings.TrimSpace(meta.RevitFilePath)
	}

	cmd := Command{
		Path:       PathLegacy,
		SourceType: types.SourceRevit,
		Project: revisions.ProjectRef{
			Name:           projectName,
			CreatedBy:      createdBy,
			SourceFilePath: filePath,
		},
		Revision: revisions.RevisionSpec{
			ModelVersion:   modelVersion,
			Description:    meta.Description,
			SourceFilePath: filePath,
			CreatedBy:      createdBy,
			TotalObjects:   meta.TotalObjectCount,
		},
	}

	exported, ok := parseTimestamp(meta.Timestamp)
	if ok {
		cmd.Revision.ExtractedAt = &exported
	} else {
		if meta.Timestamp != "" {
			cmd.warnf("metadata: unparseable Timestamp %q", meta.Timestamp)
		}
		exported = time.Now().UTC()
	}

	archive := &LegacyArchive{
		Metadata: &types.LegacyMetadata{
			ModelVersion:     modelVersion,
			ProjectName:      projectName,
			CreatedBy:        createdBy,
			Description:      meta.Description,
			TotalObjectCount: meta.TotalObjectCount,
			SourceFilePath:   filePath,
			ExportedAt:       exported,
		},
	}

	cmd.Objects = make([]ObjectInput, 0, len(p.Objects))
	seen := make(map[string]int, len(p.Objects))
	for i, o := range p.Objects {
		oid := strings.TrimSpace(o.ObjectID)
		if oid == "" {
			cmd.warnf("objects[%d]: missing ObjectId, skipped", i)
			continue
		}

		props := map[string]any{}
		if len(o.Properties) > 0 {
			if err := json.Unmarshal(o.Properties, &props); err != nil || props == nil {
				cmd.warnf("object %s: invalid Properties JSON", oid)
				props = map[string]any{}
			}
		}
		setDefault(props, "RevitUniqueId", oid)
		setDefault(props, "ElementId", o.ElementID)
		setDefault(props, "ProjectName", projectName)
		setDefault(props, "ModelVersion", modelVersion)

		var bbox json.RawMessage
		if len(o.BoundingBox) > 0 {
			if json.Valid(o.BoundingBox) {
				bbox = json.RawMessage(o.BoundingBox)
			} else {
				cmd.warnf("object %s: invalid BoundingBox JSON", oid)
			}
		}

		category := strings.TrimSpace(o.Category)
		if category == "" {
			category = stringProp(props, "Category")
		}
		if category == "" {
			category = "UNKNOWN"
		}
		elementID := int64(o.ElementID)

		cmd.Objects = append(cmd.Objects, ObjectInput{
			UniqueID:    oid,
			SourceType:  types.SourceRevit,
			CanonicalID: identity.ExtractCanonicalID(props),
			ElementID:   &elementID,
			Category:    category,
			DisplayName: identity.SanitizeDisplayName(stringProp(props, "Name"), o.Type, o.Family, o.Category),
			Family:      o.Family,
			TypeName:    o.Type,
			ActivityID:  o.ActivityID,
			Properties:  props,
			Geometry:    bbox,
		})

		propsJSON, _ := json.Marshal(props)
		row := &types.LegacyObject{
			ModelVersion: modelVersion,
			ObjectID:     oid,
			ObjectUUID:   archiveUUID(oid),
			ElementID:    o.ElementID,
			Category:     category,
			Family:       o.Family,
			TypeName:     o.Type,
			ActivityID:   o.ActivityID,
			Properties:   datatypes.JSON(propsJSON),
		}
		if bbox != nil {
			row.BoundingBox = datatypes.JSON(bbox)
		}
		if at, dup := seen[oid]; dup {
			archive.Objects[at] = row
			continue
		}
		seen[oid] = len(archive.Objects)
		archive.Objects = append(archive.Objects, row)
	}

	type relKey struct{ src, dst, kind string }
	relSeen := map[relKey]int{}
	for i, r := range p.Relationships {
		k := relKey{strings.TrimSpace(r.SourceObjectID), strings.TrimSpace(r.TargetObjectID), strings.TrimSpace(r.RelationType)}
		if k.src == "" || k.dst == "" || k.kind == "" {
			cmd.warnf("relationships[%d]: incomplete, skipped", i)
			continue
		}
		directed := true
		if r.IsDirected != nil {
			directed = *r.IsDirected
		}
		row := &types.LegacyRelationship{
			ModelVersion:   modelVersion,
			SourceObjectID: k.src,
			TargetObjectID: k.dst,
			RelationType:   k.kind,
			IsDirected:     directed,
		}
		if at, dup := relSeen[k]; dup {
			archive.Relationships[at] = row
			continue
		}
		relSeen[k] = len(archive.Relationships)
		archive.Relationships = append(archive.Relationships, row)
	}

	cmd.Archive = archive
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func setDefault(props map[string]any, key string, v any) {
	if cur, ok := props[key]; ok && cur != nil {
		return
	}
	props[key] = v
}

func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
