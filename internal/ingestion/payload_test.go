package ingestion

import (
	"strings"
	"testing"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
)

const legacyBody = `{
  "Metadata": {
    "ModelVersion": "TowerA_2024-10-01",
    "Timestamp": "2024-10-01T09:30:00Z",
    "ProjectName": "Tower A-1",
    "CreatedBy": "kim",
    "TotalObjectCount": 3,
    "RevitFilePath": "C:/models/tower.rvt"
  },
  "Objects": [
    {"ObjectId": "3f2504e0-4f89-11d3-9a0c-0305e82c3301", "ElementId": 101, "Category": "Walls",
     "Properties": "{\"Name\":\"Basic Wall\",\"IfcGUID\":\"2O2Fr$t4X7Zf8NOew3FLOH\"}",
     "BoundingBox": "{\"min\":[0,0,0],\"max\":[1,1,1]}"},
    {"ObjectId": "elem-102", "ElementId": 102, "Category": "", "Type": "Door 900",
     "Properties": "{not json"},
    {"ObjectId": "elem-103", "ElementId": 103, "Properties": {"Category": "Floors"}}
  ],
  "Relationships": [
    {"SourceObjectId": "elem-102", "TargetObjectId": "elem-103", "RelationType": "HostedBy"},
    {"SourceObjectId": "elem-102", "TargetObjectId": "elem-103", "RelationType": "HostedBy", "IsDirected": false}
  ]
}`

func TestDecodePayload_RoutesLegacy(t *testing.T) {
	cmd, err := DecodePayload([]byte(legacyBody))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if cmd.Path != PathLegacy || cmd.SourceType != types.SourceRevit {
		t.Fatalf("path=%q source=%q", cmd.Path, cmd.SourceType)
	}
	if cmd.Project.Name != "Tower A-1" || cmd.Project.Code != "" {
		t.Fatalf("legacy payload resolves by name: %+v", cmd.Project)
	}
	if cmd.Revision.ModelVersion != "TowerA_2024-10-01" || cmd.Revision.Number != nil {
		t.Fatalf("legacy revision keyed by model version: %+v", cmd.Revision)
	}
	if cmd.Revision.SourceFilePath != "C:/models/tower.rvt" {
		t.Fatalf("file path=%q", cmd.Revision.SourceFilePath)
	}
	if cmd.Revision.ExtractedAt == nil || cmd.Revision.ExtractedAt.Year() != 2024 {
		t.Fatalf("timestamp not parsed")
	}
	if len(cmd.Objects) != 3 {
		t.Fatalf("objects=%d", len(cmd.Objects))
	}

	first := cmd.Objects[0]
	if first.UniqueID != "3f2504e0-4f89-11d3-9a0c-0305e82c3301" || first.UniqueKey != "" {
		t.Fatalf("legacy ObjectId must land in unique_id: %+v", first)
	}
	if first.DisplayName != "Basic Wall" {
		t.Fatalf("display name=%q", first.DisplayName)
	}
	if first.CanonicalID != "2O2Fr$t4X7Zf8NOew3FLOH" {
		t.Fatalf("canonical id=%q", first.CanonicalID)
	}
	if first.Properties["RevitUniqueId"] != first.UniqueID || first.Properties["ModelVersion"] != "TowerA_2024-10-01" {
		t.Fatalf("property defaults missing: %v", first.Properties)
	}
	if len(first.Geometry) == 0 {
		t.Fatalf("bounding box dropped")
	}

	second := cmd.Objects[1]
	if second.Category != "UNKNOWN" || second.DisplayName != "Door 900" {
		t.Fatalf("fallbacks: category=%q name=%q", second.Category, second.DisplayName)
	}
	if second.Properties["ElementId"] != 102 {
		t.Fatalf("malformed properties should still get defaults: %v", second.Properties)
	}
	if cmd.Objects[2].Category != "Floors" {
		t.Fatalf("category should fall back to props, got %q", cmd.Objects[2].Category)
	}

	found := false
	for _, w := range cmd.Warnings {
		if strings.Contains(w, "elem-102") && strings.Contains(w, "Properties") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected warning for malformed properties, got %v", cmd.Warnings)
	}

	a := cmd.Archive
	if a == nil || a.Metadata == nil || len(a.Objects) != 3 {
		t.Fatalf("archive not populated: %+v", a)
	}
	if len(a.Relationships) != 1 || a.Relationships[0].IsDirected {
		t.Fatalf("relationships should dedupe with later row winning: %+v", a.Relationships)
	}
	if a.Objects[1].ObjectUUID == a.Objects[2].ObjectUUID {
		t.Fatalf("archive uuids must differ per object")
	}
}

func TestDecodePayload_RoutesDual(t *testing.T) {
	body := `{"project_code":"TOWER_A","revision_number":2,"source_type":"navisworks",
	  "objects":[{"unique_key":"a","name":"Slab"},{"unique_id":"b","source_type":"ifc"}]}`
	cmd, err := DecodePayload([]byte(body))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if cmd.Path != PathDual || cmd.Project.Code != "TOWER_A" || *cmd.Revision.Number != 2 {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.Objects[0].SourceType != types.SourceNavisworks || cmd.Objects[1].SourceType != types.SourceIFC {
		t.Fatalf("object source defaults: %q %q", cmd.Objects[0].SourceType, cmd.Objects[1].SourceType)
	}
	if cmd.Objects[0].DisplayName != "Slab" {
		t.Fatalf("name=%q", cmd.Objects[0].DisplayName)
	}
}

func TestDecodePayload_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `[1,2]`},
		{"unknown shape", `{"objects":[]}`},
		{"legacy missing model version", `{"Metadata":{"ProjectName":"p","CreatedBy":"c"},"Objects":[]}`},
		{"legacy missing creator", `{"Metadata":{"ModelVersion":"v","ProjectName":"p"},"Objects":[]}`},
		{"dual revision zero", `{"project_code":"P","revision_number":0,"source_type":"revit","objects":[{"unique_key":"a"}]}`},
		{"dual bad source", `{"project_code":"P","revision_number":1,"source_type":"sketchup","objects":[{"unique_key":"a"}]}`},
		{"dual bad object source", `{"project_code":"P","revision_number":1,"source_type":"revit","objects":[{"unique_key":"a","source_type":"dwg"}]}`},
		{"dual no objects", `{"project_code":"P","revision_number":1,"source_type":"revit","objects":[]}`},
		{"dual blank code", `{"project_code":"  ","revision_number":1,"source_type":"revit","objects":[{"unique_key":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload([]byte(tt.body))
			if !failure.IsCode(err, failure.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDecodePayload_StripsBOM(t *testing.T) {
	body := "\xef\xbb\xbf" + `{"project_code":"P","revision_number":1,"source_type":"revit","objects":[{"unique_key":"a"}]}`
	if _, err := DecodePayload([]byte(body)); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
}
