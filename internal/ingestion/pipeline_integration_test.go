package ingestion

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/data/repos/testutil"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

func newDBPipeline(t *testing.T, tx *gorm.DB) (Pipeline, projects.UnifiedObjectRepo) {
	t.Helper()
	log := testutil.Logger(t)
	runner := txn.NewGormTxRunner(tx)
	objects := projects.NewUnifiedObjectRepo(tx, log)
	store := revisions.NewStore(log, runner, txn.DefaultRetryPolicy(),
		projects.NewProjectRepo(tx, log),
		projects.NewRevisionRepo(tx, log),
		projects.NewRevisionVersionRepo(tx, log),
		objects,
	)
	p := NewPipeline(log, runner, store, objects, projects.NewLegacyArchiveRepo(tx, log), nil,
		Options{BatchSize: 2, Retry: txn.DefaultRetryPolicy()})
	return p, objects
}

func TestPipeline_ReingestIsIdempotentAndMergesProperties(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	p, objects := newDBPipeline(t, tx)

	code := "IT_" + uuid.NewString()[:8]
	n := 1
	mk := func(props map[string]any, category string, level *int) Command {
		return Command{
			Path:       PathDual,
			SourceType: types.SourceIFC,
			Project:    revisions.ProjectRef{Code: code},
			Revision:   revisions.RevisionSpec{Number: &n},
			Objects: []ObjectInput{
				{UniqueKey: "a", Category: category, Properties: props},
				{UniqueID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
				{UniqueKey: "c", ParentKey: "a", Level: level, DisplayName: "child"},
			},
		}
	}

	first, err := p.Ingest(ctx, mk(map[string]any{"x": 1}, "Walls", intPtr(1)))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := p.Ingest(ctx, mk(map[string]any{"y": 2}, "", nil))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if first.RevisionID != second.RevisionID || second.RevisionCreated {
		t.Fatalf("same revision number must resolve to the same revision")
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	count, err := objects.Count(dbc, projects.ObjectQuery{RevisionID: first.RevisionID})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("re-ingest duplicated rows: count=%d", count)
	}

	rows, err := objects.Find(dbc, projects.ObjectQuery{RevisionID: first.RevisionID, SourceType: types.SourceIFC})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	var a, c *types.UnifiedObject
	for _, r := range rows {
		switch r.UniqueKey {
		case "a":
			a = r
		case "c":
			c = r
		}
	}
	if a == nil {
		t.Fatalf("object a missing")
	}
	var props map[string]any
	if err := json.Unmarshal(a.Properties, &props); err != nil {
		t.Fatalf("properties: %v", err)
	}
	if props["x"] == nil || props["y"] == nil {
		t.Fatalf("properties should union across ingests: %v", props)
	}
	if a.Category != "Walls" {
		t.Fatalf("empty category must not clobber, got %q", a.Category)
	}
	if c == nil || c.Level == nil || *c.Level != 1 {
		t.Fatalf("absent level must not clobber: %+v", c)
	}

	var rev types.Revision
	if err := tx.WithContext(ctx).First(&rev, "id = ?", first.RevisionID).Error; err != nil {
		t.Fatalf("load revision: %v", err)
	}
	if rev.TotalObjects != 3 {
		t.Fatalf("total_objects=%d", rev.TotalObjects)
	}
}

func TestPipeline_LegacyRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	p, _ := newDBPipeline(t, tx)

	cmd, err := DecodePayload([]byte(legacyBody))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	cmd.Project.Name = "Legacy " + uuid.NewString()[:8]
	cmd.Revision.ModelVersion = "mv-" + uuid.NewString()
	cmd.Archive.Metadata.ModelVersion = cmd.Revision.ModelVersion
	for _, o := range cmd.Archive.Objects {
		o.ModelVersion = cmd.Revision.ModelVersion
	}
	for _, r := range cmd.Archive.Relationships {
		r.ModelVersion = cmd.Revision.ModelVersion
	}

	first, err := p.Ingest(ctx, cmd)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	again, err := p.Ingest(ctx, cmd)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if again.RevisionID != first.RevisionID {
		t.Fatalf("model version should resolve the same revision")
	}

	var n int64
	if err := tx.WithContext(ctx).Model(&types.LegacyObject{}).
		Where("model_version = ?", cmd.Revision.ModelVersion).Count(&n).Error; err != nil {
		t.Fatalf("count legacy objects: %v", err)
	}
	if n != 3 {
		t.Fatalf("legacy objects=%d", n)
	}
}
