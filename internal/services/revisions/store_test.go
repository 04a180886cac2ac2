package revisions

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

func TestEnsureProject_DerivesCodeOnce(t *testing.T) {
	s, fp, _, _ := newFakeStore(t)
	ctx := dbctx.New(context.Background())

	p1, created, err := s.EnsureProject(ctx, ProjectRef{Name: "Tower A-1", CreatedBy: "kim"})
	if err != nil {
		t.Fatalf("EnsureProject: %v", err)
	}
	if !created || p1.Code != "TOWER_A_1" {
		t.Fatalf("first call: created=%v code=%q", created, p1.Code)
	}
	p2, created, err := s.EnsureProject(ctx, ProjectRef{Name: "Tower A-1"})
	if err != nil {
		t.Fatalf("EnsureProject: %v", err)
	}
	if created || p2.ID != p1.ID {
		t.Fatalf("second call should resolve the same project: created=%v", created)
	}
	if len(fp.byCode) != 1 {
		t.Fatalf("projects=%d", len(fp.byCode))
	}
}

func TestEnsureProject_ReactivatesInactive(t *testing.T) {
	s, fp, _, _ := newFakeStore(t)
	ctx := dbctx.New(context.Background())

	p, _, _ := s.EnsureProject(ctx, ProjectRef{Code: "P1"})
	fp.byCode["P1"].IsActive = false

	p2, _, err := s.EnsureProject(ctx, ProjectRef{Code: "P1"})
	if err != nil {
		t.Fatalf("EnsureProject: %v", err)
	}
	if p2.ID != p.ID || !p2.IsActive {
		t.Fatalf("expected reactivation")
	}
}

func TestEnsureProject_RequiresIdentifier(t *testing.T) {
	s, _, _, _ := newFakeStore(t)
	_, _, err := s.EnsureProject(dbctx.New(context.Background()), ProjectRef{Name: "  "})
	if !failure.IsCode(err, failure.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureRevision_AllocatesSequentially(t *testing.T) {
	s, _, fr, _ := newFakeStore(t)
	ctx := dbctx.New(context.Background())
	pid := uuid.New()

	r1, created, err := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceRevit})
	if err != nil || !created {
		t.Fatalf("first: created=%v err=%v", created, err)
	}
	r2, _, _ := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceRevit})
	other, _, _ := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceNavisworks})

	if r1.RevisionNumber != 1 || r2.RevisionNumber != 2 {
		t.Fatalf("numbers: %d, %d", r1.RevisionNumber, r2.RevisionNumber)
	}
	if other.RevisionNumber != 1 {
		t.Fatalf("numbering is per source type, got %d", other.RevisionNumber)
	}
	if r2.ParentRevisionID == nil || *r2.ParentRevisionID != r1.ID {
		t.Fatalf("expected parent link to previous latest")
	}
	if fr.locks != 3 {
		t.Fatalf("expected allocation lock per call, got %d", fr.locks)
	}
}

func TestEnsureRevision_NumberHintResolvesAndMerges(t *testing.T) {
	s, _, fr, _ := newFakeStore(t)
	ctx := dbctx.New(context.Background())
	pid := uuid.New()
	n := 3

	r1, created, err := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceIFC, Number: &n, TotalObjects: 10})
	if err != nil || !created || r1.RevisionNumber != 3 {
		t.Fatalf("create: %v %v %+v", created, err, r1)
	}
	r2, created, err := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceIFC, Number: &n, TotalObjects: 4, Description: "again"})
	if err != nil || created {
		t.Fatalf("resolve: %v %v", created, err)
	}
	if r2.ID != r1.ID {
		t.Fatalf("expected same revision")
	}
	if r2.TotalObjects != 10 {
		t.Fatalf("counter decreased to %d", r2.TotalObjects)
	}
	if r2.Description != "again" {
		t.Fatalf("description=%q", r2.Description)
	}
	if len(fr.rows) != 1 {
		t.Fatalf("rows=%d", len(fr.rows))
	}
}

func TestEnsureRevision_ModelVersionAlias(t *testing.T) {
	s, _, _, fv := newFakeStore(t)
	ctx := dbctx.New(context.Background())
	pid := uuid.New()

	r1, _, err := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceRevit, ModelVersion: "v2024.10.01"})
	if err != nil {
		t.Fatalf("EnsureRevision: %v", err)
	}
	if r1.VersionTag != "v2024.10.01" {
		t.Fatalf("version tag=%q", r1.VersionTag)
	}
	r2, created, err := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceRevit, ModelVersion: "v2024.10.01"})
	if err != nil || created || r2.ID != r1.ID {
		t.Fatalf("alias should resolve the same revision: created=%v err=%v", created, err)
	}
	r3, _, _ := s.EnsureRevision(ctx, RevisionSpec{ProjectID: pid, SourceType: types.SourceRevit, ModelVersion: "v2024.11.01"})
	if r3.RevisionNumber != 2 {
		t.Fatalf("new model version should allocate next number, got %d", r3.RevisionNumber)
	}
	if len(fv.rows) != 2 {
		t.Fatalf("aliases=%d", len(fv.rows))
	}
}

func TestEnsureRevision_Validation(t *testing.T) {
	s, _, _, _ := newFakeStore(t)
	ctx := dbctx.New(context.Background())
	zero := 0
	cases := []RevisionSpec{
		{SourceType: types.SourceRevit},
		{ProjectID: uuid.New(), SourceType: "kind-z"},
		{ProjectID: uuid.New(), SourceType: types.SourceRevit, Number: &zero},
	}
	for i, spec := range cases {
		if _, _, err := s.EnsureRevision(ctx, spec); !failure.IsCode(err, failure.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestGetProject_NotFound(t *testing.T) {
	s, _, _, _ := newFakeStore(t)
	_, err := s.GetProject(context.Background(), "NOPE")
	if !failure.IsCode(err, failure.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestDeleteProject_SoftByDefault(t *testing.T) {
	s, fp, _, _ := newFakeStore(t)
	ctx := context.Background()
	if _, _, err := s.EnsureProject(dbctx.New(ctx), ProjectRef{Code: "P1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProject(ctx, "P1", false); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if p := fp.byCode["P1"]; p == nil || p.IsActive {
		t.Fatalf("expected inactive project to remain")
	}
	if err := s.DeleteProject(ctx, "P1", true); err != nil {
		t.Fatalf("DeleteProject hard: %v", err)
	}
	if _, ok := fp.byCode["P1"]; ok {
		t.Fatalf("expected project removed")
	}
}

func TestRevisionQueries(t *testing.T) {
	s, _, _, _ := newFakeStore(t)
	ctx := context.Background()
	p, _, err := s.EnsureProject(dbctx.New(ctx), ProjectRef{Code: "P1"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := s.EnsureRevision(dbctx.New(ctx), RevisionSpec{ProjectID: p.ID, SourceType: types.SourceIFC}); err != nil {
			t.Fatalf("EnsureRevision: %v", err)
		}
	}

	revs, err := s.ListRevisions(ctx, "P1", types.SourceIFC, 2)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revs) != 2 || revs[0].RevisionNumber != 3 {
		t.Fatalf("revs=%d first=%d", len(revs), revs[0].RevisionNumber)
	}
	if _, err := s.ListRevisions(ctx, "P1", "dwg", 0); !failure.IsCode(err, failure.CodeValidation) {
		t.Fatalf("expected validation error for bad source, got %v", err)
	}

	latest, err := s.LatestRevision(ctx, "P1", types.SourceIFC)
	if err != nil || latest.RevisionNumber != 3 {
		t.Fatalf("LatestRevision: %v %+v", err, latest)
	}
	if _, err := s.LatestRevision(ctx, "P1", types.SourceRevit); !failure.IsCode(err, failure.CodeNotFound) {
		t.Fatalf("expected not_found without revit revisions, got %v", err)
	}

	if err := s.DeleteRevision(ctx, "P1", 3, types.SourceIFC); err != nil {
		t.Fatalf("DeleteRevision: %v", err)
	}
	if latest, _ = s.LatestRevision(ctx, "P1", types.SourceIFC); latest.RevisionNumber != 2 {
		t.Fatalf("latest after delete=%d", latest.RevisionNumber)
	}
	if err := s.DeleteRevision(ctx, "P1", 3, types.SourceIFC); !failure.IsCode(err, failure.CodeNotFound) {
		t.Fatalf("expected not_found deleting twice, got %v", err)
	}
}

func TestGetRevision(t *testing.T) {
	s, _, _, _ := newFakeStore(t)
	ctx := context.Background()
	p, _, err := s.EnsureProject(dbctx.New(ctx), ProjectRef{Code: "P1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.EnsureRevision(dbctx.New(ctx), RevisionSpec{ProjectID: p.ID, SourceType: types.SourceRevit}); err != nil {
		t.Fatal(err)
	}

	rev, err := s.GetRevision(ctx, "P1", 1, "")
	if err != nil || rev.SourceType != types.SourceRevit || rev.RevisionNumber != 1 {
		t.Fatalf("GetRevision defaults to revit: %v %+v", err, rev)
	}
	tests := []struct {
		name   string
		code   string
		number int
		source string
		want   failure.Code
	}{
		{"other source", "P1", 1, types.SourceIFC, failure.CodeNotFound},
		{"missing number", "P1", 2, types.SourceRevit, failure.CodeNotFound},
		{"missing project", "P9", 1, types.SourceRevit, failure.CodeNotFound},
		{"zero number", "P1", 0, types.SourceRevit, failure.CodeValidation},
		{"bad source", "P1", 1, "dwg", failure.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.GetRevision(ctx, tt.code, tt.number, tt.source); !failure.IsCode(err, tt.want) {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestListObjects(t *testing.T) {
	s, _, _, _, fo := newFakeStoreWithObjects(t)
	ctx := context.Background()
	p, _, err := s.EnsureProject(dbctx.New(ctx), ProjectRef{Code: "P1"})
	if err != nil {
		t.Fatal(err)
	}
	rev, _, err := s.EnsureRevision(dbctx.New(ctx), RevisionSpec{ProjectID: p.ID, SourceType: types.SourceNavisworks})
	if err != nil {
		t.Fatal(err)
	}
	fo.seed(rev.ID, types.SourceNavisworks, "root", "", 0, "Site")
	fo.seed(rev.ID, types.SourceNavisworks, "l1", "root", 1, "Level 1")
	fo.seed(rev.ID, types.SourceNavisworks, "l2", "root", 1, "Level 2")
	fo.seed(rev.ID, types.SourceNavisworks, "w1", "l1", 2, "Wall")
	fo.seed(uuid.New(), types.SourceNavisworks, "other", "", 0, "Elsewhere")

	page, err := s.ListObjects(ctx, "P1", 1, ObjectListQuery{SourceType: types.SourceNavisworks, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if page.Total != 4 || len(page.Objects) != 2 || page.Objects[0].UniqueKey != "l2" || page.Revision.ID != rev.ID {
		t.Fatalf("page=%+v", page)
	}

	parent := "root"
	page, err = s.ListObjects(ctx, "P1", 1, ObjectListQuery{SourceType: types.SourceNavisworks, ParentKey: &parent})
	if err != nil {
		t.Fatalf("ListObjects children: %v", err)
	}
	if page.Total != 2 || page.Limit != DefaultObjectLimit {
		t.Fatalf("children page=%+v", page)
	}

	page, err = s.ListObjects(ctx, "P1", 1, ObjectListQuery{SourceType: types.SourceNavisworks, Limit: MaxObjectLimit + 1})
	if err != nil || page.Limit != MaxObjectLimit {
		t.Fatalf("limit should be capped: %v %+v", err, page)
	}
	if _, err := s.ListObjects(ctx, "P1", 1, ObjectListQuery{SourceType: types.SourceNavisworks, Offset: -1}); !failure.IsCode(err, failure.CodeValidation) {
		t.Fatalf("expected validation error for negative offset, got %v", err)
	}
	if _, err := s.ListObjects(ctx, "P1", 1, ObjectListQuery{}); !failure.IsCode(err, failure.CodeNotFound) {
		t.Fatalf("revit revision 1 does not exist, got %v", err)
	}

	depth := 1
	tree, err := s.HierarchyTree(ctx, "P1", 0, &depth)
	if err != nil {
		t.Fatalf("HierarchyTree: %v", err)
	}
	if tree.Revision.ID != rev.ID || tree.MaxLevel != 1 || len(tree.Nodes) != 3 {
		t.Fatalf("tree=%+v", tree)
	}
	if tree.Nodes[0].UniqueKey != "root" || tree.Nodes[1].UniqueKey != "l1" || tree.Nodes[2].UniqueKey != "l2" {
		t.Fatalf("tree order: %s %s %s", tree.Nodes[0].UniqueKey, tree.Nodes[1].UniqueKey, tree.Nodes[2].UniqueKey)
	}
	if tree, err = s.HierarchyTree(ctx, "P1", 1, nil); err != nil || tree.MaxLevel != DefaultHierarchyDepth || len(tree.Nodes) != 4 {
		t.Fatalf("default depth: %v %+v", err, tree)
	}
	negative := -1
	if _, err := s.HierarchyTree(ctx, "P1", 0, &negative); !failure.IsCode(err, failure.CodeValidation) {
		t.Fatalf("expected validation error for negative depth, got %v", err)
	}
	if _, err := s.HierarchyTree(ctx, "P1", 2, nil); !failure.IsCode(err, failure.CodeNotFound) {
		t.Fatalf("expected not_found for missing revision, got %v", err)
	}
}

// ---- fakes ----

func newFakeStore(t *testing.T) (Store, *fakeProjects, *fakeRevisions, *fakeVersions) {
	t.Helper()
	s, fp, fr, fv, _ := newFakeStoreWithObjects(t)
	return s, fp, fr, fv
}

func newFakeStoreWithObjects(t *testing.T) (Store, *fakeProjects, *fakeRevisions, *fakeVersions, *fakeObjects) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	fp := &fakeProjects{byCode: map[string]*types.Project{}}
	fr := &fakeRevisions{rows: map[uuid.UUID]*types.Revision{}}
	fv := &fakeVersions{rows: map[string]*types.RevisionVersion{}}
	fo := &fakeObjects{}
	return NewStore(log, fakeTx{}, txn.DefaultRetryPolicy(), fp, fr, fv, fo), fp, fr, fv, fo
}

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type fakeProjects struct {
	mu     sync.Mutex
	byCode map[string]*types.Project
}

func (f *fakeProjects) GetByCode(_ dbctx.Context, code string) (*types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byCode[code]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProjects) GetByName(_ dbctx.Context, name string) (*types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byCode {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byCode {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) InsertIfAbsent(_ dbctx.Context, p *types.Project) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCode[p.Code]; ok {
		return false, nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.byCode[p.Code] = &cp
	return true, nil
}

func (f *fakeProjects) Touch(_ dbctx.Context, id uuid.UUID, name, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byCode {
		if p.ID == id {
			p.IsActive = true
			if p.SourceFileName == "" {
				p.SourceFileName = name
			}
			if p.SourceFilePath == "" {
				p.SourceFilePath = path
			}
		}
	}
	return nil
}

func (f *fakeProjects) SetActive(_ dbctx.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byCode {
		if p.ID == id {
			p.IsActive = active
		}
	}
	return nil
}

func (f *fakeProjects) HardDelete(_ dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, p := range f.byCode {
		if p.ID == id {
			delete(f.byCode, code)
		}
	}
	return nil
}

type fakeRevisions struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*types.Revision
	locks int
}

func (f *fakeRevisions) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRevisions) GetByNumber(_ dbctx.Context, pid uuid.UUID, src string, n int) (*types.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ProjectID == pid && r.SourceType == src && r.RevisionNumber == n {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRevisions) Latest(dbc dbctx.Context, pid uuid.UUID, src string) (*types.Revision, error) {
	list, _ := f.List(dbc, pid, src, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (f *fakeRevisions) List(_ dbctx.Context, pid uuid.UUID, src string, limit int) ([]*types.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Revision
	for _, r := range f.rows {
		if r.ProjectID == pid && (src == "" || r.SourceType == src) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNumber > out[j].RevisionNumber })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRevisions) LockAllocation(dbctx.Context, uuid.UUID, string) error {
	f.mu.Lock()
	f.locks++
	f.mu.Unlock()
	return nil
}

func (f *fakeRevisions) MaxNumber(_ dbctx.Context, pid uuid.UUID, src string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.ProjectID == pid && r.SourceType == src && r.RevisionNumber > n {
			n = r.RevisionNumber
		}
	}
	return n, nil
}

func (f *fakeRevisions) Create(_ dbctx.Context, rev *types.Revision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	cp := *rev
	f.rows[rev.ID] = &cp
	return nil
}

func (f *fakeRevisions) InsertIfAbsent(dbc dbctx.Context, rev *types.Revision) (bool, error) {
	if r, _ := f.GetByNumber(dbc, rev.ProjectID, rev.SourceType, rev.RevisionNumber); r != nil {
		return false, nil
	}
	return true, f.Create(dbc, rev)
}

func (f *fakeRevisions) Merge(_ dbctx.Context, id uuid.UUID, p projects.RevisionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.rows[id]
	if r == nil {
		return nil
	}
	if p.VersionTag != "" {
		r.VersionTag = p.VersionTag
	}
	if p.Description != "" {
		r.Description = p.Description
	}
	if p.SourceFilePath != "" {
		r.SourceFilePath = p.SourceFilePath
	}
	if p.TotalObjects > r.TotalObjects {
		r.TotalObjects = p.TotalObjects
	}
	return nil
}

func (f *fakeRevisions) RefreshCounters(dbctx.Context, uuid.UUID) error { return nil }

func (f *fakeRevisions) Delete(_ dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeVersions struct {
	mu   sync.Mutex
	rows map[string]*types.RevisionVersion
}

func (f *fakeVersions) Get(_ dbctx.Context, mv string) (*types.RevisionVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.rows[mv]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeVersions) Upsert(_ dbctx.Context, v *types.RevisionVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *v
	f.rows[v.ModelVersion] = &cp
	return nil
}

func (f *fakeVersions) ListByRevision(_ dbctx.Context, id uuid.UUID) ([]*types.RevisionVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.RevisionVersion
	for _, v := range f.rows {
		if v.RevisionID == id {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeObjects struct {
	rows []*types.UnifiedObject
}

func (f *fakeObjects) seed(rev uuid.UUID, src, key, parent string, level int, name string) {
	o := &types.UnifiedObject{ID: uuid.New(), RevisionID: rev, SourceType: src, UniqueKey: key, Level: &level, DisplayName: name}
	if parent != "" {
		o.ParentKey = &parent
	}
	f.rows = append(f.rows, o)
}

func (f *fakeObjects) UpsertBatch(dbctx.Context, []*types.UnifiedObject, int) (int64, error) {
	return 0, nil
}

func (f *fakeObjects) RecomputeSpatialPaths(dbctx.Context, uuid.UUID, string) (int64, error) {
	return 0, nil
}

func (f *fakeObjects) match(q projects.ObjectQuery) []*types.UnifiedObject {
	var out []*types.UnifiedObject
	for _, o := range f.rows {
		switch {
		case o.RevisionID != q.RevisionID,
			q.SourceType != "" && o.SourceType != q.SourceType,
			q.Category != "" && o.Category != q.Category,
			q.MaxLevel != nil && (o.Level == nil || *o.Level > *q.MaxLevel):
			continue
		}
		if q.ParentKey != nil {
			parent := ""
			if o.ParentKey != nil {
				parent = *o.ParentKey
			}
			if parent != *q.ParentKey {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

func (f *fakeObjects) Find(_ dbctx.Context, q projects.ObjectQuery) ([]*types.UnifiedObject, error) {
	out := f.match(q)
	sort.Slice(out, func(i, j int) bool {
		if q.ByLevel && *out[i].Level != *out[j].Level {
			return *out[i].Level < *out[j].Level
		}
		if q.ByLevel && out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].UniqueKey < out[j].UniqueKey
	})
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeObjects) Count(_ dbctx.Context, q projects.ObjectQuery) (int64, error) {
	return int64(len(f.match(q))), nil
}
