package revisions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/identity"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

// ProjectRef identifies a project by code, or by name when the code is empty.
type ProjectRef struct {
	Code           string
	Name           string
	CreatedBy      string
	SourceFileName string
	SourceFilePath string
}

// RevisionSpec resolves a revision. ModelVersion takes precedence over Number; with
// neither, the next number for (project, source type) is allocated.
type RevisionSpec struct {
	ProjectID      uuid.UUID
	SourceType     string
	Number         *int
	ModelVersion   string
	VersionTag     string
	Description    string
	SourceFilePath string
	CreatedBy      string
	TotalObjects   int
	Metadata       datatypes.JSON
	ExtractedAt    *time.Time
}

type Store interface {
	EnsureProject(dbc dbctx.Context, ref ProjectRef) (*types.Project, bool, error)
	EnsureRevision(dbc dbctx.Context, spec RevisionSpec) (*types.Revision, bool, error)
	RefreshCounters(dbc dbctx.Context, revisionID uuid.UUID) error

	GetProject(ctx context.Context, code string) (*types.Project, error)
	ListRevisions(ctx context.Context, code, sourceType string, limit int) ([]*types.Revision, error)
	LatestRevision(ctx context.Context, code, sourceType string) (*types.Revision, error)
	DeleteProject(ctx context.Context, code string, hard bool) error
	DeleteRevision(ctx context.Context, code string, number int, sourceType string) error

	GetRevision(ctx context.Context, code string, number int, sourceType string) (*types.Revision, error)
	ListObjects(ctx context.Context, code string, number int, q ObjectListQuery) (*ObjectPage, error)
	HierarchyTree(ctx context.Context, code string, number int, maxLevel *int) (*HierarchyTree, error)
}

const (
	DefaultObjectLimit    = 100
	MaxObjectLimit        = 1000
	DefaultHierarchyDepth = 10
)

// ObjectListQuery pages through one revision's objects. SourceType defaults to revit.
type ObjectListQuery struct {
	SourceType string
	Category   string
	ParentKey  *string
	Limit      int
	Offset     int
}

type ObjectPage struct {
	Revision *types.Revision        `json:"revision"`
	Objects  []*types.UnifiedObject `json:"objects"`
	Total    int64                  `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// HierarchyTree is the navisworks tree of one revision, flattened in level order.
type HierarchyTree struct {
	Revision *types.Revision        `json:"revision"`
	MaxLevel int                    `json:"max_level"`
	Nodes    []*types.UnifiedObject `json:"nodes"`
}

type store struct {
	log      *logger.Logger
	tx       txn.TxRunner
	retry    txn.RetryPolicy
	projects projects.ProjectRepo
	revs     projects.RevisionRepo
	versions projects.RevisionVersionRepo
	objects  projects.UnifiedObjectRepo
}

func NewStore(
	baseLog *logger.Logger,
	tx txn.TxRunner,
	retry txn.RetryPolicy,
	projectRepo projects.ProjectRepo,
	revisionRepo projects.RevisionRepo,
	versionRepo projects.RevisionVersionRepo,
	objectRepo projects.UnifiedObjectRepo,
) Store {
	return &store{
		log:      baseLog.With("service", "RevisionStore"),
		tx:       tx,
		retry:    retry,
		projects: projectRepo,
		revs:     revisionRepo,
		versions: versionRepo,
		objects:  objectRepo,
	}
}

// run executes fn in the caller's transaction, or in a fresh retried one.
func (s *store) run(dbc dbctx.Context, op string, fn func(dbc dbctx.Context) error) error {
	if dbc.InTx() {
		return txn.MapError(op, fn(dbc))
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return txn.Retry(ctx, s.retry, op, func() error {
		return txn.Within(dbc, s.tx, fn)
	})
}

func (s *store) EnsureProject(dbc dbctx.Context, ref ProjectRef) (*types.Project, bool, error) {
	const op = "revisions.EnsureProject"
	code := strings.TrimSpace(ref.Code)
	name := strings.TrimSpace(ref.Name)
	if code == "" && name == "" {
		return nil, false, failure.Validation(op, "project code or name is required")
	}
	if code == "" {
		code = identity.DeriveProjectCode(name)
	}
	if name == "" {
		name = code
	}

	var (
		out     *types.Project
		created bool
	)
	err := s.run(dbc, op, func(dbc dbctx.Context) error {
		created = false
		existing, err := s.projects.GetByCode(dbc, code)
		if err != nil {
			return err
		}
		if existing == nil {
			p := &types.Project{
				Code:           code,
				Name:           name,
				CreatedBy:      ref.CreatedBy,
				SourceFileName: ref.SourceFileName,
				SourceFilePath: ref.SourceFilePath,
				Metadata:       datatypes.JSON([]byte("{}")),
				IsActive:       true,
			}
			inserted, err := s.projects.InsertIfAbsent(dbc, p)
			if err != nil {
				return err
			}
			if inserted {
				created = true
				out = p
				return nil
			}
		} else if err := s.projects.Touch(dbc, existing.ID, ref.SourceFileName, ref.SourceFilePath); err != nil {
			return err
		}
		out, err = s.projects.GetByCode(dbc, code)
		if err != nil {
			return err
		}
		if out == nil {
			return failure.New(failure.CodeStorage, op, "project vanished after insert", nil)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("Project created", "code", out.Code, "project_id", out.ID)
	}
	return out, created, nil
}

func (s *store) EnsureRevision(dbc dbctx.Context, spec RevisionSpec) (*types.Revision, bool, error) {
	const op = "revisions.EnsureRevision"
	if spec.ProjectID == uuid.Nil {
		return nil, false, failure.Validation(op, "project id is required")
	}
	if !types.ValidSourceType(spec.SourceType) {
		return nil, false, failure.Validation(op, "invalid source_type %q", spec.SourceType)
	}
	if spec.Number != nil && *spec.Number < 1 {
		return nil, false, failure.Validation(op, "revision_number must be >= 1, got %d", *spec.Number)
	}
	spec.ModelVersion = strings.TrimSpace(spec.ModelVersion)

	var (
		out     *types.Revision
		created bool
	)
	err := s.run(dbc, op, func(dbc dbctx.Context) error {
		var err error
		out, created, err = s.ensureRevision(dbc, spec)
		if err != nil {
			return err
		}
		if spec.ModelVersion == "" {
			return nil
		}
		return s.versions.Upsert(dbc, &types.RevisionVersion{
			ModelVersion:   spec.ModelVersion,
			RevisionID:     out.ID,
			SourceType:     spec.SourceType,
			SourceFilePath: spec.SourceFilePath,
			ExtractedAt:    spec.ExtractedAt,
		})
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("Revision created",
			"project_id", out.ProjectID,
			"source_type", out.SourceType,
			"revision_number", out.RevisionNumber,
			"model_version", spec.ModelVersion,
		)
	}
	return out, created, nil
}

func (s *store) ensureRevision(dbc dbctx.Context, spec RevisionSpec) (*types.Revision, bool, error) {
	if spec.ModelVersion != "" {
		alias, err := s.versions.Get(dbc, spec.ModelVersion)
		if err != nil {
			return nil, false, err
		}
		if alias != nil {
			rev, err := s.revs.GetByID(dbc, alias.RevisionID)
			if err != nil {
				return nil, false, err
			}
			if rev != nil && rev.ProjectID == spec.ProjectID && rev.SourceType == spec.SourceType {
				return s.merge(dbc, rev, spec)
			}
		}
	}

	// Both lookup paths serialize on the same key so a hinted insert cannot race an allocation.
	if err := s.revs.LockAllocation(dbc, spec.ProjectID, spec.SourceType); err != nil {
		return nil, false, err
	}

	if spec.Number != nil {
		rev, err := s.revs.GetByNumber(dbc, spec.ProjectID, spec.SourceType, *spec.Number)
		if err != nil {
			return nil, false, err
		}
		if rev != nil {
			return s.merge(dbc, rev, spec)
		}
		prev, err := s.revs.Latest(dbc, spec.ProjectID, spec.SourceType)
		if err != nil {
			return nil, false, err
		}
		nr := newRevision(spec, *spec.Number, prev)
		inserted, err := s.revs.InsertIfAbsent(dbc, nr)
		if err != nil {
			return nil, false, err
		}
		if !inserted {
			rev, err := s.revs.GetByNumber(dbc, spec.ProjectID, spec.SourceType, *spec.Number)
			if err != nil {
				return nil, false, err
			}
			if rev == nil {
				return nil, false, failure.New(failure.CodeStorage, "revisions.ensureRevision", "revision vanished after insert", nil)
			}
			return s.merge(dbc, rev, spec)
		}
		return nr, true, nil
	}

	current, err := s.revs.MaxNumber(dbc, spec.ProjectID, spec.SourceType)
	if err != nil {
		return nil, false, err
	}
	prev, err := s.revs.Latest(dbc, spec.ProjectID, spec.SourceType)
	if err != nil {
		return nil, false, err
	}
	nr := newRevision(spec, current+1, prev)
	if err := s.revs.Create(dbc, nr); err != nil {
		return nil, false, err
	}
	return nr, true, nil
}

func newRevision(spec RevisionSpec, number int, prev *types.Revision) *types.Revision {
	r := &types.Revision{
		ProjectID:      spec.ProjectID,
		RevisionNumber: number,
		SourceType:     spec.SourceType,
		VersionTag:     spec.VersionTag,
		Description:    spec.Description,
		SourceFilePath: spec.SourceFilePath,
		TotalObjects:   spec.TotalObjects,
		Metadata:       spec.Metadata,
		CreatedBy:      spec.CreatedBy,
	}
	if r.VersionTag == "" {
		r.VersionTag = spec.ModelVersion
	}
	if prev != nil && prev.RevisionNumber < number {
		id := prev.ID
		r.ParentRevisionID = &id
	}
	return r
}

func (s *store) merge(dbc dbctx.Context, rev *types.Revision, spec RevisionSpec) (*types.Revision, bool, error) {
	err := s.revs.Merge(dbc, rev.ID, projects.RevisionPatch{
		VersionTag:     spec.VersionTag,
		Description:    spec.Description,
		SourceFilePath: spec.SourceFilePath,
		TotalObjects:   spec.TotalObjects,
		Metadata:       spec.Metadata,
	})
	if err != nil {
		return nil, false, err
	}
	fresh, err := s.revs.GetByID(dbc, rev.ID)
	if err != nil {
		return nil, false, err
	}
	if fresh == nil {
		fresh = rev
	}
	return fresh, false, nil
}

func (s *store) RefreshCounters(dbc dbctx.Context, revisionID uuid.UUID) error {
	return s.run(dbc, "revisions.RefreshCounters", func(dbc dbctx.Context) error {
		return s.revs.RefreshCounters(dbc, revisionID)
	})
}

func (s *store) GetProject(ctx context.Context, code string) (*types.Project, error) {
	const op = "revisions.GetProject"
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, failure.Validation(op, "project code is required")
	}
	p, err := s.projects.GetByCode(dbctx.New(ctx), code)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	if p == nil {
		return nil, failure.NotFound(op, "project %q not found", code)
	}
	return p, nil
}

func (s *store) ListRevisions(ctx context.Context, code, sourceType string, limit int) ([]*types.Revision, error) {
	const op = "revisions.ListRevisions"
	if sourceType != "" && !types.ValidSourceType(sourceType) {
		return nil, failure.Validation(op, "invalid source_type %q", sourceType)
	}
	p, err := s.GetProject(ctx, code)
	if err != nil {
		return nil, err
	}
	out, err := s.revs.List(dbctx.New(ctx), p.ID, sourceType, limit)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	return out, nil
}

func (s *store) LatestRevision(ctx context.Context, code, sourceType string) (*types.Revision, error) {
	const op = "revisions.LatestRevision"
	if !types.ValidSourceType(sourceType) {
		return nil, failure.Validation(op, "invalid source_type %q", sourceType)
	}
	p, err := s.GetProject(ctx, code)
	if err != nil {
		return nil, err
	}
	rev, err := s.revs.Latest(dbctx.New(ctx), p.ID, sourceType)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	if rev == nil {
		return nil, failure.NotFound(op, "project %q has no %s revision", code, sourceType)
	}
	return rev, nil
}

// DeleteProject deactivates the project, or removes it with everything beneath it when hard.
func (s *store) DeleteProject(ctx context.Context, code string, hard bool) error {
	const op = "revisions.DeleteProject"
	p, err := s.GetProject(ctx, code)
	if err != nil {
		return err
	}
	err = s.run(dbctx.New(ctx), op, func(dbc dbctx.Context) error {
		if hard {
			return s.projects.HardDelete(dbc, p.ID)
		}
		return s.projects.SetActive(dbc, p.ID, false)
	})
	if err != nil {
		return err
	}
	s.log.Info("Project deleted", "code", p.Code, "hard", hard)
	return nil
}

func (s *store) DeleteRevision(ctx context.Context, code string, number int, sourceType string) error {
	const op = "revisions.DeleteRevision"
	if !types.ValidSourceType(sourceType) {
		return failure.Validation(op, "invalid source_type %q", sourceType)
	}
	p, err := s.GetProject(ctx, code)
	if err != nil {
		return err
	}
	return s.run(dbctx.New(ctx), op, func(dbc dbctx.Context) error {
		rev, err := s.revs.GetByNumber(dbc, p.ID, sourceType, number)
		if err != nil {
			return err
		}
		if rev == nil {
			return failure.NotFound(op, "revision %d (%s) of %q not found", number, sourceType, code)
		}
		return s.revs.Delete(dbc, rev.ID)
	})
}

// GetRevision returns one revision by number. An empty source type means revit.
func (s *store) GetRevision(ctx context.Context, code string, number int, sourceType string) (*types.Revision, error) {
	_, rev, err := s.revision(ctx, "revisions.GetRevision", code, number, sourceType)
	return rev, err
}

func (s *store) revision(ctx context.Context, op, code string, number int, sourceType string) (*types.Project, *types.Revision, error) {
	if sourceType == "" {
		sourceType = types.SourceRevit
	}
	if !types.ValidSourceType(sourceType) {
		return nil, nil, failure.Validation(op, "invalid source_type %q", sourceType)
	}
	if number < 1 {
		return nil, nil, failure.Validation(op, "revision_number must be >= 1, got %d", number)
	}
	p, err := s.GetProject(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	rev, err := s.revs.GetByNumber(dbctx.New(ctx), p.ID, sourceType, number)
	if err != nil {
		return nil, nil, txn.MapError(op, err)
	}
	if rev == nil {
		return nil, nil, failure.NotFound(op, "revision %d (%s) of %q not found", number, sourceType, code)
	}
	return p, rev, nil
}

// ListObjects pages through a revision's objects ordered by unique_key, optionally narrowed
// to one category or to the children of one parent key.
func (s *store) ListObjects(ctx context.Context, code string, number int, q ObjectListQuery) (*ObjectPage, error) {
	const op = "revisions.ListObjects"
	limit := q.Limit
	switch {
	case limit < 0 || q.Offset < 0:
		return nil, failure.Validation(op, "limit and offset must be >= 0")
	case limit == 0:
		limit = DefaultObjectLimit
	case limit > MaxObjectLimit:
		limit = MaxObjectLimit
	}
	_, rev, err := s.revision(ctx, op, code, number, q.SourceType)
	if err != nil {
		return nil, err
	}

	filter := projects.ObjectQuery{
		RevisionID: rev.ID,
		SourceType: rev.SourceType,
		Category:   strings.TrimSpace(q.Category),
		ParentKey:  q.ParentKey,
	}
	dbc := dbctx.New(ctx)
	total, err := s.objects.Count(dbc, filter)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	filter.Limit, filter.Offset = limit, q.Offset
	objs, err := s.objects.Find(dbc, filter)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	if objs == nil {
		objs = []*types.UnifiedObject{}
	}
	return &ObjectPage{Revision: rev, Objects: objs, Total: total, Limit: limit, Offset: q.Offset}, nil
}

// HierarchyTree returns navisworks objects up to maxLevel in level order. Number 0 selects
// the latest navisworks revision.
func (s *store) HierarchyTree(ctx context.Context, code string, number int, maxLevel *int) (*HierarchyTree, error) {
	const op = "revisions.HierarchyTree"
	depth := DefaultHierarchyDepth
	if maxLevel != nil {
		if *maxLevel < 0 {
			return nil, failure.Validation(op, "max_level must be >= 0, got %d", *maxLevel)
		}
		depth = *maxLevel
	}

	var (
		rev *types.Revision
		err error
	)
	if number == 0 {
		rev, err = s.LatestRevision(ctx, code, types.SourceNavisworks)
	} else {
		_, rev, err = s.revision(ctx, op, code, number, types.SourceNavisworks)
	}
	if err != nil {
		return nil, err
	}

	nodes, err := s.objects.Find(dbctx.New(ctx), projects.ObjectQuery{
		RevisionID: rev.ID,
		SourceType: types.SourceNavisworks,
		MaxLevel:   &depth,
		ByLevel:    true,
	})
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	if nodes == nil {
		nodes = []*types.UnifiedObject{}
	}
	return &HierarchyTree{Revision: rev, MaxLevel: depth, Nodes: nodes}, nil
}
