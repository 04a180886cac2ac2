package hierarchy

import (
	"context"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	"github.com/yungbote/dxplatform-backend/internal/detection"
	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/ingestion"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

type UploadRequest struct {
	ProjectCode    string
	RevisionNumber int
	SourceType     string
	CreatedBy      string
	Body           io.Reader
}

type UploadResult struct {
	*ingestion.Result
	AttributesWritten int64                `json:"attributes_written"`
	PathsUpdated      int64                `json:"paths_updated"`
	Failures          []RowFailure         `json:"failures,omitempty"`
	Detected          *detection.Candidate `json:"detected,omitempty"`
}

type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

type service struct {
	log        *logger.Logger
	tx         txn.TxRunner
	retry      txn.RetryPolicy
	projects   projects.ProjectRepo
	attributes projects.HierarchyAttributeRepo
	objects    projects.UnifiedObjectRepo
	pipeline   ingestion.Pipeline
	detector   detection.Engine
	metrics    *observability.Metrics
	batchSize  int
}

func NewService(
	baseLog *logger.Logger,
	tx txn.TxRunner,
	retry txn.RetryPolicy,
	projectRepo projects.ProjectRepo,
	attributeRepo projects.HierarchyAttributeRepo,
	objectRepo projects.UnifiedObjectRepo,
	pipeline ingestion.Pipeline,
	detector detection.Engine,
	metrics *observability.Metrics,
	batchSize int,
) Service {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &service{
		log:        baseLog.With("service", "HierarchyService"),
		tx:         tx,
		retry:      retry,
		projects:   projectRepo,
		attributes: attributeRepo,
		objects:    objectRepo,
		pipeline:   pipeline,
		detector:   detector,
		metrics:    metrics,
		batchSize:  batchSize,
	}
}

func (s *service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	const op = "hierarchy.Upload"
	source := strings.ToLower(strings.TrimSpace(req.SourceType))
	if source == "" {
		source = types.SourceNavisworks
	}
	if !types.ValidSourceType(source) {
		return nil, failure.Validation(op, "invalid source_type %q", req.SourceType)
	}
	if req.RevisionNumber < 1 {
		return nil, failure.Validation(op, "revision_number must be >= 1, got %d", req.RevisionNumber)
	}
	if req.Body == nil {
		return nil, failure.Validation(op, "csv body is required")
	}

	rows, err := ReadRows(req.Body)
	if err != nil {
		return nil, err
	}
	fold := Reconcile(rows)
	s.metrics.HierarchyRows("read", len(rows))
	s.metrics.HierarchyRows("failed", len(fold.Failures))
	if len(fold.Objects) == 0 {
		return nil, failure.Validation(op, "csv contains no usable objects")
	}

	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("hierarchy.project", req.ProjectCode),
		attribute.Int("hierarchy.rows", len(rows)),
		attribute.Int("hierarchy.objects", len(fold.Objects)),
	)
	out, err := s.upload(ctx, req, source, fold)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.log.Info("Hierarchy uploaded",
		"project_code", out.ProjectCode,
		"revision_number", out.RevisionNumber,
		"objects", out.Written,
		"attributes", out.AttributesWritten,
		"failures", len(out.Failures),
		"detected", out.Detected != nil,
	)
	return out, nil
}

func (s *service) upload(ctx context.Context, req UploadRequest, source string, fold Fold) (*UploadResult, error) {
	const op = "hierarchy.Upload"
	project, detected, err := s.resolveProject(ctx, req.ProjectCode, fold)
	if err != nil {
		return nil, err
	}

	number := req.RevisionNumber
	cmd := ingestion.Command{
		Path:       ingestion.PathHierarchy,
		SourceType: source,
		Project: revisions.ProjectRef{
			Code:           project.Code,
			Name:           project.Name,
			CreatedBy:      req.CreatedBy,
			SourceFilePath: fold.SourceHint,
		},
		Revision: revisions.RevisionSpec{
			Number:         &number,
			SourceFilePath: fold.SourceHint,
			CreatedBy:      req.CreatedBy,
		},
		Objects: make([]ingestion.ObjectInput, 0, len(fold.Objects)),
	}
	for _, o := range fold.Objects {
		level := o.Level
		cmd.Objects = append(cmd.Objects, ingestion.ObjectInput{
			UniqueKey:   o.Key,
			SourceType:  source,
			CanonicalID: o.CanonicalID,
			ElementID:   o.ElementID,
			Category:    o.Category,
			DisplayName: o.DisplayName,
			ParentKey:   o.ParentKey,
			Level:       &level,
			Properties:  o.Properties,
		})
	}

	out := &UploadResult{Failures: fold.Failures, Detected: detected}
	err = txn.Retry(ctx, s.retry, op, func() error {
		return s.tx.InTx(ctx, func(dbc dbctx.Context) error {
			res, err := s.pipeline.IngestTx(dbc, cmd)
			if err != nil {
				return err
			}
			attrs := toAttributeRows(res, fold)
			n, err := s.attributes.UpsertBatch(dbc, attrs, s.batchSize)
			if err != nil {
				return err
			}
			paths, err := s.objects.RecomputeSpatialPaths(dbc, res.RevisionID, source)
			if err != nil {
				return err
			}
			out.Result = res
			out.AttributesWritten = n
			out.PathsUpdated = paths
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.HierarchyRows("written", len(fold.Attributes))
	return out, nil
}

// resolveProject looks the project up by code, then by name, then by detection over the
// uploaded object keys.
func (s *service) resolveProject(ctx context.Context, ref string, fold Fold) (*types.Project, *detection.Candidate, error) {
	const op = "hierarchy.resolveProject"
	dbc := dbctx.New(ctx)
	ref = strings.TrimSpace(ref)
	if ref != "" {
		p, err := s.projects.GetByCode(dbc, ref)
		if err != nil {
			return nil, nil, txn.MapError(op, err)
		}
		if p == nil {
			if p, err = s.projects.GetByName(dbc, ref); err != nil {
				return nil, nil, txn.MapError(op, err)
			}
		}
		if p != nil {
			return p, nil, nil
		}
	}

	if s.detector != nil {
		keys := fold.Keys()
		if len(keys) > detection.MaxObjectIDs {
			keys = keys[:detection.MaxObjectIDs]
		}
		if len(keys) > 0 {
			threshold, limit := 0.0, 1
			resp, err := s.detector.Detect(ctx, detection.Request{ObjectIDs: keys, MinConfidence: &threshold, MaxCandidates: &limit})
			if err != nil {
				return nil, nil, err
			}
			if top, ok := resp.Top(); ok {
				p, err := s.projects.GetByID(dbc, top.ProjectID)
				if err != nil {
					return nil, nil, txn.MapError(op, err)
				}
				if p != nil {
					s.log.Info("Hierarchy project resolved by detection", "requested", ref, "code", p.Code, "match_count", top.MatchCount)
					return p, &top, nil
				}
			}
		}
	}
	return nil, nil, failure.NotFound(op, "project %q not found", ref)
}

func toAttributeRows(res *ingestion.Result, fold Fold) []*types.HierarchyAttribute {
	var hint *string
	if fold.SourceHint != "" {
		h := fold.SourceHint
		hint = &h
	}
	out := make([]*types.HierarchyAttribute, 0, len(fold.Attributes))
	for _, a := range fold.Attributes {
		row := &types.HierarchyAttribute{
			RevisionID:     res.RevisionID,
			ObjectKey:      a.ObjectKey,
			PropertyName:   a.PropertyName,
			Level:          a.Level,
			DisplayName:    a.DisplayName,
			Category:       a.Category,
			PropertyValue:  a.PropertyValue,
			SourceFilePath: hint,
		}
		if a.ParentKey != "" {
			pk := a.ParentKey
			row.ParentKey = &pk
		}
		if a.CanonicalID != "" {
			id := a.CanonicalID
			row.CanonicalID = &id
		}
		out = append(out, row)
	}
	return out
}
