package ingestion

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	types "github.com/yungbote/dxplatform-backend/internal/domain"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

type Pipeline interface {
	// Ingest writes cmd in one transaction, retrying transient storage failures.
	Ingest(ctx context.Context, cmd Command) (*Result, error)
	// IngestTx writes cmd inside the caller's transaction.
	IngestTx(dbc dbctx.Context, cmd Command) (*Result, error)
}

type Options struct {
	BatchSize int
	Retry     txn.RetryPolicy
}

type pipeline struct {
	log     *logger.Logger
	tx      txn.TxRunner
	store   revisions.Store
	objects projects.UnifiedObjectRepo
	archive projects.LegacyArchiveRepo
	metrics *observability.Metrics
	opts    Options
}

func NewPipeline(
	baseLog *logger.Logger,
	tx txn.TxRunner,
	store revisions.Store,
	objects projects.UnifiedObjectRepo,
	archive projects.LegacyArchiveRepo,
	metrics *observability.Metrics,
	opts Options,
) Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &pipeline{
		log:     baseLog.With("service", "IngestionPipeline"),
		tx:      tx,
		store:   store,
		objects: objects,
		archive: archive,
		metrics: metrics,
		opts:    opts,
	}
}

func (p *pipeline) Ingest(ctx context.Context, cmd Command) (*Result, error) {
	const op = "ingestion.Ingest"
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("ingest.path", cmd.Path),
		attribute.String("ingest.source_type", cmd.SourceType),
		attribute.Int("ingest.objects", len(cmd.Objects)),
	)

	var res *Result
	err := cmd.Validate()
	if err == nil {
		err = txn.Retry(ctx, p.opts.Retry, op, func() error {
			return p.tx.InTx(ctx, func(dbc dbctx.Context) error {
				r, err := p.IngestTx(dbc, cmd)
				if err != nil {
					return err
				}
				res = r
				return nil
			})
		})
	}

	elapsed := time.Since(start)
	p.metrics.ObserveIngest(cmd.Path, err, elapsed)
	observability.EndSpan(span, err)
	if err != nil {
		p.log.Warn("Ingestion failed",
			"path", cmd.Path,
			"project_code", cmd.Project.Code,
			"project_name", cmd.Project.Name,
			"source_type", cmd.SourceType,
			"error", err,
		)
		return nil, err
	}

	res.Elapsed = elapsed
	res.ElapsedMS = elapsed.Milliseconds()
	p.metrics.IngestObjects(res.SourceType, "written", int(res.Written))
	p.metrics.IngestObjects(res.SourceType, "skipped", res.Skipped)
	p.log.Info("Ingestion complete",
		"path", res.Path,
		"project_code", res.ProjectCode,
		"revision_number", res.RevisionNumber,
		"source_type", res.SourceType,
		"attempted", res.Attempted,
		"written", res.Written,
		"skipped", res.Skipped,
		"warnings", len(res.Warnings),
		"elapsed_ms", res.ElapsedMS,
	)
	return res, nil
}

func (p *pipeline) IngestTx(dbc dbctx.Context, cmd Command) (*Result, error) {
	const op = "ingestion.IngestTx"
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !dbc.InTx() {
		return nil, failure.New(failure.CodeInternal, op, "transaction required", nil)
	}
	// Retries replay this function, so nothing on cmd may be appended in place.
	cmd.Warnings = slices.Clone(cmd.Warnings)

	objs, skipped := normalize(cmd.Objects, cmd.SourceType, cmd.warnf)

	project, projectCreated, err := p.store.EnsureProject(dbc, cmd.Project)
	if err != nil {
		return nil, err
	}
	spec := cmd.Revision
	spec.ProjectID = project.ID
	spec.SourceType = cmd.SourceType
	rev, revCreated, err := p.store.EnsureRevision(dbc, spec)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:            cmd.Path,
		ProjectID:       project.ID,
		ProjectCode:     project.Code,
		ProjectCreated:  projectCreated,
		RevisionID:      rev.ID,
		RevisionNumber:  rev.RevisionNumber,
		RevisionCreated: revCreated,
		SourceType:      cmd.SourceType,
		Attempted:       len(cmd.Objects),
		Skipped:         skipped,
	}

	if a := cmd.Archive; a != nil {
		if a.Metadata != nil {
			if err := p.archive.UpsertMetadata(dbc, a.Metadata); err != nil {
				return nil, txn.MapError(op, err)
			}
		}
		if _, err := p.archive.UpsertObjects(dbc, a.Objects, p.opts.BatchSize); err != nil {
			return nil, txn.MapError(op, err)
		}
		n, err := p.archive.UpsertRelationships(dbc, a.Relationships, p.opts.BatchSize)
		if err != nil {
			return nil, txn.MapError(op, err)
		}
		res.RelationshipsWritten = n
	}

	rows := make([]*types.UnifiedObject, 0, len(objs))
	for _, o := range objs {
		row, err := toRow(project.ID, rev.ID, o)
		if err != nil {
			cmd.warnf("object %s: %v", o.UniqueKey, err)
			res.Skipped++
			continue
		}
		rows = append(rows, row)
	}
	written, err := p.objects.UpsertBatch(dbc, rows, p.opts.BatchSize)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	res.Written = written

	if err := p.store.RefreshCounters(dbc, rev.ID); err != nil {
		return nil, err
	}
	res.Warnings = cmd.Warnings
	return res, nil
}

func toRow(projectID, revisionID uuid.UUID, o ObjectInput) (*types.UnifiedObject, error) {
	props, err := propertiesJSON(o.Properties)
	if err != nil {
		return nil, err
	}
	row := &types.UnifiedObject{
		ProjectID:   projectID,
		RevisionID:  revisionID,
		SourceType:  o.SourceType,
		UniqueKey:   o.UniqueKey,
		ElementID:   o.ElementID,
		Category:    o.Category,
		DisplayName: o.DisplayName,
		Family:      o.Family,
		TypeName:    o.TypeName,
		ActivityID:  o.ActivityID,
		Level:       o.Level,
		Properties:  datatypes.JSON(props),
	}
	if o.ObjectGUID != "" {
		u, err := uuid.Parse(o.ObjectGUID)
		if err != nil {
			return nil, err
		}
		row.ObjectGUID = &u
	}
	if o.CanonicalID != "" {
		id := o.CanonicalID
		row.CanonicalID = &id
	}
	if o.ParentKey != "" {
		pk := o.ParentKey
		row.ParentKey = &pk
	}
	if len(o.Geometry) > 0 && string(o.Geometry) != "null" {
		row.Geometry = datatypes.JSON(o.Geometry)
	}
	return row, nil
}
