package detection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/identity"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

const (
	DefaultMinConfidence = 0.7
	DefaultMaxCandidates = 10
	MaxCandidatesLimit   = 50
	MaxObjectIDs         = 1000
)

type Request struct {
	ObjectIDs     []string `json:"object_ids"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	MaxCandidates *int     `json:"max_candidates,omitempty"`
}

type Response struct {
	Success          bool        `json:"success"`
	Candidates       []Candidate `json:"detected_projects"`
	QueryObjectCount int         `json:"query_object_count"`
	Message          string      `json:"message"`
	Cached           bool        `json:"cached"`
}

// Top returns the best candidate, if any.
func (r *Response) Top() (Candidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

type Engine interface {
	Detect(ctx context.Context, req Request) (*Response, error)
}

type engine struct {
	log     *logger.Logger
	repo    projects.DetectionRepo
	cache   *Cache
	metrics *observability.Metrics
}

// NewEngine builds the detector. cache may be nil.
func NewEngine(baseLog *logger.Logger, repo projects.DetectionRepo, cache *Cache, metrics *observability.Metrics) Engine {
	return &engine{
		log:     baseLog.With("service", "DetectionEngine"),
		repo:    repo,
		cache:   cache,
		metrics: metrics,
	}
}

type query struct {
	ids           []string
	minConfidence float64
	maxCandidates int
}

// normalize trims, drops blanks and de-duplicates ids, then applies defaults and ranges.
func normalize(req Request) (query, error) {
	const op = "detection.Detect"
	q := query{minConfidence: DefaultMinConfidence, maxCandidates: DefaultMaxCandidates}

	seen := make(map[string]struct{}, len(req.ObjectIDs))
	for _, id := range req.ObjectIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		q.ids = append(q.ids, id)
	}
	if len(q.ids) == 0 {
		return q, failure.Validation(op, "object_ids must contain at least one non-empty identifier")
	}
	if len(q.ids) > MaxObjectIDs {
		return q, failure.Validation(op, "object_ids accepts at most %d identifiers, got %d", MaxObjectIDs, len(q.ids))
	}
	if req.MinConfidence != nil {
		q.minConfidence = *req.MinConfidence
		if q.minConfidence < 0 || q.minConfidence > 1 {
			return q, failure.Validation(op, "min_confidence must be within [0,1], got %v", q.minConfidence)
		}
	}
	if req.MaxCandidates != nil {
		q.maxCandidates = *req.MaxCandidates
		if q.maxCandidates < 1 || q.maxCandidates > MaxCandidatesLimit {
			return q, failure.Validation(op, "max_candidates must be within [1,%d], got %d", MaxCandidatesLimit, q.maxCandidates)
		}
	}
	return q, nil
}

func (e *engine) Detect(ctx context.Context, req Request) (*Response, error) {
	const op = "detection.Detect"
	q, err := normalize(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, op,
		attribute.Int("detect.query_count", len(q.ids)),
		attribute.Float64("detect.min_confidence", q.minConfidence),
	)
	key := e.cache.Key(q.ids, q.minConfidence, q.maxCandidates)
	resp, cached, err := e.cache.Do(ctx, key, func(ctx context.Context) (*Response, error) {
		return e.query(ctx, q)
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	resp.Cached = cached
	e.metrics.ObserveDetection(cached, time.Since(start))
	e.log.Debug("Detection complete",
		"query_count", resp.QueryObjectCount,
		"candidates", len(resp.Candidates),
		"cached", cached,
	)
	return resp, nil
}

func (e *engine) query(ctx context.Context, q query) (*Response, error) {
	const op = "detection.query"
	guids := make([]uuid.UUID, 0)
	for _, id := range q.ids {
		if !identity.IsCanonicalID(id) {
			continue
		}
		if u, err := uuid.Parse(id); err == nil {
			guids = append(guids, u)
		}
	}
	matches, err := e.repo.MatchLatest(dbctx.New(ctx), q.ids, guids)
	if err != nil {
		return nil, txn.MapError(op, err)
	}

	resp := &Response{
		Candidates:       Rank(matches, len(q.ids), q.minConfidence, q.maxCandidates),
		QueryObjectCount: len(q.ids),
	}
	resp.Success = len(resp.Candidates) > 0
	if resp.Success {
		resp.Message = fmt.Sprintf("Detected %d project(s)", len(resp.Candidates))
	} else {
		resp.Message = "No matching projects found"
	}
	return resp, nil
}
