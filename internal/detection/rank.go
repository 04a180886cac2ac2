package detection

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
)

type Candidate struct {
	ProjectID    uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Confidence   float64   `json:"confidence"`
	MatchCount   int64     `json:"match_count"`
	TotalObjects int64     `json:"total_objects"`
	Coverage     float64   `json:"coverage"`
}

// Rank scores raw matches against the size of the query set, drops candidates below
// minConfidence and keeps the top maxCandidates by match count (ties by code).
func Rank(matches []projects.ProjectMatch, queryCount int, minConfidence float64, maxCandidates int) []Candidate {
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		if m.MatchCount <= 0 {
			continue
		}
		var confidence, coverage float64
		if m.TotalObjects > 0 {
			confidence = float64(m.MatchCount) / float64(m.TotalObjects)
		}
		if queryCount > 0 {
			coverage = float64(m.MatchCount) / float64(queryCount)
		}
		if confidence < minConfidence {
			continue
		}
		out = append(out, Candidate{
			ProjectID:    m.ProjectID,
			Code:         m.Code,
			Name:         m.Name,
			Confidence:   round4(confidence),
			MatchCount:   m.MatchCount,
			TotalObjects: m.TotalObjects,
			Coverage:     round4(coverage),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchCount != out[j].MatchCount {
			return out[i].MatchCount > out[j].MatchCount
		}
		return out[i].Code < out[j].Code
	})
	if maxCandidates > 0 && len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
