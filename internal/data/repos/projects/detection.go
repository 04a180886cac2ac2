package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

// ProjectMatch is one project's raw hit count against its latest-revision object set.
type ProjectMatch struct {
	ProjectID    uuid.UUID `gorm:"column:project_id"`
	Code         string    `gorm:"column:code"`
	Name         string    `gorm:"column:name"`
	MatchCount   int64     `gorm:"column:match_count"`
	TotalObjects int64     `gorm:"column:total_objects"`
}

type DetectionRepo interface {
	MatchLatest(dbc dbctx.Context, keys []string, guids []uuid.UUID) ([]ProjectMatch, error)
}

type detectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDetectionRepo(db *gorm.DB, baseLog *logger.Logger) DetectionRepo {
	return &detectionRepo{
		db:  db,
		log: baseLog.With("repo", "DetectionRepo"),
	}
}

// MatchLatest counts, per project, the distinct latest-revision objects whose unique_key is
// in keys or whose object_guid is in guids. Scoping to the latest revision lives in the
// v_unified_objects_latest view.
func (r *detectionRepo) MatchLatest(dbc dbctx.Context, keys []string, guids []uuid.UUID) ([]ProjectMatch, error) {
	var out []ProjectMatch
	if len(keys) == 0 && len(guids) == 0 {
		return out, nil
	}
	if keys == nil {
		keys = []string{}
	}
	if guids == nil {
		guids = []uuid.UUID{}
	}
	err := dbc.Conn(r.db).Raw(`
		WITH matched AS (
			SELECT project_id, COUNT(DISTINCT id) AS match_count
			FROM v_unified_objects_latest
			WHERE unique_key IN @keys OR object_guid IN @guids
			GROUP BY project_id
		), totals AS (
			SELECT project_id, COUNT(*) AS total_objects
			FROM v_unified_objects_latest
			WHERE project_id IN (SELECT project_id FROM matched)
			GROUP BY project_id
		)
		SELECT p.id AS project_id, p.code, p.name, m.match_count, COALESCE(t.total_objects, 0) AS total_objects
		FROM matched m
		JOIN projects p ON p.id = m.project_id
		LEFT JOIN totals t ON t.project_id = m.project_id
		ORDER BY m.match_count DESC, p.code ASC`,
		map[string]interface{}{"keys": keys, "guids": guids},
	).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
