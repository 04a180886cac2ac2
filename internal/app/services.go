package app

import (
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/config"
	"github.com/yungbote/dxplatform-backend/internal/data/txn"
	"github.com/yungbote/dxplatform-backend/internal/detection"
	"github.com/yungbote/dxplatform-backend/internal/hierarchy"
	"github.com/yungbote/dxplatform-backend/internal/ingestion"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

type Services struct {
	Revisions revisions.Store
	Pipeline  ingestion.Pipeline
	Detection detection.Engine
	Hierarchy hierarchy.Service
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg config.Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	runner := txn.NewGormTxRunner(db)
	retry := retryPolicy(cfg.Ingestion)

	store := revisions.NewStore(log, runner, retry, repos.Project, repos.Revision, repos.RevisionVersion, repos.UnifiedObject)
	pipeline := ingestion.NewPipeline(log, runner, store, repos.UnifiedObject, repos.LegacyArchive, metrics, ingestion.Options{
		BatchSize: cfg.Ingestion.BatchSize,
		Retry:     retry,
	})
	cache := detectionCache(log, cfg.Detection, clients.Redis, metrics)
	engine := detection.NewEngine(log, repos.Detection, cache, metrics)
	hier := hierarchy.NewService(log, runner, retry, repos.Project, repos.HierarchyAttribute, repos.UnifiedObject, pipeline, engine, metrics, cfg.Ingestion.BatchSize)

	return Services{
		Revisions: store,
		Pipeline:  pipeline,
		Detection: engine,
		Hierarchy: hier,
	}
}

func retryPolicy(cfg config.IngestionConfig) txn.RetryPolicy {
	p := txn.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		p.MaxRetries = uint64(cfg.MaxRetries)
	}
	return p
}

// detectionCache picks the cache backend. A nil cache disables caching.
func detectionCache(log *logger.Logger, cfg config.DetectionConfig, rdb *goredis.Client, metrics *observability.Metrics) *detection.Cache {
	var store detection.Store
	switch strings.ToLower(strings.TrimSpace(cfg.CacheBackend)) {
	case "none", "off", "":
		log.Info("Detection cache disabled")
		return nil
	case "redis":
		if rdb == nil {
			log.Warn("Detection cache backend is redis but no client is configured; falling back to memory")
			store = detection.NewMemoryStore(detection.SystemClock())
		} else {
			store = detection.NewRedisStore(rdb)
		}
	default:
		store = detection.NewMemoryStore(detection.SystemClock())
	}
	return detection.NewCache(log, store, cfg.CacheTTL(), cfg.CachePrefix, metrics)
}
