package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/config"
	apphttp "github.com/yungbote/dxplatform-backend/internal/http"
	httpH "github.com/yungbote/dxplatform-backend/internal/http/handlers"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Ingest    *httpH.IngestHandler
	Detection *httpH.DetectionHandler
	Project   *httpH.ProjectHandler
	Hierarchy *httpH.HierarchyHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:    httpH.NewHealthHandler(pinger),
		Ingest:    httpH.NewIngestHandler(services.Pipeline),
		Detection: httpH.NewDetectionHandler(services.Detection),
		Project:   httpH.NewProjectHandler(services.Revisions),
		Hierarchy: httpH.NewHierarchyHandler(services.Hierarchy),
	}
}

func wireServer(db *gorm.DB, log *logger.Logger, cfg config.Config, services Services, metrics *observability.Metrics) *apphttp.Server {
	handlers := wireHandlers(db, log, services)
	traceService := ""
	if cfg.OTel.Enabled {
		traceService = cfg.OTel.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		TraceService:     traceService,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:     int64(cfg.HTTP.MaxUploadMB) << 20,
		IngestHandler:    handlers.Ingest,
		DetectionHandler: handlers.Detection,
		ProjectHandler:   handlers.Project,
		HierarchyHandler: handlers.Hierarchy,
		HealthHandler:    handlers.Health,
	}, apphttp.ServerOptions{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		ReadTimeout:  seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: seconds(cfg.HTTP.WriteTimeoutSec),
	})
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
