package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/dxplatform-backend/internal/http/handlers"
	httpMW "github.com/yungbote/dxplatform-backend/internal/http/middleware"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// TraceService enables otelgin spans under this service name when non-empty.
	TraceService   string
	AllowedOrigins []string
	MaxBodyBytes   int64

	IngestHandler    *httpH.IngestHandler
	DetectionHandler *httpH.DetectionHandler
	ProjectHandler   *httpH.ProjectHandler
	HierarchyHandler *httpH.HierarchyHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TraceService != "" {
		r.Use(otelgin.Middleware(cfg.TraceService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.BodyLimit(cfg.MaxBodyBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		// Ingestion
		if cfg.IngestHandler != nil {
			v1.POST("/ingest", cfg.IngestHandler.Ingest)
		}

		// Detection
		if cfg.DetectionHandler != nil {
			v1.POST("/projects/detect-by-objects", cfg.DetectionHandler.DetectByObjects)
		}

		// Projects & revisions
		if cfg.ProjectHandler != nil {
			v1.GET("/projects/:code", cfg.ProjectHandler.GetProject)
			v1.DELETE("/projects/:code", cfg.ProjectHandler.DeleteProject)
			v1.GET("/projects/:code/revisions", cfg.ProjectHandler.ListRevisions)
			v1.GET("/projects/:code/revisions/latest/:source_type", cfg.ProjectHandler.LatestRevision)
			v1.GET("/projects/:code/revisions/:number", cfg.ProjectHandler.GetRevision)
			v1.GET("/projects/:code/revisions/:number/objects", cfg.ProjectHandler.ListObjects)
			v1.DELETE("/projects/:code/revisions/:number", cfg.ProjectHandler.DeleteRevision)
			v1.GET("/navisworks/projects/:code/hierarchy", cfg.ProjectHandler.HierarchyTree)
		}

		// Navisworks hierarchy
		if cfg.HierarchyHandler != nil {
			v1.POST("/navisworks/projects/:code/revisions/:number/hierarchy", cfg.HierarchyHandler.Upload)
		}
	}

	return r
}
