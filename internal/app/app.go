package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/config"
	"github.com/yungbote/dxplatform-backend/internal/data/db"
	apphttp "github.com/yungbote/dxplatform-backend/internal/http"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      config.Config
	DB       *gorm.DB
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *apphttp.Server

	pg           *db.PostgresService
	shutdownOTel func(context.Context) error
}

type Options struct {
	// Migrate runs the schema migration before wiring.
	Migrate bool
}

// New connects every backing store and wires the full object graph.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdownOTel := observability.InitOTel(ctx, log, cfg.OTel)
	metrics := observability.NewMetrics()

	pg, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if opts.Migrate {
		if err := pg.AutoMigrateAll(); err != nil {
			_ = pg.Close()
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	theDB := pg.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	server := wireServer(theDB, log, cfg, serviceset, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		pg:           pg,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, time.Duration(a.Cfg.HTTP.ShutdownSec)*time.Second)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("Postgres close failed", "error", err)
		}
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
