package app

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/data/seed"
	apphttp "github.com/neocube/neocube-backend/internal/http"
	"github.com/neocube/neocube-backend/internal/observability"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Router   *gin.Engine
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if isProduction(cfg.LogMode) {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}

	reposet, err := wireRepos(ctx, log, clients)
	if err != nil {
		clients.Close(ctx)
		_ = otelShutdown(ctx)
		return nil, err
	}

	catalog, err := seed.LoadCatalog()
	if err != nil {
		clients.Close(ctx)
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	res, err := seed.Run(ctx, log, catalog, reposet.Sector, reposet.Technology)
	if err != nil {
		// Startup continues with whatever is already stored.
		log.Warn("Catalog seed failed", "error", err)
	} else {
		log.Info("Catalog seeded", "sectors", res.Sectors, "technologies_created", res.TechnologiesCreated)
	}

	serviceset, err := wireServices(log, cfg, clients, reposet)
	if err != nil {
		clients.Close(ctx)
		_ = otelShutdown(ctx)
		return nil, err
	}

	router := wireRouter(log, cfg, clients, serviceset)
	server := apphttp.NewServer(log, net.JoinHostPort("", cfg.Port), router)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Router:       router,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run blocks serving HTTP until Shutdown is called or the listener fails.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run()
}

// Shutdown drains in-flight requests, then flushes traces and closes clients.
func (a *App) Shutdown(timeout time.Duration) {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown incomplete", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Clients.Close(ctx)
	a.Log.Sync()
}

func isProduction(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return true
	}
	return false
}
