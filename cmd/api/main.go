package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tdill1980/wrapdash/internal/adapter/repo"
	"github.com/Tdill1980/wrapdash/internal/http/handlers"
	"github.com/Tdill1980/wrapdash/internal/http/httpapi"
	"github.com/Tdill1980/wrapdash/internal/infra"
	"github.com/Tdill1980/wrapdash/internal/infra/geoip"
	"github.com/Tdill1980/wrapdash/internal/provider/renderapi"
	"github.com/Tdill1980/wrapdash/internal/render"
	"github.com/Tdill1980/wrapdash/internal/service"
	"github.com/Tdill1980/wrapdash/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	catalog, err := render.LoadCatalog(cfg.PlanCatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: load plan catalog failed")
	}

	uploads, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: configure storage failed")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}

	backend := renderapi.NewClient(renderapi.Options{
		APIKey:  cfg.RenderAPIKey,
		BaseURL: cfg.RenderBaseURL,
		Logger:  &logger,
	})
	if cfg.RenderAPIKey == "" {
		logger.Warn().Msg("api: render api key missing, using placeholder generation")
	}

	orch := render.NewOrchestrator(backend, logger, render.WithVariantTimeout(cfg.VariantTimeout))
	runRepo := repo.NewRunRepository(pool)
	artifactRepo := repo.NewArtifactRepository(pool)
	runs := service.NewRunService(runRepo, orch, catalog, logger)
	artifacts := service.NewArtifactService(artifactRepo, runRepo, logger)

	app := handlers.NewApp(logger, runs, artifacts, uploads)
	router := httpapi.NewRouter(app, logger, geo, cfg.AllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
