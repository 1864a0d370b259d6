package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tdill1980/wrapdash/internal/adapter/repo"
	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/infra"
	"github.com/Tdill1980/wrapdash/internal/provider/renderapi"
	"github.com/Tdill1980/wrapdash/internal/render"
	"github.com/Tdill1980/wrapdash/internal/service"
)

type renderWorker struct {
	ctx      context.Context
	runs     *service.RunService
	logger   zerolog.Logger
	pollWait time.Duration
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	catalog, err := render.LoadCatalog(cfg.PlanCatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: load plan catalog failed")
	}

	backend := renderapi.NewClient(renderapi.Options{
		APIKey:  cfg.RenderAPIKey,
		BaseURL: cfg.RenderBaseURL,
		Logger:  &logger,
	})
	if cfg.RenderAPIKey == "" {
		logger.Warn().Msg("worker: render api key missing, using placeholder generation")
	}

	orch := render.NewOrchestrator(backend, logger, render.WithVariantTimeout(cfg.VariantTimeout))
	runs := service.NewRunService(repo.NewRunRepository(pool), orch, catalog, logger)

	worker := &renderWorker{
		ctx:      ctx,
		runs:     runs,
		logger:   logger,
		pollWait: cfg.WorkerPollEvery,
	}
	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *renderWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		run, err := w.runs.ClaimQueued(w.ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				w.logger.Error().Err(err).Msg("worker: failed to claim run")
			}
			w.wait()
			continue
		}

		w.handleRun(run)
	}
}

func (w *renderWorker) handleRun(run *domain.OrchestrationRun) {
	w.logger.Info().
		Str("run_id", run.ID.String()).
		Str("plan", run.PlanName).
		Msg("worker: picked run")

	jobs, err := w.runs.Execute(w.ctx, run)
	switch {
	case errors.Is(err, domain.ErrStaleRun):
		// Superseded while generating. Results intentionally dropped.
	case err != nil:
		w.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("worker: run failed")
	default:
		completed := 0
		for _, job := range jobs {
			if job.Status == domain.JobStatusComplete {
				completed++
			}
		}
		w.logger.Info().
			Str("run_id", run.ID.String()).
			Int("completed", completed).
			Int("total", len(jobs)).
			Msg("worker: run settled")
	}
}

func (w *renderWorker) wait() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.pollWait):
	}
}
