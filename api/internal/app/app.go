// Package app wires configuration into a ready pipeline.
package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"condo-extract/api/internal/config"
	"condo-extract/api/internal/extract"
	"condo-extract/api/internal/extract/gemini"
	"condo-extract/api/internal/handle"
	"condo-extract/api/internal/metrics"
	"condo-extract/api/internal/pipeline"
	"condo-extract/api/internal/store"
)

type App struct {
	Config    *config.Config
	Pipeline  *pipeline.Pipeline
	Extractor extract.Extractor
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	// DB is nil when the extraction cache is disabled.
	DB  *sql.DB
	Log zerolog.Logger
}

// Build assembles the extractor, the optional Postgres cache, metrics and the
// pipeline. The returned func releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, func(), error) {
	if err := cfg.RequireGemini(); err != nil {
		return nil, nil, err
	}
	return BuildWith(ctx, cfg, log, gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, gemini.WithAttempts(cfg.ExtractAttempts)))
}

// BuildWith is Build with an explicit collaborator.
func BuildWith(ctx context.Context, cfg *config.Config, log zerolog.Logger, ex extract.Extractor) (*App, func(), error) {
	a := &App{Config: cfg, Extractor: ex, Log: log}
	cleanup := func() {
		if a.DB != nil {
			_ = a.DB.Close()
		}
	}

	if dsn := store.ResolveDSN(cfg.DatabaseURL); dsn != "" {
		if err := a.openCache(ctx, dsn); err != nil {
			// the cache is an optimisation; run without it
			log.Warn().Err(err).Str("dsn", store.SafeDSNSummary(dsn)).Msg("extraction cache disabled")
		}
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	a.Pipeline = pipeline.New(a.Extractor,
		pipeline.WithLogger(log.With().Str("component", "pipeline").Logger()),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithTimeout(cfg.ExtractTimeout),
		pipeline.WithMaxConcurrent(cfg.MaxConcurrentExtractions),
		pipeline.WithWorkers(cfg.CanonicalizeWorkers),
	)
	log.Info().
		Str("engine", ex.Name()).
		Str("model", ex.GetModel()).
		Bool("cache", a.DB != nil).
		Dur("timeout", cfg.ExtractTimeout).
		Int("max_concurrent", cfg.MaxConcurrentExtractions).
		Msg("pipeline ready")
	return a, cleanup, nil
}

func (a *App) openCache(ctx context.Context, dsn string) error {
	octx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := store.Open(octx, dsn)
	if err != nil {
		return err
	}
	repo := store.NewExtractionRepo(db)
	if err := repo.Migrate(octx); err != nil {
		_ = db.Close()
		return err
	}
	if n, err := repo.PurgeOlderThan(octx, a.Config.CacheMaxAge); err != nil {
		a.Log.Warn().Err(err).Msg("purge extraction cache")
	} else if n > 0 {
		a.Log.Info().Int64("rows", n).Msg("purged stale extraction cache rows")
	}

	a.DB = db
	a.Extractor = extract.NewCached(a.Extractor, repo, a.Config.CacheMaxAge,
		a.Log.With().Str("component", "cache").Logger())
	a.Log.Info().Str("dsn", store.SafeDSNSummary(dsn)).Msg("extraction cache connected")
	return nil
}

// Handler is the HTTP surface of the service.
func (a *App) Handler() http.Handler {
	opts := []handle.Option{
		handle.WithGatherer(a.Registry),
		handle.WithMaxUpload(a.Config.MaxUploadBytes()),
		handle.WithDeadline(a.Config.ExtractTimeout),
	}
	if a.DB != nil {
		opts = append(opts, handle.WithDB(a.DB))
	}
	mux := http.NewServeMux()
	handle.New(a.Pipeline, opts...).Register(mux)
	return mux
}
