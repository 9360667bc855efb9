package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jongeeting/development-digest/internal/adapter/arcgis"
	"github.com/jongeeting/development-digest/internal/adapter/buttondown"
	kafkaadapter "github.com/jongeeting/development-digest/internal/adapter/kafka"
	"github.com/jongeeting/development-digest/internal/adapter/postgres"
	"github.com/jongeeting/development-digest/internal/config"
	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/geo"
	"github.com/jongeeting/development-digest/internal/observability"
	"github.com/jongeeting/development-digest/internal/pipeline"
	"github.com/jongeeting/development-digest/internal/render"
)

// app bundles the wired service components shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	source  *arcgis.Client
	builder *pipeline.Builder

	closers []func() error
}

// newApp loads config and wires the digest builder with its optional
// delivery channels. The boundary file is required: enrichment cannot match
// neighborhoods without it, so a load failure is fatal rather than a silent
// downgrade to district-only output.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	source := arcgis.NewClient(cfg, metrics, logger)

	matcher, err := geo.NewMatcherFromFile(cfg.BoundaryFile)
	if err != nil {
		return nil, fmt.Errorf("load boundary file %s: %w (run \"digest geodata\" to download it)",
			cfg.BoundaryFile, err)
	}
	logger.Info("loaded neighborhood boundaries", "path", cfg.BoundaryFile, "polygons", matcher.Len())

	builder := pipeline.NewBuilder(source, domain.NewEnricher(matcher), logger, metrics, pipeline.Options{
		MinUnits:       cfg.MinUnits,
		StaleAfterDays: cfg.StaleAfterDays,
		MatchWorkers:   cfg.MatchWorkers,
	})

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		source:  source,
		builder: builder,
	}

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		builder.WithPublisher(w)
		a.closers = append(a.closers, w.Close)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	if cfg.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		store, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			a.close()
			return nil, err
		}
		builder.WithArchiver(store)
		a.closers = append(a.closers, store.Close)
		logger.Info("postgres archive enabled")
	}

	return a, nil
}

// mailer returns a Buttondown client, or nil when delivery is not configured.
func (a *app) mailer() *buttondown.Client {
	if !a.cfg.ButtondownEnabled {
		return nil
	}
	return buttondown.NewClient(a.cfg.ButtondownToken, a.cfg.RequestTimeout, a.logger)
}

func (a *app) renderer(minUnits, daysBack int) *render.Renderer {
	return render.NewRenderer(minUnits, daysBack)
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("close failed", "error", err)
		}
	}
}
