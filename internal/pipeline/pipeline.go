// Package pipeline orchestrates a digest build: concurrent source fetches,
// identifier deduplication, unit and neighborhood enrichment, threshold
// filtering, district grouping, and freshness checks. A build degrades rather
// than fails: a broken source contributes a warning and an empty record list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/observability"
)

// RecordSource fetches raw records and feed timestamps from the open-data
// backend. Implemented by arcgis.Client.
type RecordSource interface {
	FetchPermits(ctx context.Context, since time.Time) ([]domain.RawRecord, error)
	FetchAppeals(ctx context.Context, since time.Time) ([]domain.RawRecord, error)
	MostRecentPermit(ctx context.Context) (time.Time, error)
	MostRecentAppeal(ctx context.Context) (time.Time, error)
}

// Publisher pushes enriched records to a downstream stream.
// Implemented by kafka.Writer.
type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.EnrichedRecord) error
}

// Archiver persists enriched records for later querying.
// Implemented by postgres.Store.
type Archiver interface {
	SaveBatch(ctx context.Context, records []domain.EnrichedRecord) error
}

// Digest is one fully built reporting window, ready for rendering.
type Digest struct {
	GeneratedAt time.Time
	Since       time.Time

	// Permits and Appeals hold the threshold-filtered records grouped by
	// council district.
	Permits *domain.DistrictGroups
	Appeals *domain.DistrictGroups

	Largest    domain.LargestProject
	HasLargest bool

	Freshness domain.FreshnessReport

	// Warnings collects fetch failures and staleness notices for the digest
	// header, in the order they arose.
	Warnings []string
}

// Empty reports whether the window produced no records at all.
func (d *Digest) Empty() bool {
	return d.Permits.Len() == 0 && d.Appeals.Len() == 0
}

// PermitRecords flattens the grouped permits in district order.
func (d *Digest) PermitRecords() []domain.EnrichedRecord { return flatten(d.Permits) }

// AppealRecords flattens the grouped appeals in district order.
func (d *Digest) AppealRecords() []domain.EnrichedRecord { return flatten(d.Appeals) }

func flatten(g *domain.DistrictGroups) []domain.EnrichedRecord {
	out := make([]domain.EnrichedRecord, 0, g.Len())
	for _, district := range g.Districts() {
		out = append(out, g.Records(district)...)
	}
	return out
}

// Options tune a Builder. Zero values fall back to sensible defaults.
type Options struct {
	MinUnits       int
	StaleAfterDays int
	MatchWorkers   int
}

func (o Options) withDefaults() Options {
	if o.MinUnits < 1 {
		o.MinUnits = 1
	}
	if o.StaleAfterDays <= 0 {
		o.StaleAfterDays = domain.DefaultStaleAfterDays
	}
	if o.MatchWorkers < 1 {
		o.MatchWorkers = 1
	}
	return o
}

// Builder runs digest builds. Publisher and archiver are optional; nil
// disables that delivery channel.
type Builder struct {
	source    RecordSource
	enricher  *domain.Enricher
	publisher Publisher
	archiver  Archiver
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
}

// NewBuilder creates a digest builder.
func NewBuilder(source RecordSource, enricher *domain.Enricher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Builder {
	return &Builder{
		source:   source,
		enricher: enricher,
		logger:   logger,
		metrics:  metrics,
		opts:     opts.withDefaults(),
	}
}

// WithPublisher attaches a downstream record publisher.
func (b *Builder) WithPublisher(p Publisher) *Builder {
	b.publisher = p
	return b
}

// WithArchiver attaches a record archive.
func (b *Builder) WithArchiver(a Archiver) *Builder {
	b.archiver = a
	return b
}

// SetMinUnits overrides the unit threshold for subsequent builds. Values
// below one clamp to one.
func (b *Builder) SetMinUnits(n int) {
	if n < 1 {
		n = 1
	}
	b.opts.MinUnits = n
}

// CheckReadiness reports whether at least one digest build has completed.
func (b *Builder) CheckReadiness(_ context.Context) error {
	if !b.ready.Load() {
		return errors.New("no digest built yet")
	}
	return nil
}

// Build assembles the digest for records issued since the given time.
// Source failures never abort the build; each failed fetch yields a warning
// and that source contributes nothing to the window.
func (b *Builder) Build(ctx context.Context, since time.Time) (*Digest, error) {
	start := time.Now()
	b.metrics.PipelineRunning.Set(1)
	defer b.metrics.PipelineRunning.Set(0)

	fetched := b.fetch(ctx, since)

	permits := b.dedup("permits", fetched.permits)
	appeals := b.dedup("appeals", fetched.appeals)

	enrichedPermits := b.enrich(ctx, permits)
	enrichedAppeals := b.enrich(ctx, appeals)

	// Only permits are threshold-filtered. Variance grounds rarely carry
	// unit language, so the digest lists every appeal filed; extracted
	// appeal counts feed the largest-project highlight only.
	keptPermits := domain.FilterByMinUnits(enrichedPermits, b.opts.MinUnits)

	pool := make([]domain.EnrichedRecord, 0, len(keptPermits)+len(enrichedAppeals))
	pool = append(pool, keptPermits...)
	pool = append(pool, enrichedAppeals...)

	digest := &Digest{
		GeneratedAt: time.Now().UTC(),
		Since:       since,
		Permits:     domain.GroupByDistrict(keptPermits),
		Appeals:     domain.GroupByDistrict(enrichedAppeals),
		Warnings:    fetched.warnings,
	}
	digest.Largest, digest.HasLargest = domain.Largest(pool)

	digest.Freshness = domain.CheckFreshness(fetched.permitTS, fetched.appealTS, b.opts.StaleAfterDays)
	digest.Warnings = append(digest.Warnings, digest.Freshness.Warnings...)
	b.recordFreshness(digest.Freshness)

	b.deliver(ctx, pool)

	b.metrics.DigestBuildDuration.Observe(time.Since(start).Seconds())
	b.ready.Store(true)
	b.logger.Info("digest built",
		"permits", len(keptPermits),
		"appeals", len(enrichedAppeals),
		"warnings", len(digest.Warnings),
		"duration", time.Since(start),
	)
	return digest, nil
}

// fetchResult carries the outcome of the concurrent source queries. Timestamp
// pointers are nil when the corresponding query failed.
type fetchResult struct {
	permits  []domain.RawRecord
	appeals  []domain.RawRecord
	permitTS *time.Time
	appealTS *time.Time
	warnings []string
}

// fetch runs the four source queries concurrently. Failures degrade to
// warnings; the errgroup is used for coordination only and never returns an
// error.
func (b *Builder) fetch(ctx context.Context, since time.Time) fetchResult {
	var res fetchResult
	var permitErr, appealErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.permits, permitErr = b.source.FetchPermits(gctx, since)
		return nil
	})
	g.Go(func() error {
		res.appeals, appealErr = b.source.FetchAppeals(gctx, since)
		return nil
	})
	g.Go(func() error {
		if ts, err := b.source.MostRecentPermit(gctx); err == nil {
			res.permitTS = &ts
		} else {
			b.logger.Warn("permit freshness query failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if ts, err := b.source.MostRecentAppeal(gctx); err == nil {
			res.appealTS = &ts
		} else {
			b.logger.Warn("appeal freshness query failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()

	if permitErr != nil {
		b.logger.Error("permit fetch failed", "error", permitErr)
		b.metrics.FetchErrors.WithLabelValues("permits").Inc()
		res.permits = nil
		res.warnings = append(res.warnings, fmt.Sprintf("❌ Error fetching permits: %v", permitErr))
	}
	if appealErr != nil {
		b.logger.Error("appeal fetch failed", "error", appealErr)
		b.metrics.FetchErrors.WithLabelValues("appeals").Inc()
		res.appeals = nil
		res.warnings = append(res.warnings, fmt.Sprintf("❌ Error fetching appeals: %v", appealErr))
	}
	return res
}

func (b *Builder) dedup(source string, records []domain.RawRecord) []domain.RawRecord {
	out := domain.Dedup(records)
	if removed := len(records) - len(out); removed > 0 {
		b.metrics.DuplicatesRemoved.WithLabelValues(source).Add(float64(removed))
		b.logger.Debug("duplicates removed", "source", source, "count", removed)
	}
	return out
}

// enrich runs unit derivation and neighborhood matching across a bounded
// worker pool, preserving input order via indexed writes.
func (b *Builder) enrich(ctx context.Context, records []domain.RawRecord) []domain.EnrichedRecord {
	out := make([]domain.EnrichedRecord, len(records))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.MatchWorkers)
	for i := range records {
		g.Go(func() error {
			out[i] = b.enricher.Enrich(records[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, rec := range out {
		b.metrics.UnitsOutcomes.WithLabelValues(string(rec.UnitsSource)).Inc()
		if rec.HasCoordinates() {
			b.metrics.MatchAttempts.Inc()
			if rec.Neighborhood != "" {
				b.metrics.MatchHits.Inc()
			}
		}
	}
	return out
}

func (b *Builder) recordFreshness(report domain.FreshnessReport) {
	if report.PermitAgeDays != nil {
		b.metrics.FreshnessAgeDays.WithLabelValues("permits").Set(float64(*report.PermitAgeDays))
	}
	if report.AppealAgeDays != nil {
		b.metrics.FreshnessAgeDays.WithLabelValues("appeals").Set(float64(*report.AppealAgeDays))
	}
}

// deliver pushes the enriched pool to the optional downstream channels.
// Delivery failures are logged, not fatal: the digest itself is still usable.
func (b *Builder) deliver(ctx context.Context, pool []domain.EnrichedRecord) {
	if len(pool) == 0 {
		return
	}
	if b.publisher != nil {
		if err := b.publisher.PublishBatch(ctx, pool); err != nil {
			b.logger.Error("publish enriched records failed", "error", err)
		} else {
			b.metrics.DigestsDelivered.WithLabelValues("kafka").Inc()
		}
	}
	if b.archiver != nil {
		if err := b.archiver.SaveBatch(ctx, pool); err != nil {
			b.logger.Error("archive enriched records failed", "error", err)
		} else {
			b.metrics.DigestsDelivered.WithLabelValues("postgres").Inc()
		}
	}
}
