// Package delivery sends built digests to Buttondown subscribers, filtered by
// each subscriber's geographic preferences. Citywide subscribers get the full
// digest via a segment send; neighborhood and district subscribers get a
// digest cut down to their area.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jongeeting/development-digest/internal/adapter/buttondown"
	"github.com/jongeeting/development-digest/internal/domain"
	"github.com/jongeeting/development-digest/internal/geo"
	"github.com/jongeeting/development-digest/internal/observability"
	"github.com/jongeeting/development-digest/internal/pipeline"
	"github.com/jongeeting/development-digest/internal/render"
)

// citywideSegment is the Buttondown segment holding daily citywide
// subscribers, managed via tags on the Buttondown side.
const citywideSegment = "daily-citywide"

// Mailer is the slice of the Buttondown client the service needs.
type Mailer interface {
	Subscribers(ctx context.Context) ([]buttondown.Subscriber, error)
	SendEmail(ctx context.Context, subject, body string, recipients []string, segment string) error
}

// Service fans a digest out to subscribers.
type Service struct {
	mailer   Mailer
	renderer *render.Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a delivery service.
func NewService(mailer Mailer, renderer *render.Renderer, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{mailer: mailer, renderer: renderer, logger: logger, metrics: metrics}
}

// SendFiltered delivers the digest to every subscriber whose frequency
// matches, cut down to each subscriber's geography. Geographies with no
// activity in the window are skipped. Returns the number of subscribers
// reached; an individual send failure skips that geography and continues.
func (s *Service) SendFiltered(ctx context.Context, digest *pipeline.Digest, frequency string) (int, error) {
	if digest.Empty() {
		s.logger.Info("digest empty, nothing to deliver")
		return 0, nil
	}

	subs, err := s.mailer.Subscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}
	groups := buttondown.GroupByPreferences(subs, frequency)

	permits := digest.PermitRecords()
	appeals := digest.AppealRecords()
	date := digest.GeneratedAt.Format("Jan 02, 2006")
	sent := 0

	if len(groups.Citywide) > 0 {
		subject := fmt.Sprintf("Philadelphia Development Daily - %s", date)
		if err := s.send(ctx, subject, s.renderer.Markdown(digest), nil, citywideSegment); err == nil {
			sent += len(groups.Citywide)
			s.logger.Info("sent citywide digest", "subscribers", len(groups.Citywide))
		}
	}

	for name, emails := range groups.Neighborhoods {
		fp := geo.FilterByNeighborhoods(permits, []string{name})
		fa := geo.FilterByNeighborhoods(appeals, []string{name})
		if len(fp) == 0 && len(fa) == 0 {
			s.logger.Debug("no activity, skipping", "neighborhood", name)
			continue
		}
		subject := fmt.Sprintf("%s Development Daily - %s", name, date)
		if err := s.send(ctx, subject, s.renderMarkdown(digest, fp, fa), emails, ""); err == nil {
			sent += len(emails)
			s.logger.Info("sent neighborhood digest",
				"neighborhood", name, "subscribers", len(emails), "permits", len(fp), "appeals", len(fa))
		}
	}

	for district, emails := range groups.Districts {
		fp := geo.FilterByDistricts(permits, []string{district})
		fa := geo.FilterByDistricts(appeals, []string{district})
		if len(fp) == 0 && len(fa) == 0 {
			s.logger.Debug("no activity, skipping", "district", district)
			continue
		}
		subject := fmt.Sprintf("District %s Development Daily - %s", district, date)
		if err := s.send(ctx, subject, s.renderMarkdown(digest, fp, fa), emails, ""); err == nil {
			sent += len(emails)
			s.logger.Info("sent district digest",
				"district", district, "subscribers", len(emails), "permits", len(fp), "appeals", len(fa))
		}
	}

	return sent, nil
}

func (s *Service) send(ctx context.Context, subject, body string, recipients []string, segment string) error {
	if err := s.mailer.SendEmail(ctx, subject, body, recipients, segment); err != nil {
		s.logger.Error("send digest failed", "subject", subject, "error", err)
		return err
	}
	s.metrics.DigestsDelivered.WithLabelValues("email").Inc()
	return nil
}

// renderMarkdown rebuilds a digest view over a filtered record subset. Header
// warnings carry over; the largest project is recomputed within the subset.
func (s *Service) renderMarkdown(digest *pipeline.Digest, permits, appeals []domain.EnrichedRecord) string {
	view := &pipeline.Digest{
		GeneratedAt: digest.GeneratedAt,
		Since:       digest.Since,
		Permits:     domain.GroupByDistrict(permits),
		Appeals:     domain.GroupByDistrict(appeals),
		Freshness:   digest.Freshness,
		Warnings:    digest.Warnings,
	}
	pool := make([]domain.EnrichedRecord, 0, len(permits)+len(appeals))
	pool = append(pool, permits...)
	pool = append(pool, appeals...)
	view.Largest, view.HasLargest = domain.Largest(pool)
	return s.renderer.Markdown(view)
}

// ActivitySummary lists where the window had activity, for dry runs.
type ActivitySummary struct {
	Neighborhoods []string
	Districts     []string
}

// Summarize reports the unique neighborhoods and districts with activity.
func Summarize(digest *pipeline.Digest) ActivitySummary {
	pool := append(digest.PermitRecords(), digest.AppealRecords()...)
	return ActivitySummary{
		Neighborhoods: geo.UniqueNeighborhoods(pool),
		Districts:     geo.UniqueDistricts(pool),
	}
}
