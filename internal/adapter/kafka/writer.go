// Package kafka publishes enriched development records to a Kafka topic so
// downstream consumers (dashboards, archival jobs) can subscribe to the same
// stream the digest is built from.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jongeeting/development-digest/internal/config"
	"github.com/jongeeting/development-digest/internal/domain"
)

// Writer produces enriched records to the sink topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes enriched records to the sink topic in
// a single WriteMessages call. Records are keyed by their permit or appeal
// number so re-runs of the same window compact cleanly.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	now := time.Now().UTC()
	for i := range records {
		msg, err := serializeToMessage(records[i], now)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish enriched records: %w", err)
	}
	w.logger.Debug("published enriched records", "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// recordEnvelope is the wire shape of an enriched record. The domain structs
// stay tag-free; this envelope pins the published field names.
type recordEnvelope struct {
	Kind            string           `json:"kind"`
	ID              string           `json:"id"`
	Address         string           `json:"address"`
	CouncilDistrict string           `json:"council_district"`
	Neighborhood    string           `json:"neighborhood,omitempty"`
	Units           domain.UnitCount `json:"units"`
	UnitsSource     string           `json:"units_source"`
	Developer       string           `json:"developer,omitempty"`
	Narrative       string           `json:"narrative,omitempty"`
	Timestamp       string           `json:"timestamp"`
}

// serializeToMessage marshals an enriched record into a Kafka message.
func serializeToMessage(rec domain.EnrichedRecord, processedAt time.Time) (kafkago.Message, error) {
	env := recordEnvelope{
		Kind:            string(rec.Kind),
		ID:              rec.ID,
		Address:         rec.Address,
		CouncilDistrict: rec.CouncilDistrict,
		Neighborhood:    rec.Neighborhood,
		Units:           rec.Units,
		UnitsSource:     string(rec.UnitsSource),
		Developer:       rec.Developer,
		Narrative:       rec.Narrative,
		Timestamp:       rec.Timestamp,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", rec.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_kind", Value: []byte(rec.Kind)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
