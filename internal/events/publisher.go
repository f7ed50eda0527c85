// Package events records scrape results in the transactional outbox, from
// where the relay forwards them to Redis streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/aliexpress-scraper/internal/database"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

type EventType string

const (
	EventTypeProductScraped  EventType = "PRODUCT_SCRAPED"
	EventTypePricesUpdated   EventType = "PRICES_UPDATED"
	EventTypeTrackingUpdated EventType = "TRACKING_UPDATED"
)

const (
	StreamProducts = "stream:aliexpress_products"
	StreamPrices   = "stream:aliexpress_prices"
	StreamTracking = "stream:aliexpress_tracking"

	source = "aliexpress-scraper"
)

// Envelope is the JSON payload stored with every outbox event.
type Envelope struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      any       `json:"data"`
}

// PricesUpdatedData summarizes one price batch.
type PricesUpdatedData struct {
	Total     int                        `json:"total"`
	Succeeded int                        `json:"succeeded"`
	Results   []models.PriceUpdateResult `json:"results"`
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}

type OutboxWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error
}

type HistoryWriter interface {
	UpsertProductWithTx(ctx context.Context, tx pgx.Tx, rec *models.ProductRecord, at time.Time) error
	InsertPriceWithTx(ctx context.Context, tx pgx.Tx, productID string, update *models.PriceUpdate, at time.Time) error
}

// Publisher writes events and history rows in the same transaction.
type Publisher struct {
	db      Transactor
	outbox  OutboxWriter
	history HistoryWriter
	logger  *slog.Logger
	now     func() time.Time
}

func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return newPublisher(db, database.NewOutboxRepository(db), database.NewHistoryRepository(db), logger)
}

func newPublisher(db Transactor, outbox OutboxWriter, history HistoryWriter, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:      db,
		outbox:  outbox,
		history: history,
		logger:  logger.With("component", "event_publisher"),
		now:     time.Now,
	}
}

func (p *Publisher) envelope(t EventType, data any) (*Envelope, json.RawMessage, error) {
	env := &Envelope{
		EventID:   uuid.NewString(),
		EventType: t,
		Timestamp: p.now(),
		Source:    source,
		Data:      data,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return env, raw, nil
}

// PublishProductScraped stores the product snapshot and a PRODUCT_SCRAPED event.
func (p *Publisher) PublishProductScraped(ctx context.Context, rec *models.ProductRecord) error {
	env, payload, err := p.envelope(EventTypeProductScraped, rec)
	if err != nil {
		return err
	}

	event := &database.OutboxEvent{
		AggregateType: "product",
		AggregateID:   rec.ExternalID,
		EventType:     string(EventTypeProductScraped),
		Payload:       payload,
		TargetStream:  StreamProducts,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := p.history.UpsertProductWithTx(ctx, tx, rec, env.Timestamp); err != nil {
			return err
		}
		return p.outbox.InsertWithTx(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", env.EventType,
		"event_id", env.EventID,
		"externalId", rec.ExternalID,
		"outbox_id", event.ID)
	return nil
}

// PublishPricesUpdated appends every successful quote to the price history and
// stores one PRICES_UPDATED event for the whole batch.
func (p *Publisher) PublishPricesUpdated(ctx context.Context, results []models.PriceUpdateResult) error {
	data := PricesUpdatedData{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			data.Succeeded++
		}
	}

	env, payload, err := p.envelope(EventTypePricesUpdated, data)
	if err != nil {
		return err
	}

	event := &database.OutboxEvent{
		AggregateType: "price_batch",
		AggregateID:   env.EventID,
		EventType:     string(EventTypePricesUpdated),
		Payload:       payload,
		TargetStream:  StreamPrices,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		for _, r := range results {
			if !r.Success || r.PriceUpdate == nil {
				continue
			}
			if err := p.history.InsertPriceWithTx(ctx, tx, r.ProductID, r.PriceUpdate, env.Timestamp); err != nil {
				return err
			}
		}
		return p.outbox.InsertWithTx(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", env.EventType,
		"event_id", env.EventID,
		"total", data.Total,
		"succeeded", data.Succeeded)
	return nil
}

func (p *Publisher) PublishTrackingUpdated(ctx context.Context, rec *models.TrackingRecord) error {
	env, payload, err := p.envelope(EventTypeTrackingUpdated, rec)
	if err != nil {
		return err
	}

	event := &database.OutboxEvent{
		AggregateType: "parcel",
		AggregateID:   rec.TrackingNumber,
		EventType:     string(EventTypeTrackingUpdated),
		Payload:       payload,
		TargetStream:  StreamTracking,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		return p.outbox.InsertWithTx(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", env.EventType,
		"event_id", env.EventID,
		"trackingNumber", rec.TrackingNumber)
	return nil
}
