package database

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "scraper", Password: "p@ss word", Database: "aliexpress"}
	assert.Equal(t, "postgres://scraper:p%40ss%20word@db:5432/aliexpress?sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestOutboxEventValidate(t *testing.T) {
	valid := func() *OutboxEvent {
		return &OutboxEvent{
			AggregateType: "product",
			AggregateID:   "ALI_1",
			EventType:     "PRODUCT_SCRAPED",
			Payload:       json.RawMessage(`{}`),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*OutboxEvent)
		wantErr bool
	}{
		{"valid", func(*OutboxEvent) {}, false},
		{"missing aggregate type", func(e *OutboxEvent) { e.AggregateType = "" }, true},
		{"missing aggregate id", func(e *OutboxEvent) { e.AggregateID = "" }, true},
		{"missing event type", func(e *OutboxEvent) { e.EventType = "" }, true},
		{"empty payload", func(e *OutboxEvent) { e.Payload = nil }, true},
		{"malformed payload", func(e *OutboxEvent) { e.Payload = json.RawMessage(`{`) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			if tt.wantErr {
				assert.Error(t, e.validate())
			} else {
				assert.NoError(t, e.validate())
			}
		})
	}
}

func TestPrepareEvent(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	e := &OutboxEvent{}
	prepareEvent(e, now)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.Equal(t, DefaultStream, e.TargetStream)
	assert.Equal(t, now, e.CreatedAt)
	require.NotNil(t, e.NextRetryAt)
	assert.Equal(t, now, *e.NextRetryAt)

	custom := &OutboxEvent{TargetStream: "stream:aliexpress_prices"}
	prepareEvent(custom, now)
	assert.Equal(t, "stream:aliexpress_prices", custom.TargetStream)
}

func TestNextAttempt(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		retry      int
		wantStatus string
		wantDelay  time.Duration
	}{
		{1, OutboxStatusFailed, 2 * time.Second},
		{3, OutboxStatusFailed, 8 * time.Second},
		{MaxRetryCount, OutboxStatusDeadLetter, 32 * time.Second},
		{12, OutboxStatusDeadLetter, 300 * time.Second},
	}

	for _, tt := range tests {
		status, next := nextAttempt(tt.retry, now)
		assert.Equal(t, tt.wantStatus, status, "retry %d", tt.retry)
		assert.Equal(t, now.Add(tt.wantDelay), next, "retry %d", tt.retry)
	}
}

// The tests below need a PostgreSQL instance; set TEST_DATABASE_URL to run them.

func TestOutboxRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewOutboxRepository(db)

	event := &OutboxEvent{
		AggregateType: "product",
		AggregateID:   "ALI_" + uuid.NewString(),
		EventType:     "PRODUCT_SCRAPED",
		Payload:       json.RawMessage(`{"basePrice":19.99}`),
	}
	require.NoError(t, db.Transaction(ctx, func(tx pgx.Tx) error {
		return repo.InsertWithTx(ctx, tx, event)
	}))

	pending, err := repo.GetPending(ctx, 100)
	require.NoError(t, err)
	assert.True(t, containsEvent(pending, event.ID))

	require.NoError(t, repo.MarkFailed(ctx, event.ID, assert.AnError))

	var status string
	var retryCount int
	require.NoError(t, db.QueryRow(ctx,
		"SELECT status, retry_count FROM outbox_event WHERE id = $1", event.ID).Scan(&status, &retryCount))
	assert.Equal(t, OutboxStatusFailed, status)
	assert.Equal(t, 1, retryCount)

	pending, err = repo.GetPending(ctx, 100)
	require.NoError(t, err)
	assert.False(t, containsEvent(pending, event.ID), "backoff hides the event")

	require.NoError(t, repo.MarkProcessed(ctx, event.ID))
	assert.Error(t, repo.MarkProcessed(ctx, uuid.New()))
}

func TestOutboxRepository_RollbackDiscardsEvent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewOutboxRepository(db)

	event := &OutboxEvent{
		AggregateType: "product",
		AggregateID:   "ALI_" + uuid.NewString(),
		EventType:     "PRODUCT_SCRAPED",
		Payload:       json.RawMessage(`{}`),
	}
	err := db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := repo.InsertWithTx(ctx, tx, event); err != nil {
			return err
		}
		return pgx.ErrTxClosed
	})
	require.Error(t, err)

	pending, err := repo.GetPending(ctx, 100)
	require.NoError(t, err)
	assert.False(t, containsEvent(pending, event.ID))
}

func TestHistoryRepository_PriceHistory(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	history := NewHistoryRepository(db)

	productID := "p-" + uuid.NewString()
	base := time.Now().Add(-time.Hour)
	for i, price := range []float64{21.5, 19.99} {
		update := &models.PriceUpdate{BasePrice: price, OriginalPrice: 29.99, Discount: 33,
			DeliveryEstimateDays: models.DeliveryWindow{Min: 10, Max: 20}}
		require.NoError(t, db.Transaction(ctx, func(tx pgx.Tx) error {
			return history.InsertPriceWithTx(ctx, tx, productID, update, base.Add(time.Duration(i)*time.Minute))
		}))
	}

	got, err := history.PriceHistory(ctx, productID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 19.99, got[0].BasePrice)
	assert.Equal(t, 21.5, got[1].BasePrice)
}

func containsEvent(events []*OutboxEvent, id uuid.UUID) bool {
	for _, e := range events {
		if e.ID == id {
			return true
		}
	}
	return false
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn, Config{MaxConns: 4})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	return db
}
