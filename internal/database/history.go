package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

// HistoryRepository keeps the latest product snapshot and every observed price.
type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// UpsertProductWithTx stores rec as the latest snapshot for its external id.
func (r *HistoryRepository) UpsertProductWithTx(ctx context.Context, tx pgx.Tx, rec *models.ProductRecord, at time.Time) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	query := `
		INSERT INTO product_snapshot (external_id, source_url, title, base_price, payload, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			title = EXCLUDED.title,
			base_price = EXCLUDED.base_price,
			payload = EXCLUDED.payload,
			scraped_at = EXCLUDED.scraped_at`

	if _, err := tx.Exec(ctx, query, rec.ExternalID, rec.SourceURL, rec.Title, rec.BasePrice, payload, at); err != nil {
		return fmt.Errorf("failed to upsert product snapshot: %w", err)
	}
	return nil
}

// InsertPriceWithTx appends one price observation.
func (r *HistoryRepository) InsertPriceWithTx(ctx context.Context, tx pgx.Tx, productID string, update *models.PriceUpdate, at time.Time) error {
	query := `
		INSERT INTO price_history (
			product_id, base_price, original_price, discount,
			delivery_min, delivery_max, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		productID, update.BasePrice, update.OriginalPrice, update.Discount,
		update.DeliveryEstimateDays.Min, update.DeliveryEstimateDays.Max, at,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price history: %w", err)
	}
	return nil
}

// PriceHistory returns the most recent observations for productID, newest first.
func (r *HistoryRepository) PriceHistory(ctx context.Context, productID string, limit int) ([]models.PriceUpdate, error) {
	query := `
		SELECT base_price, original_price, discount, delivery_min, delivery_max
		FROM price_history
		WHERE product_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := r.db.pool.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	history := []models.PriceUpdate{}
	for rows.Next() {
		var p models.PriceUpdate
		if err := rows.Scan(&p.BasePrice, &p.OriginalPrice, &p.Discount,
			&p.DeliveryEstimateDays.Min, &p.DeliveryEstimateDays.Max); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return history, nil
}
