package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RateRecord is a persisted rate for one pair.
type RateRecord struct {
	Pair      string
	From      string
	To        string
	Rate      float64
	FetchedAt time.Time
}

// PairKey returns the FROM_TO key used for a currency pair.
func PairKey(from, to string) string {
	return strings.ToUpper(from) + "_" + strings.ToUpper(to)
}

// SaveRate upserts the rate for from/to.
func (db *DB) SaveRate(ctx context.Context, from, to string, rate float64, fetchedAt time.Time) error {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	_, err := db.ExecContext(ctx, `
		INSERT INTO rates (pair, from_currency, to_currency, rate, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pair) DO UPDATE SET rate = excluded.rate, fetched_at = excluded.fetched_at
	`, PairKey(from, to), from, to, rate, fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save rate %s: %w", PairKey(from, to), err)
	}
	return nil
}

// GetRate returns the stored rate for from/to, or ErrNotFound.
func (db *DB) GetRate(ctx context.Context, from, to string) (*RateRecord, error) {
	var rec RateRecord
	var fetchedAt int64
	err := db.QueryRowContext(ctx, `
		SELECT pair, from_currency, to_currency, rate, fetched_at
		FROM rates
		WHERE pair = ?
	`, PairKey(from, to)).Scan(&rec.Pair, &rec.From, &rec.To, &rec.Rate, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rate %s: %w", PairKey(from, to), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}
	rec.FetchedAt = time.UnixMilli(fetchedAt)
	return &rec, nil
}

// ListRates returns every stored rate, newest first.
func (db *DB) ListRates(ctx context.Context) ([]RateRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT pair, from_currency, to_currency, rate, fetched_at
		FROM rates
		ORDER BY fetched_at DESC, pair
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []RateRecord
	for rows.Next() {
		var rec RateRecord
		var fetchedAt int64
		if err := rows.Scan(&rec.Pair, &rec.From, &rec.To, &rec.Rate, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rec.FetchedAt = time.UnixMilli(fetchedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rates: %w", err)
	}
	return records, nil
}
