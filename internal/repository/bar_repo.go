package repository

import (
	"context"
	"fmt"
	"time"

	"incrementum/internal/model"
	"incrementum/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const barUpsertBatchSize = 500

type BarRepository interface {
	FindBySymbol(ctx context.Context, symbol string, intraday bool) ([]model.Bar, error)
	Upsert(ctx context.Context, bars []model.Bar, opts ...utils.DBOption) error
	LatestCloses(ctx context.Context, symbols []string) ([]model.SymbolValue, error)
	Highs(ctx context.Context, symbols []string, since time.Time) ([]model.SymbolValue, error)
	Lows(ctx context.Context, symbols []string, since time.Time) ([]model.SymbolValue, error)
	ReferenceCloses(ctx context.Context, symbols []string, hour int, timezone string) ([]model.ReferenceClose, error)
}

type barRepository struct {
	db *gorm.DB
}

func NewBarRepository(db *gorm.DB) BarRepository {
	return &barRepository{db: db}
}

func (r *barRepository) FindBySymbol(ctx context.Context, symbol string, intraday bool) ([]model.Bar, error) {
	var bars []model.Bar
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND is_intraday = ?", symbol, intraday).
		Order("timestamp ASC").
		Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}
	return bars, nil
}

// Upsert writes bars keyed by (symbol, timestamp, is_intraday); an existing
// key takes the new values.
func (r *barRepository) Upsert(ctx context.Context, bars []model.Bar, opts ...utils.DBOption) error {
	if len(bars) == 0 {
		return nil
	}
	db := utils.ApplyOptions(r.db, opts...).WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "timestamp"}, {Name: "is_intraday"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(bars, barUpsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d bars: %w", len(bars), err)
	}
	return nil
}

func (r *barRepository) LatestCloses(ctx context.Context, symbols []string) ([]model.SymbolValue, error) {
	return r.scanValues(ctx, "latest close",
		`SELECT DISTINCT ON (symbol) symbol, close AS value
FROM bars
WHERE symbol IN ?
ORDER BY symbol, timestamp DESC`, symbols)
}

func (r *barRepository) Highs(ctx context.Context, symbols []string, since time.Time) ([]model.SymbolValue, error) {
	return r.scanValues(ctx, "high",
		`SELECT symbol, MAX(high) AS value FROM bars WHERE symbol IN ? AND timestamp >= ? GROUP BY symbol`,
		symbols, since)
}

func (r *barRepository) Lows(ctx context.Context, symbols []string, since time.Time) ([]model.SymbolValue, error) {
	return r.scanValues(ctx, "low",
		`SELECT symbol, MIN(low) AS value FROM bars WHERE symbol IN ? AND timestamp >= ? GROUP BY symbol`,
		symbols, since)
}

func (r *barRepository) scanValues(ctx context.Context, what, query string, symbols []string, args ...interface{}) ([]model.SymbolValue, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	var values []model.SymbolValue
	if err := r.db.WithContext(ctx).Raw(query, append([]interface{}{symbols}, args...)...).Scan(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to scan %s per symbol: %w", what, err)
	}
	return values, nil
}

// ReferenceCloses returns, per symbol, the closes of the two most recent
// local dates that have an intraday bar in the given hour of timezone. Each
// date contributes its newest bar in that hour. Rank 1 is the newest.
func (r *barRepository) ReferenceCloses(ctx context.Context, symbols []string, hour int, timezone string) ([]model.ReferenceClose, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	query := `WITH local_bars AS (
	SELECT symbol, timestamp, close, timestamp AT TIME ZONE ? AS local_ts
	FROM bars
	WHERE symbol IN ? AND is_intraday = TRUE
), daily AS (
	SELECT DISTINCT ON (symbol, local_ts::date) symbol, timestamp, close
	FROM local_bars
	WHERE EXTRACT(HOUR FROM local_ts) = ?
	ORDER BY symbol, local_ts::date, timestamp DESC
)
SELECT symbol, timestamp, close, rn FROM (
	SELECT symbol, timestamp, close,
		ROW_NUMBER() OVER (PARTITION BY symbol ORDER BY timestamp DESC) AS rn
	FROM daily
) ranked
WHERE rn <= 2
ORDER BY symbol, rn`

	var closes []model.ReferenceClose
	if err := r.db.WithContext(ctx).Raw(query, timezone, symbols, hour).Scan(&closes).Error; err != nil {
		return nil, fmt.Errorf("failed to load reference closes: %w", err)
	}
	return closes, nil
}
