package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"incrementum/internal/model"
	"incrementum/internal/screener"
	"incrementum/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SymbolRepository interface {
	Screen(ctx context.Context, q model.ScreenQuery) ([]model.Symbol, int64, error)
	FindBySymbols(ctx context.Context, symbols []string) ([]model.Symbol, error)
	ListSymbols(ctx context.Context) ([]string, error)
	EnsureExists(ctx context.Context, symbol model.Symbol, opts ...utils.DBOption) error
	UpdateDayPercentChange(ctx context.Context, updates []model.PercentChangeUpdate, at time.Time) error
}

type symbolRepository struct {
	db *gorm.DB
}

func NewSymbolRepository(db *gorm.DB) SymbolRepository {
	return &symbolRepository{db: db}
}

// Screen counts the rows matching q before applying its page bounds.
func (s *symbolRepository) Screen(ctx context.Context, q model.ScreenQuery) ([]model.Symbol, int64, error) {
	base := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&model.Symbol{})
		if q.JoinLatestBar {
			db = db.Joins(screener.LatestBarJoin)
		}
		if q.Where != "" {
			db = db.Where(q.Where, q.Args...)
		}
		return db
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count screened symbols: %w", err)
	}
	if total == 0 {
		return []model.Symbol{}, 0, nil
	}

	query := base().Select("symbols.*").Order(q.OrderBy)
	if q.Limit > 0 {
		query = query.Offset(q.Offset).Limit(q.Limit)
	}

	var symbols []model.Symbol
	if err := query.Find(&symbols).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to screen symbols: %w", err)
	}
	return symbols, total, nil
}

func (s *symbolRepository) FindBySymbols(ctx context.Context, symbols []string) ([]model.Symbol, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	var result []model.Symbol
	err := s.db.WithContext(ctx).Where("symbol IN ?", symbols).Order("symbol ASC").Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find symbols: %w", err)
	}
	return result, nil
}

func (s *symbolRepository) ListSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := s.db.WithContext(ctx).Model(&model.Symbol{}).Order("symbol ASC").Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	return symbols, nil
}

// EnsureExists inserts the symbol on first sighting and leaves an existing
// row untouched.
func (s *symbolRepository) EnsureExists(ctx context.Context, symbol model.Symbol, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(s.db, opts...).WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&symbol).Error
	if err != nil {
		return fmt.Errorf("failed to ensure symbol %s: %w", symbol.Symbol, err)
	}
	return nil
}

// UpdateDayPercentChange writes every update in one statement and stamps
// metric_updated_at on all of them. A nil value keeps the stored one.
func (s *symbolRepository) UpdateDayPercentChange(ctx context.Context, updates []model.PercentChangeUpdate, at time.Time) error {
	if len(updates) == 0 {
		return nil
	}

	rows := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)*2+2)
	args = append(args, at, at)
	for _, u := range updates {
		rows = append(rows, "(?, CAST(? AS numeric))")
		args = append(args, u.Symbol, u.Value)
	}

	query := `UPDATE symbols AS s
SET day_percent_change = COALESCE(v.value, s.day_percent_change),
    metric_updated_at = ?,
    updated_at = ?
FROM (VALUES ` + strings.Join(rows, ", ") + `) AS v(symbol, value)
WHERE s.symbol = v.symbol`

	if err := s.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return fmt.Errorf("failed to update day percent change: %w", err)
	}
	return nil
}
