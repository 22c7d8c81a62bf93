package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"incrementum/config"
	"incrementum/internal/model"
	"incrementum/internal/repository"
	"incrementum/pkg/cache"
	"incrementum/pkg/common"
	"incrementum/pkg/logger"
	"incrementum/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type MetricService interface {
	DayPercentChange(ctx context.Context, symbols []string) (map[string]float64, error)
	FiftyTwoWeekHigh(ctx context.Context, symbols []string) (map[string]float64, error)
	FiftyTwoWeekLow(ctx context.Context, symbols []string) (map[string]float64, error)
	LatestPrice(ctx context.Context, symbols []string) (map[string]float64, error)
	RefreshAll(ctx context.Context) error
}

type metricService struct {
	cfg        *config.Config
	log        *logger.Logger
	now        utils.Clock
	cache      cache.Cache
	symbolRepo repository.SymbolRepository
	barRepo    repository.BarRepository
}

func NewMetricService(
	cfg *config.Config,
	log *logger.Logger,
	now utils.Clock,
	inmemoryCache cache.Cache,
	symbolRepo repository.SymbolRepository,
	barRepo repository.BarRepository,
) MetricService {
	return &metricService{
		cfg:        cfg,
		log:        log,
		now:        now,
		cache:      inmemoryCache,
		symbolRepo: symbolRepo,
		barRepo:    barRepo,
	}
}

// IsFresh reports whether a cached metric may be served as is.
func IsFresh(value *float64, updatedAt *time.Time, now time.Time, ttl time.Duration) bool {
	if value == nil || updatedAt == nil {
		return false
	}
	return now.Sub(*updatedAt) < ttl
}

// PercentChange returns the change from previous to newest in percent,
// rounded to four decimals. It is not computable when previous is zero.
func PercentChange(previous, newest int64) (float64, bool) {
	if previous == 0 {
		return 0, false
	}
	change := float64(newest-previous) * 100 / float64(previous)
	return math.Round(change*10000) / 10000, true
}

// DayPercentChange serves fresh cached values and recomputes the rest from the
// reference bars in one scan and one write. A symbol whose change cannot be
// computed keeps its previous value, if any, and is otherwise left out.
func (s *metricService) DayPercentChange(ctx context.Context, symbols []string) (map[string]float64, error) {
	symbols = utils.NormalizeSymbols(symbols)
	result := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}

	rows, err := s.symbolRepo.FindBySymbols(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached percent change: %w", err)
	}
	bySymbol := make(map[string]model.Symbol, len(rows))
	for _, row := range rows {
		bySymbol[row.Symbol] = row
	}

	now := s.now()
	ttl := s.cfg.Metrics.PercentChangeTTL
	var stale []string
	for _, sym := range symbols {
		row, ok := bySymbol[sym]
		if ok && IsFresh(row.DayPercentChange, row.MetricUpdatedAt, now, ttl) {
			result[sym] = *row.DayPercentChange
			continue
		}
		stale = append(stale, sym)
	}
	if len(stale) == 0 {
		return result, nil
	}

	closes, err := s.barRepo.ReferenceCloses(ctx, stale, s.cfg.Metrics.ReferenceHour, s.cfg.Metrics.ReferenceTimezone)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load reference closes, serving previous values",
			logger.ErrorField(err), logger.StringsField("symbols", stale))
		for _, sym := range stale {
			if row, ok := bySymbol[sym]; ok && row.DayPercentChange != nil {
				result[sym] = *row.DayPercentChange
			}
		}
		return result, nil
	}

	computed := computePercentChanges(closes)
	updates := make([]model.PercentChangeUpdate, 0, len(stale))
	for _, sym := range stale {
		value, ok := computed[sym]
		if ok {
			result[sym] = value
			updates = append(updates, model.PercentChangeUpdate{Symbol: sym, Value: utils.ToPointer(value)})
			continue
		}
		updates = append(updates, model.PercentChangeUpdate{Symbol: sym})
		if row, ok := bySymbol[sym]; ok && row.DayPercentChange != nil {
			result[sym] = *row.DayPercentChange
		}
	}

	if err := s.symbolRepo.UpdateDayPercentChange(ctx, updates, now); err != nil {
		s.log.ErrorContext(ctx, "Failed to persist percent change",
			logger.ErrorField(err), logger.IntField("symbol_count", len(updates)))
	}
	return result, nil
}

// computePercentChanges pairs the rank 1 and rank 2 close of every symbol.
func computePercentChanges(closes []model.ReferenceClose) map[string]float64 {
	newest := make(map[string]int64)
	previous := make(map[string]int64)
	for _, c := range closes {
		switch c.Rank {
		case 1:
			newest[c.Symbol] = c.Close
		case 2:
			previous[c.Symbol] = c.Close
		}
	}

	out := make(map[string]float64, len(newest))
	for sym, n := range newest {
		p, ok := previous[sym]
		if !ok {
			continue
		}
		if change, ok := PercentChange(p, n); ok {
			out[sym] = change
		}
	}
	return out
}

func (s *metricService) FiftyTwoWeekHigh(ctx context.Context, symbols []string) (map[string]float64, error) {
	return s.memoized(ctx, symbols, common.KEY_FIFTY_TWO_WEEK_HIGH, func(ctx context.Context, missing []string) ([]model.SymbolValue, error) {
		return s.barRepo.Highs(ctx, missing, s.now().Add(-s.cfg.Metrics.FiftyTwoWeekWindow))
	})
}

func (s *metricService) FiftyTwoWeekLow(ctx context.Context, symbols []string) (map[string]float64, error) {
	return s.memoized(ctx, symbols, common.KEY_FIFTY_TWO_WEEK_LOW, func(ctx context.Context, missing []string) ([]model.SymbolValue, error) {
		return s.barRepo.Lows(ctx, missing, s.now().Add(-s.cfg.Metrics.FiftyTwoWeekWindow))
	})
}

func (s *metricService) LatestPrice(ctx context.Context, symbols []string) (map[string]float64, error) {
	return s.memoized(ctx, symbols, common.KEY_LAST_PRICE, s.barRepo.LatestCloses)
}

// memoized answers from the in-process cache and scans the store once for
// every symbol it misses. Symbols without bars are left out.
func (s *metricService) memoized(
	ctx context.Context,
	symbols []string,
	keyFormat string,
	scan func(ctx context.Context, symbols []string) ([]model.SymbolValue, error),
) (map[string]float64, error) {
	symbols = utils.NormalizeSymbols(symbols)
	result := make(map[string]float64, len(symbols))

	var missing []string
	for _, sym := range symbols {
		if v, ok := cache.GetFromCache[float64](s.cache, fmt.Sprintf(keyFormat, sym)); ok {
			result[sym] = v
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return result, nil
	}

	values, err := scan(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		price := model.FromCents(v.Value)
		result[v.Symbol] = price
		s.cache.Set(fmt.Sprintf(keyFormat, v.Symbol), price, s.cfg.Cache.MetricExpiration)
	}
	return result, nil
}

// RefreshAll recomputes the percent change of every known symbol in batches.
func (s *metricService) RefreshAll(ctx context.Context) error {
	symbols, err := s.symbolRepo.ListSymbols(ctx)
	if err != nil {
		return err
	}
	batches := utils.Chunk(symbols, s.cfg.Scheduler.BatchSize)
	s.log.InfoContext(ctx, "Refreshing percent change",
		logger.IntField("symbol_count", len(symbols)),
		logger.IntField("batch_count", len(batches)),
	)

	g, gctx := errgroup.WithContext(ctx)
	limit := s.cfg.Scheduler.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			if !utils.ShouldContinue(gctx, s.log) {
				return gctx.Err()
			}
			_, err := s.DayPercentChange(gctx, batch)
			return err
		})
	}
	return g.Wait()
}

// invalidateBarMetrics drops memoized bar metrics of symbol.
func invalidateBarMetrics(c cache.Cache, symbol string) {
	for _, keyFormat := range []string{common.KEY_LAST_PRICE, common.KEY_FIFTY_TWO_WEEK_HIGH, common.KEY_FIFTY_TWO_WEEK_LOW} {
		c.Delete(fmt.Sprintf(keyFormat, symbol))
	}
}
