package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"incrementum/config"
	"incrementum/internal/dto"
	"incrementum/internal/model"
	"incrementum/internal/repository"
	"incrementum/pkg/cache"
	"incrementum/pkg/logger"
	"incrementum/pkg/utils"

	"golang.org/x/sync/singleflight"
)

type HistoryService interface {
	History(ctx context.Context, param dto.HistoryParam) (*dto.HistoryResult, error)
}

type historyService struct {
	cfg        *config.Config
	log        *logger.Logger
	now        utils.Clock
	cache      cache.Cache
	barRepo    repository.BarRepository
	symbolRepo repository.SymbolRepository
	provider   repository.MarketDataProvider
	uow        repository.UnitOfWork
	inflight   singleflight.Group
}

func NewHistoryService(
	cfg *config.Config,
	log *logger.Logger,
	now utils.Clock,
	inmemoryCache cache.Cache,
	barRepo repository.BarRepository,
	symbolRepo repository.SymbolRepository,
	provider repository.MarketDataProvider,
	uow repository.UnitOfWork,
) HistoryService {
	return &historyService{
		cfg:        cfg,
		log:        log,
		now:        now,
		cache:      inmemoryCache,
		barRepo:    barRepo,
		symbolRepo: symbolRepo,
		provider:   provider,
		uow:        uow,
	}
}

// History serves bars from the store while they are current, tops them up
// from the provider when stale and falls back to the stale copy when the
// provider fails. Only invalid input is returned as an error.
func (s *historyService) History(ctx context.Context, param dto.HistoryParam) (*dto.HistoryResult, error) {
	symbol := utils.NormalizeSymbol(param.Symbol)
	if symbol == "" {
		return nil, dto.ErrInvalidSymbol
	}
	period := strings.ToLower(param.Period)
	if period == "" {
		period = dto.Period1Year
	}
	interval := strings.ToLower(param.Interval)
	if interval == "" {
		interval = dto.Interval1Day
	}

	intraday, err := dto.IsIntradayInterval(interval)
	if err != nil {
		return nil, err
	}
	start, err := dto.PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}

	// Concurrent callers for the same series share one load. The load must
	// not die with whichever caller started it.
	key := historyKey(symbol, interval, period)
	v, _, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), symbol, interval, intraday, start), nil
	})
	if shared {
		s.log.DebugContext(ctx, "History load shared", logger.StringField("key", key))
	}

	result := v.(*dto.HistoryResult)
	bars := make([]model.Bar, len(result.Bars))
	copy(bars, result.Bars)
	return dto.NewHistoryResult(bars, result.Metadata.Source, result.Metadata.IsCurrent), nil
}

func (s *historyService) load(ctx context.Context, symbol, interval string, intraday bool, start time.Time) *dto.HistoryResult {
	persisted, err := s.barRepo.FindBySymbol(ctx, symbol, intraday)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load persisted bars, falling back to provider",
			logger.ErrorField(err), logger.StringField("symbol", symbol))
		persisted = nil
	}

	now := s.now()
	if len(persisted) == 0 {
		fetched, data := s.fetch(ctx, symbol, interval, intraday, start, now)
		if len(fetched) == 0 {
			return dto.NewHistoryResult([]model.Bar{}, dto.SourceNone, false)
		}
		s.persist(ctx, symbol, data, fetched)
		return dto.NewHistoryResult(MergeBars(nil, fetched), dto.SourceProvider, true)
	}

	last := persisted[len(persisted)-1].Timestamp
	if now.Sub(last) <= s.cfg.History.MaxAge {
		return dto.NewHistoryResult(persisted, dto.SourceCache, true)
	}

	delta, data := s.fetch(ctx, symbol, interval, intraday, last, now)
	if len(delta) == 0 {
		s.log.WarnContext(ctx, "Serving stale history",
			logger.StringField("symbol", symbol),
			logger.StringField("interval", interval),
			logger.Field("last_timestamp", last),
		)
		return dto.NewHistoryResult(persisted, dto.SourceStale, false)
	}

	s.persist(ctx, symbol, data, delta)
	return dto.NewHistoryResult(MergeBars(persisted, delta), dto.SourceCombined, true)
}

// fetch asks the provider for [start, end]. Any failure is logged and reported
// as no bars.
func (s *historyService) fetch(ctx context.Context, symbol, interval string, intraday bool, start, end time.Time) ([]model.Bar, *dto.StockData) {
	data, err := s.provider.GetHistory(ctx, dto.GetHistoryParam{
		Symbol:   symbol,
		Start:    start,
		End:      end,
		Interval: interval,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoData) {
			s.log.InfoContext(ctx, "Provider has no data", logger.StringField("symbol", symbol))
		} else {
			s.log.ErrorContext(ctx, "Provider request failed",
				logger.ErrorField(err), logger.StringField("symbol", symbol))
		}
		return nil, nil
	}
	if data == nil {
		return nil, nil
	}
	return toBars(symbol, intraday, data.OHLCV), data
}

// persist upserts the fetched bars together with the first sighting of the
// symbol. Failures are logged; the caller still gets the fetched data.
func (s *historyService) persist(ctx context.Context, symbol string, data *dto.StockData, bars []model.Bar) {
	row := model.Symbol{Symbol: symbol}
	if data != nil {
		row.CompanyName = data.CompanyName
		if data.Exchange != "" {
			row.Exchange = utils.ToPointer(data.Exchange)
		}
	}

	err := s.uow.Run(ctx, func(opts ...utils.DBOption) error {
		if err := s.symbolRepo.EnsureExists(ctx, row, opts...); err != nil {
			return err
		}
		return s.barRepo.Upsert(ctx, bars, opts...)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to persist bars",
			logger.ErrorField(err),
			logger.StringField("symbol", symbol),
			logger.IntField("bar_count", len(bars)),
		)
		return
	}
	invalidateBarMetrics(s.cache, symbol)
}

func toBars(symbol string, intraday bool, ohlcv []dto.StockOHLCV) []model.Bar {
	bars := make([]model.Bar, 0, len(ohlcv))
	for _, c := range ohlcv {
		bars = append(bars, model.Bar{
			Symbol:     symbol,
			Timestamp:  time.Unix(c.Timestamp, 0).UTC(),
			IsIntraday: intraday,
			Open:       model.ToCents(c.Open),
			High:       model.ToCents(c.High),
			Low:        model.ToCents(c.Low),
			Close:      model.ToCents(c.Close),
			Volume:     c.Volume,
		})
	}
	return bars
}

// MergeBars concatenates persisted and fetched, keeps the fetched bar on a key
// collision and sorts the result by timestamp.
func MergeBars(persisted, fetched []model.Bar) []model.Bar {
	index := make(map[model.BarKey]int, len(persisted)+len(fetched))
	merged := make([]model.Bar, 0, len(persisted)+len(fetched))
	for _, group := range [][]model.Bar{persisted, fetched} {
		for _, b := range group {
			if i, ok := index[b.Key()]; ok {
				merged[i] = b
				continue
			}
			index[b.Key()] = len(merged)
			merged = append(merged, b)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

func historyKey(symbol, interval, period string) string {
	return fmt.Sprintf("%s|%s|%s", symbol, interval, period)
}
