package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"incrementum/config"
	"incrementum/internal/dto"
	"incrementum/pkg/httpclient"
	"incrementum/pkg/logger"

	"golang.org/x/time/rate"
)

// ErrNoData is returned when the provider answers but has no usable bars.
var ErrNoData = errors.New("no data from market data provider")

// MarketDataProvider fetches OHLCV history from an external source.
type MarketDataProvider interface {
	GetHistory(ctx context.Context, param dto.GetHistoryParam) (*dto.StockData, error)
}

// yahooFinanceRepository reads the Yahoo Finance chart API.
type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	mu             sync.Mutex
}

// NewYahooFinanceRepository creates a provider limited to
// yahoo_finance.max_request_per_minute.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) MarketDataProvider {
	return newYahooFinanceRepository(cfg, log,
		httpclient.New(log, cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, ""))
}

func newYahooFinanceRepository(cfg *config.Config, log *logger.Logger, client httpclient.HTTPClient) *yahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		httpClient:     client,
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *yahooFinanceRepository) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.requestLimiter.Allow() {
		r.logger.WarnContext(ctx, "Yahoo Finance API request limit exceeded, waiting",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
		return r.requestLimiter.Wait(ctx)
	}
	return nil
}

func (r *yahooFinanceRepository) GetHistory(ctx context.Context, param dto.GetHistoryParam) (*dto.StockData, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	end := param.End
	if end.IsZero() {
		end = time.Now()
	}
	queryParams := map[string]string{
		"period1":        strconv.FormatInt(param.Start.Unix(), 10),
		"period2":        strconv.FormatInt(end.Unix(), 10),
		"interval":       param.Interval,
		"includePrePost": "false",
		"events":         "div,split",
	}

	headers := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.httpClient.Get(ctx, "/"+param.Symbol, queryParams, headers, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: symbol %s not found", ErrNoData, param.Symbol)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance api error %s: %s", yahooResp.Chart.Error.Code, yahooResp.Chart.Error.Description)
	}
	if len(yahooResp.Chart.Result) == 0 || len(yahooResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, param.Symbol)
	}

	result := yahooResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	ohlcv := make([]dto.StockOHLCV, 0, len(result.Timestamp))
	for i, timestamp := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}

		// null points decode as zero
		if quote.Open[i] == 0 || quote.High[i] == 0 || quote.Low[i] == 0 || quote.Close[i] == 0 {
			continue
		}

		ohlcv = append(ohlcv, dto.StockOHLCV{
			Timestamp: timestamp,
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}

	if len(ohlcv) == 0 {
		return nil, fmt.Errorf("%w: no valid OHLCV for %s", ErrNoData, param.Symbol)
	}

	companyName := result.Meta.LongName
	if companyName == "" {
		companyName = result.Meta.ShortName
	}

	return &dto.StockData{
		Symbol:      param.Symbol,
		CompanyName: companyName,
		Exchange:    result.Meta.ExchangeName,
		MarketPrice: result.Meta.RegularMarketPrice,
		Interval:    param.Interval,
		OHLCV:       ohlcv,
	}, nil
}
