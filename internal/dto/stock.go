package dto

import "time"

type StockOHLCV struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

// StockData is what the market data provider returns for one symbol.
type StockData struct {
	Symbol      string       `json:"symbol"`
	CompanyName string       `json:"company_name"`
	Exchange    string       `json:"exchange"`
	MarketPrice float64      `json:"market_price"`
	Interval    string       `json:"interval"`
	OHLCV       []StockOHLCV `json:"ohlc"`
}

type GetHistoryParam struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval string
}

// Yahoo Finance API Response
type YahooFinanceResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}
