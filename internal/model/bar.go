package model

import (
	"math"
	"time"
)

// Bar is one OHLCV observation. Prices are stored in cents.
type Bar struct {
	Symbol     string    `gorm:"column:symbol;type:varchar(16);primaryKey" json:"symbol"`
	Timestamp  time.Time `gorm:"column:timestamp;primaryKey" json:"timestamp"`
	IsIntraday bool      `gorm:"column:is_intraday;primaryKey" json:"is_intraday"`
	Open       int64     `gorm:"column:open;not null" json:"open"`
	High       int64     `gorm:"column:high;not null" json:"high"`
	Low        int64     `gorm:"column:low;not null" json:"low"`
	Close      int64     `gorm:"column:close;not null" json:"close"`
	Volume     int64     `gorm:"column:volume;not null" json:"volume"`
}

func (Bar) TableName() string {
	return "bars"
}

// BarKey identifies a bar within one granularity.
type BarKey struct {
	Symbol    string
	Timestamp int64
}

func (b Bar) Key() BarKey {
	return BarKey{Symbol: b.Symbol, Timestamp: b.Timestamp.UnixNano()}
}

func ToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func FromCents(v int64) float64 {
	return float64(v) / 100
}

// ReferenceClose is one close used by the percent-change computation, ranked
// newest first per symbol.
type ReferenceClose struct {
	Symbol    string    `gorm:"column:symbol"`
	Timestamp time.Time `gorm:"column:timestamp"`
	Close     int64     `gorm:"column:close"`
	Rank      int       `gorm:"column:rn"`
}

// SymbolValue is a per-symbol aggregate in cents.
type SymbolValue struct {
	Symbol string `gorm:"column:symbol"`
	Value  int64  `gorm:"column:value"`
}
