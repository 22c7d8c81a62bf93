package dto

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidInterval = errors.New("invalid interval")
)

// Provider intervals. Everything below a day is stored as intraday bars.
const (
	Interval1Min   = "1m"
	Interval2Min   = "2m"
	Interval5Min   = "5m"
	Interval15Min  = "15m"
	Interval30Min  = "30m"
	Interval60Min  = "60m"
	Interval90Min  = "90m"
	Interval1Hour  = "1h"
	Interval1Day   = "1d"
	Interval5Day   = "5d"
	Interval1Week  = "1wk"
	Interval1Month = "1mo"
	Interval3Month = "3mo"
)

const (
	Period1Day   = "1d"
	Period5Day   = "5d"
	Period1Month = "1mo"
	Period3Month = "3mo"
	Period6Month = "6mo"
	Period1Year  = "1y"
	Period2Year  = "2y"
	Period5Year  = "5y"
	Period10Year = "10y"
	PeriodYTD    = "ytd"
	PeriodMax    = "max"
)

var intradayIntervals = map[string]bool{
	Interval1Min:   true,
	Interval2Min:   true,
	Interval5Min:   true,
	Interval15Min:  true,
	Interval30Min:  true,
	Interval60Min:  true,
	Interval90Min:  true,
	Interval1Hour:  true,
	Interval1Day:   false,
	Interval5Day:   false,
	Interval1Week:  false,
	Interval1Month: false,
	Interval3Month: false,
}

// IsIntradayInterval reports whether bars of interval are stored as intraday.
func IsIntradayInterval(interval string) (bool, error) {
	intraday, ok := intradayIntervals[interval]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	return intraday, nil
}

// PeriodStart maps a provider period to the first instant it covers.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case Period1Day:
		return now.AddDate(0, 0, -1), nil
	case Period5Day:
		return now.AddDate(0, 0, -5), nil
	case Period1Month:
		return now.AddDate(0, -1, 0), nil
	case Period3Month:
		return now.AddDate(0, -3, 0), nil
	case Period6Month:
		return now.AddDate(0, -6, 0), nil
	case Period1Year:
		return now.AddDate(-1, 0, 0), nil
	case Period2Year:
		return now.AddDate(-2, 0, 0), nil
	case Period5Year:
		return now.AddDate(-5, 0, 0), nil
	case Period10Year:
		return now.AddDate(-10, 0, 0), nil
	case PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case PeriodMax:
		return time.Unix(0, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
}
