package dto

import (
	"time"

	"incrementum/internal/model"
)

// Source tells where a history result came from.
type Source string

const (
	SourceNone     Source = ""
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
	SourceCombined Source = "combined"
	SourceStale    Source = "stale"
)

type HistoryParam struct {
	Symbol   string `json:"symbol" param:"symbol" validate:"required"`
	Period   string `json:"period" query:"period"`
	Interval string `json:"interval" query:"interval"`
}

type HistoryMetadata struct {
	Source        Source     `json:"source"`
	RecordCount   int        `json:"record_count"`
	IsCurrent     bool       `json:"is_current"`
	LastTimestamp *time.Time `json:"last_timestamp"`
}

type HistoryResult struct {
	Bars     []model.Bar     `json:"bars"`
	Metadata HistoryMetadata `json:"metadata"`
}

// NewHistoryResult fills the metadata counters from bars, which must be
// sorted ascending.
func NewHistoryResult(bars []model.Bar, source Source, isCurrent bool) *HistoryResult {
	result := &HistoryResult{
		Bars: bars,
		Metadata: HistoryMetadata{
			Source:      source,
			RecordCount: len(bars),
			IsCurrent:   isCurrent,
		},
	}
	if len(bars) > 0 {
		last := bars[len(bars)-1].Timestamp
		result.Metadata.LastTimestamp = &last
	}
	return result
}
