package dto

import "incrementum/internal/model"

// ScreenParam is one screener request. Filters are raw JSON objects; they are
// validated by the screener package.
type ScreenParam struct {
	Filters   []map[string]interface{} `json:"filters"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
	Page      int                      `json:"page" validate:"gte=0"`
	PageSize  int                      `json:"page_size" validate:"gte=0,lte=1000"`
}

type ScreenResult struct {
	Records    []model.Symbol `json:"records"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page,omitempty"`
	PageSize   int            `json:"page_size,omitempty"`
}

// SymbolsQuery carries the comma separated symbol list of metric endpoints.
type SymbolsQuery struct {
	Symbols string `query:"symbols" validate:"required"`
}
