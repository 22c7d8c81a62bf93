package model

import "time"

// Symbol is one listed security. DayPercentChange and MetricUpdatedAt hold the
// cached derived metric; both are nil until the first computation.
type Symbol struct {
	Symbol              string     `gorm:"column:symbol;type:varchar(16);primaryKey" json:"symbol"`
	CompanyName         string     `gorm:"column:company_name;type:varchar(255);not null;default:''" json:"company_name"`
	Exchange            *string    `gorm:"column:exchange;type:varchar(32)" json:"exchange"`
	IndustryDescription *string    `gorm:"column:industry_description;type:text" json:"industry_description"`
	Description         *string    `gorm:"column:description;type:text" json:"description"`
	MarketCap           *float64   `gorm:"column:market_cap" json:"market_cap"`
	OutstandingShares   *float64   `gorm:"column:outstanding_shares" json:"outstanding_shares"`
	TotalEmployees      *int64     `gorm:"column:total_employees" json:"total_employees"`
	EPS                 *float64   `gorm:"column:eps" json:"eps"`
	DayPercentChange    *float64   `gorm:"column:day_percent_change;type:numeric(12,4)" json:"day_percent_change"`
	MetricUpdatedAt     *time.Time `gorm:"column:metric_updated_at" json:"metric_updated_at"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Symbol) TableName() string {
	return "symbols"
}

// ScreenQuery is a compiled screener request ready for the store. Where uses
// '?' placeholders bound from Args.
type ScreenQuery struct {
	Where         string
	Args          []interface{}
	OrderBy       string
	JoinLatestBar bool
	Offset        int
	Limit         int
}

// PercentChangeUpdate is one row of the batched derived-metric write. A nil
// Value means the metric could not be computed.
type PercentChangeUpdate struct {
	Symbol string
	Value  *float64
}
