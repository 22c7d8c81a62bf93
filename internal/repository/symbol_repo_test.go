package repository

import (
	"context"
	"testing"
	"time"

	"incrementum/internal/model"
	"incrementum/internal/screener"
	"incrementum/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedScreenFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	symbols := []model.Symbol{
		{Symbol: "MSFT", CompanyName: "Microsoft Corp", Exchange: utils.ToPointer("NASDAQ"), MarketCap: utils.ToPointer(250.0)},
		{Symbol: "AAPL", CompanyName: "Apple Inc", Exchange: utils.ToPointer("NASDAQ"), MarketCap: utils.ToPointer(100.0), EPS: utils.ToPointer(1.5)},
		{Symbol: "QUAD", CompanyName: "Quad Graphics", Exchange: utils.ToPointer("NYSE")},
		{Symbol: "ABNB", CompanyName: "Airbnb Inc", Exchange: utils.ToPointer("NASDAQ"), MarketCap: utils.ToPointer(150.0)},
		{Symbol: "QUAB", CompanyName: "Quab Holdings", Exchange: utils.ToPointer("NYSE"), MarketCap: utils.ToPointer(50.0)},
		{Symbol: "GOOGL", CompanyName: "Alphabet Inc", Exchange: utils.ToPointer("NASDAQ"), MarketCap: utils.ToPointer(200.0)},
	}
	require.NoError(t, db.Create(&symbols).Error)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		{Symbol: "AAPL", Timestamp: day, Close: 1200},
		{Symbol: "AAPL", Timestamp: day.AddDate(0, 0, 1), Close: 1500},
		{Symbol: "MSFT", Timestamp: day, Close: 1400},
		{Symbol: "MSFT", Timestamp: day.AddDate(0, 0, 1), Close: 1100},
	}
	require.NoError(t, NewBarRepository(db).Upsert(context.Background(), bars))
}

func screenSymbols(t *testing.T, repo SymbolRepository, criteria []screener.Criterion, sortBy, sortOrder string, page, pageSize int) ([]string, int64) {
	t.Helper()
	q, err := screener.BuildQuery(criteria, sortBy, sortOrder, page, pageSize)
	require.NoError(t, err)
	rows, total, err := repo.Screen(context.Background(), q)
	require.NoError(t, err)

	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.Symbol)
	}
	return got, total
}

func TestSymbolRepository_ScreenFilters(t *testing.T) {
	db := newTestDB(t)
	seedScreenFixture(t, db)
	repo := NewSymbolRepository(db)

	marketCap := func(op screener.Operator, v interface{}) screener.Criterion {
		return screener.Criterion{Operator: op, Operand: "market_cap", FilterType: screener.FilterNumeric, Value: v}
	}
	symbolContains := func(v string) screener.Criterion {
		return screener.Criterion{Operator: screener.OpContains, Operand: "symbol", FilterType: screener.FilterString, Value: v}
	}

	tests := []struct {
		name     string
		criteria []screener.Criterion
		want     []string
	}{
		{"empty matches all", nil, []string{"AAPL", "ABNB", "GOOGL", "MSFT", "QUAB", "QUAD"}},
		{"greater than", []screener.Criterion{marketCap(screener.OpGreaterThan, 150)}, []string{"GOOGL", "MSFT"}},
		{"greater than or equal", []screener.Criterion{marketCap(screener.OpGreaterThanOrEqual, 150)}, []string{"ABNB", "GOOGL", "MSFT"}},
		{"less than", []screener.Criterion{marketCap(screener.OpLessThan, 150)}, []string{"AAPL", "QUAB"}},
		{"less than or equal", []screener.Criterion{marketCap(screener.OpLessThanOrEqual, 150)}, []string{"AAPL", "ABNB", "QUAB"}},
		{"numeric equals", []screener.Criterion{marketCap(screener.OpEquals, 150)}, []string{"ABNB"}},
		{
			"same operand numeric is intersection",
			[]screener.Criterion{marketCap(screener.OpGreaterThanOrEqual, 100), marketCap(screener.OpLessThanOrEqual, 200.0)},
			[]string{"AAPL", "ABNB", "GOOGL"},
		},
		{"between", []screener.Criterion{marketCap(screener.OpBetween, []interface{}{100.0, 200.0})}, []string{"AAPL", "ABNB", "GOOGL"}},
		{
			"same operand categorical is union",
			[]screener.Criterion{
				{Operator: screener.OpEquals, Operand: "ticker", FilterType: screener.FilterCategorical, Value: "aapl"},
				symbolContains("MS"),
			},
			[]string{"AAPL", "MSFT"},
		},
		{
			"different operands intersect",
			[]screener.Criterion{
				{Operator: screener.OpEquals, Operand: "exchange", FilterType: screener.FilterCategorical, Value: "nyse"},
				marketCap(screener.OpGreaterThan, 10),
			},
			[]string{"QUAB"},
		},
		{"wildcard prefix", []screener.Criterion{symbolContains("A*")}, []string{"AAPL", "ABNB"}},
		{"wildcard ignores case", []screener.Criterion{symbolContains("a*")}, []string{"AAPL", "ABNB"}},
		{"wildcard suffix", []screener.Criterion{symbolContains("*L")}, []string{"AAPL", "GOOGL"}},
		{"wildcard infix", []screener.Criterion{symbolContains("Q*B")}, []string{"QUAB"}},
		{"wildcard no match", []screener.Criterion{symbolContains("Z*")}, []string{}},
		{
			"literal contains is substring",
			[]screener.Criterion{{Operator: screener.OpContains, Operand: "company_name", FilterType: screener.FilterString, Value: "inc"}},
			[]string{"AAPL", "ABNB", "GOOGL"},
		},
		{
			"null never matches",
			[]screener.Criterion{{Operator: screener.OpLessThan, Operand: "eps", FilterType: screener.FilterNumeric, Value: 100}},
			[]string{"AAPL"},
		},
		{
			"price uses latest bar",
			[]screener.Criterion{{Operator: screener.OpGreaterThan, Operand: "pps", FilterType: screener.FilterNumeric, Value: 1300}},
			[]string{"AAPL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := screenSymbols(t, repo, tt.criteria, "", "", 0, 0)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestSymbolRepository_ScreenOrderAndPages(t *testing.T) {
	db := newTestDB(t)
	seedScreenFixture(t, db)
	repo := NewSymbolRepository(db)

	nasdaq := []screener.Criterion{
		{Operator: screener.OpEquals, Operand: "exchange", FilterType: screener.FilterCategorical, Value: "NASDAQ"},
	}

	tests := []struct {
		name      string
		criteria  []screener.Criterion
		sortBy    string
		sortOrder string
		page      int
		pageSize  int
		want      []string
		wantTotal int64
	}{
		{"nulls sort last", nil, "market_cap", "desc", 0, 0, []string{"MSFT", "GOOGL", "ABNB", "AAPL", "QUAB", "QUAD"}, 6},
		{"price sort", nil, "price", "desc", 0, 0, []string{"AAPL", "MSFT", "ABNB", "GOOGL", "QUAB", "QUAD"}, 6},
		{"second page", nil, "", "", 2, 2, []string{"GOOGL", "MSFT"}, 6},
		{"page zero is first page", nil, "", "", 0, 2, []string{"AAPL", "ABNB"}, 6},
		{"partial last page", nil, "", "", 2, 4, []string{"QUAB", "QUAD"}, 6},
		{"past the end", nil, "", "", 9, 4, []string{}, 6},
		{"total counts before paging", nasdaq, "", "", 1, 2, []string{"AAPL", "ABNB"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := screenSymbols(t, repo, tt.criteria, tt.sortBy, tt.sortOrder, tt.page, tt.pageSize)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestSymbolRepository_UpdateDayPercentChange(t *testing.T) {
	db := newTestDB(t)
	repo := NewSymbolRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureExists(ctx, model.Symbol{Symbol: "AAPL", CompanyName: "Apple Inc"}))
	require.NoError(t, repo.EnsureExists(ctx, model.Symbol{Symbol: "MSFT", CompanyName: "Microsoft Corp"}))
	require.NoError(t, repo.EnsureExists(ctx, model.Symbol{Symbol: "AAPL", CompanyName: "renamed"}))

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateDayPercentChange(ctx, []model.PercentChangeUpdate{
		{Symbol: "AAPL", Value: utils.ToPointer(2.5)},
		{Symbol: "MSFT", Value: utils.ToPointer(-1.25)},
	}, first))

	second := first.Add(time.Hour)
	require.NoError(t, repo.UpdateDayPercentChange(ctx, []model.PercentChangeUpdate{
		{Symbol: "AAPL", Value: nil},
		{Symbol: "MSFT", Value: utils.ToPointer(3.0)},
	}, second))

	rows, err := repo.FindBySymbols(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Apple Inc", rows[0].CompanyName)
	require.NotNil(t, rows[0].DayPercentChange)
	assert.Equal(t, 2.5, *rows[0].DayPercentChange)
	require.NotNil(t, rows[0].MetricUpdatedAt)
	assert.True(t, second.Equal(*rows[0].MetricUpdatedAt))

	require.NotNil(t, rows[1].DayPercentChange)
	assert.Equal(t, 3.0, *rows[1].DayPercentChange)
}
