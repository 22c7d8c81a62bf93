package screener

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_EmptyMatchesAll(t *testing.T) {
	pred, err := Compile(nil)
	require.NoError(t, err)
	assert.True(t, pred.MatchAll())
	assert.Nil(t, pred.Root())

	where, args := pred.SQL()
	assert.Empty(t, where)
	assert.Empty(t, args)
	assert.False(t, pred.NeedsLatestPrice())
}

func TestCompile_Grouping(t *testing.T) {
	pred, err := Compile([]Criterion{
		{Operator: OpEquals, Operand: "ticker", FilterType: FilterCategorical, Value: "aapl"},
		{Operator: OpGreaterThan, Operand: "market_cap", FilterType: FilterNumeric, Value: 10},
		{Operator: OpContains, Operand: "symbol", FilterType: FilterString, Value: "MS"},
		{Operator: OpLessThan, Operand: "market_cap", FilterType: FilterNumeric, Value: 20},
		{Operator: OpEquals, Operand: "exchange", FilterType: FilterCategorical, Value: "NYSE"},
	})
	require.NoError(t, err)

	root, ok := pred.Root().(*Group)
	require.True(t, ok)
	assert.Equal(t, ConjAnd, root.Conj)
	require.Len(t, root.Children, 3)

	symbols, ok := root.Children[0].(*Group)
	require.True(t, ok)
	assert.Equal(t, ConjOr, symbols.Conj)
	assert.Len(t, symbols.Children, 2)

	marketCap, ok := root.Children[1].(*Group)
	require.True(t, ok)
	assert.Equal(t, ConjAnd, marketCap.Conj)
	assert.Len(t, marketCap.Children, 2)

	exchange, ok := root.Children[2].(Leaf)
	require.True(t, ok)
	assert.Equal(t, "exchange", exchange.Operand.Name)
}

func TestCompile_Wildcard(t *testing.T) {
	tests := []struct {
		pattern  string
		wantLike string
	}{
		{"A*", "A%"},
		{"*L", "%L"},
		{"Q*B", "Q%B"},
		{"a*b*", "a%b%"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			pred, err := Compile([]Criterion{
				{Operator: OpContains, Operand: "symbol", FilterType: FilterString, Value: tt.pattern},
			})
			require.NoError(t, err)

			leaf, ok := pred.Root().(*Group).Children[0].(Leaf)
			require.True(t, ok)
			assert.True(t, leaf.Wildcard)

			where, args := pred.SQL()
			assert.Equal(t, `(symbols.symbol ILIKE ? ESCAPE '\')`, where)
			assert.Equal(t, []interface{}{tt.wantLike}, args)
		})
	}
}

func TestCompile_PriceResolvesToLatestClose(t *testing.T) {
	pred, err := Compile([]Criterion{
		{Operator: OpGreaterThan, Operand: "pps", FilterType: FilterNumeric, Value: 1300},
	})
	require.NoError(t, err)
	assert.True(t, pred.NeedsLatestPrice())

	where, args := pred.SQL()
	assert.Equal(t, "(latest_bar.close > CAST(? AS double precision))", where)
	assert.Equal(t, []interface{}{1300.0}, args)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name      string
		criterion Criterion
	}{
		{"unknown operand", Criterion{Operator: OpEquals, Operand: "colour", FilterType: FilterCategorical, Value: "red"}},
		{"between too short", Criterion{Operator: OpBetween, Operand: "eps", FilterType: FilterNumeric, Value: []interface{}{1.0}}},
		{"between too long", Criterion{Operator: OpBetween, Operand: "eps", FilterType: FilterNumeric, Value: []interface{}{1.0, 2.0, 3.0}}},
		{"between inverted", Criterion{Operator: OpBetween, Operand: "eps", FilterType: FilterNumeric, Value: []interface{}{5.0, 2.0}}},
		{"unsupported filter type", Criterion{Operator: OpEquals, Operand: "eps", FilterType: "boolean", Value: 1}},
		{"numeric on text field", Criterion{Operator: OpGreaterThan, Operand: "exchange", FilterType: FilterNumeric, Value: 1}},
		{"text on numeric field", Criterion{Operator: OpEquals, Operand: "eps", FilterType: FilterCategorical, Value: "1"}},
		{"non numeric value", Criterion{Operator: OpGreaterThan, Operand: "eps", FilterType: FilterNumeric, Value: "abc"}},
		{"contains on numeric", Criterion{Operator: OpContains, Operand: "eps", FilterType: FilterNumeric, Value: 1}},
		{"unknown operator", Criterion{Operator: "like", Operand: "symbol", FilterType: FilterString, Value: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := Criterion{Operator: OpEquals, Operand: "symbol", FilterType: FilterString, Value: "AAPL"}
			_, err := Compile([]Criterion{valid, tt.criterion})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilter))

			var fe *FilterError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, 1, fe.Index)
		})
	}
}

func TestParseCriteria(t *testing.T) {
	criteria, err := ParseCriteria([]map[string]interface{}{
		{"operator": "GREATER_THAN", "operand": "market_cap", "filter_type": "Numeric", "value": 10.0},
	})
	require.NoError(t, err)
	require.Len(t, criteria, 1)
	assert.Equal(t, OpGreaterThan, criteria[0].Operator)
	assert.Equal(t, FilterNumeric, criteria[0].FilterType)

	_, err = ParseCriteria([]map[string]interface{}{
		{"operator": "equals", "operand": "symbol", "filter_type": "string", "value": "A"},
		{"operator": "equals", "operand": "symbol", "value": "B"},
	})
	require.Error(t, err)
	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Index)
	assert.Contains(t, err.Error(), "filter_type")
}
