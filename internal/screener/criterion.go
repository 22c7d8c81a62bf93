package screener

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEquals             Operator = "equals"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpContains           Operator = "contains"
	OpBetween            Operator = "between"
)

type FilterType string

const (
	FilterNumeric     FilterType = "numeric"
	FilterCategorical FilterType = "categorical"
	FilterString      FilterType = "string"
)

// Criterion is one filter as submitted by a caller. Value is a scalar, or a
// two element slice for OpBetween.
type Criterion struct {
	Operator   Operator    `json:"operator"`
	Operand    string      `json:"operand"`
	FilterType FilterType  `json:"filter_type"`
	Value      interface{} `json:"value"`
}

var requiredKeys = []string{"operator", "operand", "filter_type", "value"}

// ParseCriteria converts decoded JSON objects into criteria. Every object must
// carry operator, operand, filter_type and value; the error names the index of
// the first one that does not.
func ParseCriteria(raw []map[string]interface{}) ([]Criterion, error) {
	criteria := make([]Criterion, 0, len(raw))
	for i, item := range raw {
		for _, key := range requiredKeys {
			if _, ok := item[key]; !ok {
				return nil, newFilterError(i, "", "missing required key %q", key)
			}
		}

		operator, ok := item["operator"].(string)
		if !ok {
			return nil, newFilterError(i, "", "operator must be a string")
		}
		operand, ok := item["operand"].(string)
		if !ok {
			return nil, newFilterError(i, "", "operand must be a string")
		}
		filterType, ok := item["filter_type"].(string)
		if !ok {
			return nil, newFilterError(i, operand, "filter_type must be a string")
		}

		criteria = append(criteria, Criterion{
			Operator:   Operator(strings.ToLower(strings.TrimSpace(operator))),
			Operand:    operand,
			FilterType: FilterType(strings.ToLower(strings.TrimSpace(filterType))),
			Value:      item["value"],
		})
	}
	return criteria, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toRange(v interface{}) (float64, float64, error) {
	var items []interface{}
	switch r := v.(type) {
	case []interface{}:
		items = r
	case []float64:
		for _, f := range r {
			items = append(items, f)
		}
	case []int:
		for _, n := range r {
			items = append(items, n)
		}
	default:
		return 0, 0, fmt.Errorf("between value must be a [low, high] pair")
	}
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("between value must have exactly 2 elements, got %d", len(items))
	}
	low, ok := toFloat(items[0])
	if !ok {
		return 0, 0, fmt.Errorf("between low bound must be numeric")
	}
	high, ok := toFloat(items[1])
	if !ok {
		return 0, 0, fmt.Errorf("between high bound must be numeric")
	}
	if low > high {
		return 0, 0, fmt.Errorf("between low bound %v is greater than high bound %v", low, high)
	}
	return low, high, nil
}
