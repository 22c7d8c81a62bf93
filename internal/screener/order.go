package screener

import (
	"strings"

	"incrementum/pkg/common"
)

// Order is the sort applied to a screen. Symbol ascending always breaks ties.
type Order struct {
	Operand Operand
	Desc    bool
}

// DefaultOrder sorts by symbol ascending.
var DefaultOrder = Order{Operand: operandSymbol}

// ResolveOrder validates sort_by and sort_order. An empty sortBy falls back to
// DefaultOrder.
func ResolveOrder(sortBy, sortOrder string) (Order, error) {
	var desc bool
	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "", common.SortOrderAsc:
	case common.SortOrderDesc:
		desc = true
	default:
		return Order{}, newFilterError(-1, "", "unsupported sort_order %q", sortOrder)
	}

	if strings.TrimSpace(sortBy) == "" {
		return DefaultOrder, nil
	}
	operand, ok := LookupOperand(sortBy)
	if !ok {
		return Order{}, newFilterError(-1, sortBy, "unknown sort_by field")
	}
	return Order{Operand: operand, Desc: desc}, nil
}

func (o Order) direction() string {
	if o.Desc {
		return "DESC"
	}
	return "ASC"
}

// SQL renders the ORDER BY clause without the keyword.
func (o Order) SQL() string {
	if o.Operand.Name == operandSymbol.Name {
		return operandSymbol.Column + " " + o.direction()
	}
	return o.Operand.Column + " " + o.direction() + " NULLS LAST, " + operandSymbol.Column + " ASC"
}
