package screener

import "strings"

// FieldKind decides how an operand compares and sorts.
type FieldKind int

const (
	KindNumeric FieldKind = iota
	KindString
)

// Operand is a logical field a filter or sort can target.
type Operand struct {
	Name string
	// Column is the SQL expression the operand resolves to.
	Column string
	Kind   FieldKind
	// LatestBar marks operands read from the latest_bar join rather than the
	// symbols table.
	LatestBar bool
}

// LatestBarJoin joins, for every symbol, the close of its most recent bar.
// The subquery runs once per statement. The pps operand compares against that
// close as stored, in integer cents.
const LatestBarJoin = `LEFT JOIN (SELECT DISTINCT ON (symbol) symbol, close FROM bars ORDER BY symbol, timestamp DESC) AS latest_bar ON latest_bar.symbol = symbols.symbol`

var (
	operandSymbol            = Operand{Name: "symbol", Column: "symbols.symbol", Kind: KindString}
	operandCompanyName       = Operand{Name: "company_name", Column: "symbols.company_name", Kind: KindString}
	operandExchange          = Operand{Name: "exchange", Column: "symbols.exchange", Kind: KindString}
	operandIndustry          = Operand{Name: "industry", Column: "symbols.industry_description", Kind: KindString}
	operandDescription       = Operand{Name: "description", Column: "symbols.description", Kind: KindString}
	operandMarketCap         = Operand{Name: "market_cap", Column: "symbols.market_cap", Kind: KindNumeric}
	operandOutstandingShares = Operand{Name: "outstanding_shares", Column: "symbols.outstanding_shares", Kind: KindNumeric}
	operandTotalEmployees    = Operand{Name: "total_employees", Column: "symbols.total_employees", Kind: KindNumeric}
	operandEPS               = Operand{Name: "eps", Column: "symbols.eps", Kind: KindNumeric}
	operandDayPercentChange  = Operand{Name: "day_percent_change", Column: "symbols.day_percent_change", Kind: KindNumeric}
	operandPrice             = Operand{Name: "pps", Column: "latest_bar.close", Kind: KindNumeric, LatestBar: true}
)

var operands = map[string]Operand{
	"symbol":               operandSymbol,
	"ticker":               operandSymbol,
	"company_name":         operandCompanyName,
	"name":                 operandCompanyName,
	"company":              operandCompanyName,
	"exchange":             operandExchange,
	"industry":             operandIndustry,
	"industry_description": operandIndustry,
	"description":          operandDescription,
	"market_cap":           operandMarketCap,
	"outstanding_shares":   operandOutstandingShares,
	"shares_outstanding":   operandOutstandingShares,
	"total_employees":      operandTotalEmployees,
	"employees":            operandTotalEmployees,
	"eps":                  operandEPS,
	"day_percent_change":   operandDayPercentChange,
	"percent_change":       operandDayPercentChange,
	"pps":                  operandPrice,
	"price":                operandPrice,
}

// LookupOperand resolves a logical operand name, case-insensitively.
func LookupOperand(name string) (Operand, bool) {
	op, ok := operands[strings.ToLower(strings.TrimSpace(name))]
	return op, ok
}
