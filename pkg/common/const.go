package common

// In-process cache keys for derived metrics, formatted with the symbol.
const (
	KEY_LAST_PRICE          = "last_price:%s"
	KEY_FIFTY_TWO_WEEK_HIGH = "fifty_two_week_high:%s"
	KEY_FIFTY_TWO_WEEK_LOW  = "fifty_two_week_low:%s"
)

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)
