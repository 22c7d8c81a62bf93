package screener

import "incrementum/internal/model"

// MaxPageSize caps page_size.
const MaxPageSize = 1000

// Bounds converts page and pageSize into an offset and limit. A non-positive
// pageSize means no pagination and yields limit 0.
func Bounds(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}

// BuildQuery compiles criteria and sort options into a store query.
func BuildQuery(criteria []Criterion, sortBy, sortOrder string, page, pageSize int) (model.ScreenQuery, error) {
	pred, err := Compile(criteria)
	if err != nil {
		return model.ScreenQuery{}, err
	}
	order, err := ResolveOrder(sortBy, sortOrder)
	if err != nil {
		return model.ScreenQuery{}, err
	}

	where, args := pred.SQL()
	offset, limit := Bounds(page, pageSize)
	return model.ScreenQuery{
		Where:         where,
		Args:          args,
		OrderBy:       order.SQL(),
		JoinLatestBar: pred.NeedsLatestPrice() || order.Operand.LatestBar,
		Offset:        offset,
		Limit:         limit,
	}, nil
}
