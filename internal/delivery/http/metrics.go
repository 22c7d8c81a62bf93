package http

import (
	"context"
	"net/http"
	"strings"

	"incrementum/internal/dto"
	"incrementum/pkg/utils"

	"github.com/labstack/echo/v4"
)

type metricFunc func(ctx context.Context, symbols []string) (map[string]float64, error)

func (h *HttpAPIHandler) SetupMetrics(base *echo.Group) {
	v1 := base.Group("/v1/metrics")
	{
		v1.GET("/percent-change", h.metricHandler(h.service.MetricService.DayPercentChange))
		v1.GET("/52-week-high", h.metricHandler(h.service.MetricService.FiftyTwoWeekHigh))
		v1.GET("/52-week-low", h.metricHandler(h.service.MetricService.FiftyTwoWeekLow))
		v1.GET("/latest-price", h.metricHandler(h.service.MetricService.LatestPrice))
	}
}

// metricHandler serves a symbol -> value map for ?symbols=A,B,C.
func (h *HttpAPIHandler) metricHandler(fn metricFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var query dto.SymbolsQuery
		if err := h.bind(c, &query); err != nil {
			return h.badRequest(c, err.Error())
		}
		symbols := utils.NormalizeSymbols(strings.Split(query.Symbols, ","))
		if len(symbols) == 0 {
			return h.badRequest(c, "symbols must name at least one ticker")
		}

		values, err := fn(c.Request().Context(), symbols)
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewSuccessResponse(values))
	}
}
