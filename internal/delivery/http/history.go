package http

import (
	"net/http"

	"incrementum/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupHistory(base *echo.Group) {
	v1 := base.Group("/v1/stocks")
	{
		v1.GET("/:symbol/history", h.GetHistory)
	}
}

func (h *HttpAPIHandler) GetHistory(c echo.Context) error {
	var param dto.HistoryParam
	if err := h.bind(c, &param); err != nil {
		return h.badRequest(c, err.Error())
	}

	result, err := h.service.HistoryService.History(c.Request().Context(), param)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
