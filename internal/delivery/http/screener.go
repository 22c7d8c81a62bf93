package http

import (
	"net/http"

	"incrementum/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupScreener(base *echo.Group) {
	v1 := base.Group("/v1/screener")
	{
		v1.POST("", h.Screen)
	}
}

func (h *HttpAPIHandler) Screen(c echo.Context) error {
	var param dto.ScreenParam
	if err := h.bind(c, &param); err != nil {
		return h.badRequest(c, err.Error())
	}

	result, err := h.service.ScreenerService.Screen(c.Request().Context(), param)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
