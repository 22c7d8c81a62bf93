package http

import (
	"errors"
	"fmt"
	"net/http"

	"incrementum/internal/dto"
	"incrementum/internal/screener"
	"incrementum/internal/service"
	"incrementum/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
	log       *logger.Logger
}

func NewHttpAPIHandler(echo *echo.Echo, validator *goValidator.Validate, service *service.Service, log *logger.Logger) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
		log:       log,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupScreener(base)
	h.SetupHistory(base)
	h.SetupMetrics(base)
}

var callerErrorCodes = []struct {
	err  error
	code dto.ErrorCode
}{
	{screener.ErrInvalidFilter, dto.ErrorCodeInvalidFilter},
	{dto.ErrInvalidSymbol, dto.ErrorCodeInvalidSymbol},
	{dto.ErrInvalidPeriod, dto.ErrorCodeInvalidPeriod},
	{dto.ErrInvalidInterval, dto.ErrorCodeInvalidInterval},
}

// callerErrorDetail reports whether err was caused by the request, and how.
func callerErrorDetail(err error) (dto.ErrorDetail, bool) {
	for _, c := range callerErrorCodes {
		if !errors.Is(err, c.err) {
			continue
		}
		detail := dto.ErrorDetail{Code: c.code}
		var fe *screener.FilterError
		if errors.As(err, &fe) {
			detail.Operand = fe.Operand
			if fe.Index >= 0 {
				index := fe.Index
				detail.FilterIndex = &index
			}
		}
		return detail, true
	}
	return dto.ErrorDetail{}, false
}

// errorResponse maps caller errors to 400 and hides everything else behind
// a 500.
func (h *HttpAPIHandler) errorResponse(c echo.Context, err error) error {
	if detail, ok := callerErrorDetail(err); ok {
		return c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, err.Error(), detail))
	}
	h.log.ErrorContext(c.Request().Context(), "Request failed",
		logger.ErrorField(err),
		logger.StringField("path", c.Path()),
	)
	response := dto.NewErrorResponse(http.StatusInternalServerError, "internal server error",
		dto.ErrorDetail{Code: dto.ErrorCodeInternal})
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(dto.ErrorCodeInvalidRequest, message))
}

// bind decodes and validates a request. Its error is safe to show to the
// caller.
func (h *HttpAPIHandler) bind(c echo.Context, param interface{}) error {
	if err := c.Bind(param); err != nil {
		return fmt.Errorf("malformed request: %w", err)
	}
	return h.validator.Struct(param)
}
