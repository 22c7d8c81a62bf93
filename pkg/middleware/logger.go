package middleware

import (
	"incrementum/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewContextLogger stores a request scoped logger in the request context so
// the *Context logging calls further down carry the request id.
func NewContextLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqLog := log.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
			)
			c.SetRequest(req.WithContext(logger.NewContext(req.Context(), reqLog)))
			return next(c)
		}
	}
}
