package middleware

import (
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/labstack/echo"
)

// Logger returns the request logging middleware
func Logger() echo.MiddlewareFunc {
	return logger.LoggingMiddleware
}
