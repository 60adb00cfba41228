package middleware

import (
	"github.com/labstack/echo"
	echomw "github.com/labstack/echo/middleware"
)

// Recover turns handler panics into 500 responses
func Recover() echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize:       4 << 10,
		DisableStackAll: true,
	})
}
