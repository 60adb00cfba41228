package handlers

import (
	"net/http"

	"github.com/labstack/echo"
)

// HeartBeat answers liveness checks
func HeartBeat(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
