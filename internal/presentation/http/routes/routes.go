package routes

import (
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/internal/presentation/http/handlers"
	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the handlers served by the API. History is nil when the
// database is disabled.
type Handlers struct {
	Settlement *handlers.SettlementHandler
	History    *handlers.HistoryHandler
}

// SetupRoutes sets up all routes for the application
func SetupRoutes(e *echo.Echo, h Handlers) {
	// Health check and metrics
	e.GET("/health", handlers.HeartBeat)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Settlement routes, e.g. POST /collect/eth
	for _, route := range entities.AllRoutes {
		e.POST("/"+route.String(), h.Settlement.Settle(route))
	}

	if h.History == nil {
		return
	}

	// API routes
	api := e.Group("/api/v1")
	api.GET("/settlements", h.History.List)
	api.GET("/settlements/:txHash", h.History.Get)
}
