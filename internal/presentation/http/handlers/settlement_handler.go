package handlers

import (
	"context"
	"net/http"

	"github.com/acecasino/settlement_api/internal/application/services"
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/labstack/echo"
	"github.com/pkg/errors"
)

// MsgInvalidBody prefixes the response to a body that could not be decoded
const MsgInvalidBody = "Invalid request body: "

// Settler runs one settlement
type Settler interface {
	Settle(ctx context.Context, route entities.Route, req entities.DistributionRequest) (*entities.SettlementOutcome, error)
}

// SettlementHandler serves the collect and disperse routes
type SettlementHandler struct {
	settler Settler
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settler Settler) *SettlementHandler {
	return &SettlementHandler{
		settler: settler,
	}
}

// Settle returns the handler of route. Responses are plain text.
func (h *SettlementHandler) Settle(route entities.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.RequestLogger(c).WithField("route", route.String())

		body, err := decodeSettlementRequest(c.Request().Body)
		if err != nil {
			log.WithError(err).Warn("Rejected settlement request body")
			if errors.Is(err, entities.ErrUnknownValueKind) {
				return c.String(services.Report(nil, err))
			}
			return c.String(http.StatusBadRequest, MsgInvalidBody+err.Error())
		}

		req := body.DistributionRequest()
		outcome, err := h.settler.Settle(c.Request().Context(), route, req)
		status, msg := services.Report(outcome, err)

		fields := map[string]interface{}{
			"values":      len(req.Values),
			"values_type": req.Kind.String(),
			"status":      status,
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.WithFields(fields).WithError(err).Error("Settlement failed")
		case err != nil:
			log.WithFields(fields).WithError(err).Warn("Settlement rejected")
		case outcome != nil && !outcome.Succeeded():
			log.WithFields(fields).WithError(outcome.Err).Warn("Settlement transaction failed")
		default:
			log.WithFields(fields).Info("Settlement handled")
		}

		return c.String(status, msg)
	}
}
