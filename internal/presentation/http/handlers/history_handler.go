package handlers

import (
	"net/http"
	"strconv"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	domainRepos "github.com/acecasino/settlement_api/internal/domain/repositories"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandler serves the settlement history read API
type HistoryHandler struct {
	historyRepo domainRepos.SettlementHistoryRepository
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyRepo domainRepos.SettlementHistoryRepository) *HistoryHandler {
	return &HistoryHandler{
		historyRepo: historyRepo,
	}
}

// HistoryPage is the response of List
type HistoryPage struct {
	Items  []entities.SettlementHistory `json:"items"`
	Limit  int                          `json:"limit"`
	Offset int                          `json:"offset"`
}

// List returns settlement rows newest first, optionally filtered by ?route=collect/eth
func (h *HistoryHandler) List(c echo.Context) error {
	route := c.QueryParam("route")
	if route != "" {
		parsed, ok := entities.ParseRoute(route)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown route"})
		}
		route = parsed.String()
	}

	limit, err := queryInt(c, "limit", defaultHistoryLimit)
	if err != nil || limit <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid offset"})
	}

	items, err := h.historyRepo.List(c.Request().Context(), route, limit, offset)
	if err != nil {
		logger.RequestLogger(c).WithError(err).Error("Failed to list settlement history")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve settlement history"})
	}
	if items == nil {
		items = []entities.SettlementHistory{}
	}

	return c.JSON(http.StatusOK, HistoryPage{Items: items, Limit: limit, Offset: offset})
}

// Get returns the settlement row of a transaction hash
func (h *HistoryHandler) Get(c echo.Context) error {
	txHash := c.Param("txHash")
	if b, err := hexutil.Decode(txHash); err != nil || len(b) != common.HashLength {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid transaction hash"})
	}

	record, err := h.historyRepo.GetByTxHash(c.Request().Context(), common.HexToHash(txHash).Hex())
	if err != nil {
		logger.RequestLogger(c).WithError(err).WithField("tx_hash", txHash).Error("Failed to get settlement history")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve settlement history"})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Settlement not found"})
	}
	return c.JSON(http.StatusOK, record)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
