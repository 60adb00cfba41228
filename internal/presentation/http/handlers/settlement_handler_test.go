package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/acecasino/settlement_api/internal/application/services"
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/labstack/echo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTxHash = common.HexToHash("0xabc123")

type recordingExecutor struct {
	mu      sync.Mutex
	outcome entities.SettlementOutcome
	batches []*entities.TransferBatch
}

func (e *recordingExecutor) Execute(_ context.Context, _ entities.Route, batch *entities.TransferBatch) entities.SettlementOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, batch)
	return e.outcome
}

func newTestHandler(outcome entities.SettlementOutcome) (*SettlementHandler, *recordingExecutor) {
	recipients := make([]common.Address, 10)
	for i := range recipients {
		recipients[i] = common.BigToAddress(uint256.NewInt(uint64(i + 1)).ToBig())
	}
	fixed := services.NewFixedRecipients(recipients)

	strategies := map[entities.Route]services.RouteStrategy{
		entities.RouteCollectEth:    {MaxValues: 5, Recipients: fixed},
		entities.RouteCollectERC20:  {MaxValues: 2, Recipients: fixed},
		entities.RouteDisperseEth:   {MaxValues: 10, Recipients: fixed},
		entities.RouteDisperseERC20: {MaxValues: 10, Recipients: fixed},
	}
	executor := &recordingExecutor{outcome: outcome}
	svc := services.NewSettlementService(executor, strategies, nil, nil, nil)
	return NewSettlementHandler(svc), executor
}

func post(t *testing.T, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func amounts(batch *entities.TransferBatch) []string {
	out := make([]string, batch.Len())
	for i, entry := range batch.Entries {
		out[i] = entry.Amount.Dec()
	}
	return out
}

func TestSettlementHandler_Settle(t *testing.T) {
	tests := []struct {
		name        string
		route       entities.Route
		body        string
		wantStatus  int
		wantBody    string
		wantAmounts []string
	}{
		{
			name:        "amounts are settled as given",
			route:       entities.RouteDisperseEth,
			body:        `{"values":[100,200,300],"values_type":"Amount"}`,
			wantStatus:  http.StatusOK,
			wantBody:    "Transaction successful: " + testTxHash.Hex(),
			wantAmounts: []string{"100", "200", "300"},
		},
		{
			name:        "percentages are split from the total",
			route:       entities.RouteCollectEth,
			body:        `{"values":[50,30,20],"total_amount":1000,"values_type":"Percentage"}`,
			wantStatus:  http.StatusOK,
			wantBody:    "Transaction successful: " + testTxHash.Hex(),
			wantAmounts: []string{"500", "300", "200"},
		},
		{
			name:        "string amounts above float precision",
			route:       entities.RouteDisperseERC20,
			body:        `{"values":["1000000000000000000000001"],"values_type":"Amount"}`,
			wantStatus:  http.StatusOK,
			wantBody:    "Transaction successful: " + testTxHash.Hex(),
			wantAmounts: []string{"1000000000000000000000001"},
		},
		{
			name:       "percentages must sum to 100",
			route:      entities.RouteDisperseEth,
			body:       `{"values":[10,20,30],"total_amount":1000,"values_type":"Percentage"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Sum of percentages must be 100",
		},
		{
			name:       "percentage without total",
			route:      entities.RouteDisperseEth,
			body:       `{"values":[100],"values_type":"Percentage"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Total amount not provided",
		},
		{
			name:       "too many values for collect eth",
			route:      entities.RouteCollectEth,
			body:       `{"values":[1,2,3,4,5,6],"values_type":"Amount"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Too many values",
		},
		{
			name:       "erc20 collect is capped at two",
			route:      entities.RouteCollectERC20,
			body:       `{"values":[1,2,3],"values_type":"Amount"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Too many values",
		},
		{
			name:       "empty values are a no-op",
			route:      entities.RouteCollectEth,
			body:       `{"values":[],"values_type":"Amount"}`,
			wantStatus: http.StatusOK,
			wantBody:   "No values provided",
		},
		{
			name:       "unknown values_type",
			route:      entities.RouteDisperseEth,
			body:       `{"values":[1],"values_type":"Ratio"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Unknown values_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, executor := newTestHandler(entities.Success(testTxHash, 7))

			rec := post(t, h.Settle(tt.route), "/"+tt.route.String(), tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			if tt.wantAmounts == nil {
				assert.Empty(t, executor.batches)
				return
			}
			require.Len(t, executor.batches, 1)
			assert.Equal(t, tt.wantAmounts, amounts(executor.batches[0]))
		})
	}
}

func TestSettlementHandler_ExecutorFailure(t *testing.T) {
	h, _ := newTestHandler(entities.Failure(common.Hash{}, errors.New("insufficient funds for gas")))

	rec := post(t, h.Settle(entities.RouteDisperseEth), "/disperse/eth", `{"values":[1],"values_type":"Amount"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Transaction failed: insufficient funds for gas", rec.Body.String())
}

func TestSettlementHandler_InvalidBody(t *testing.T) {
	bodies := map[string]string{
		"not json":          `{"values":`,
		"missing values":    `{"values_type":"Amount"}`,
		"missing kind":      `{"values":[1]}`,
		"negative":          `{"values":[-1],"values_type":"Amount"}`,
		"fractional":        `{"values":[1.5],"values_type":"Amount"}`,
		"non numeric":       `{"values":["ten"],"values_type":"Amount"}`,
		"overflow":          `{"values":["115792089237316195423570985008687907853269984665640564039457584007913129639936"],"values_type":"Amount"}`,
		"bad total":         `{"values":[100],"total_amount":"x","values_type":"Percentage"}`,
		"values not a list": `{"values":5,"values_type":"Amount"}`,
		"trailing garbage":  `{"values":[5],"values_type":"Amount"} trailing`,
		"second object":     `{"values":[5],"values_type":"Amount"}{}`,
		"stray brace":       `{"values":[5],"values_type":"Amount"}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			h, executor := newTestHandler(entities.Success(testTxHash, 1))

			rec := post(t, h.Settle(entities.RouteDisperseEth), "/disperse/eth", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Body.String(), MsgInvalidBody), rec.Body.String())
			assert.Empty(t, executor.batches)
		})
	}
}

func TestSettlementHandler_TrailingWhitespace(t *testing.T) {
	h, executor := newTestHandler(entities.Success(testTxHash, 1))

	rec := post(t, h.Settle(entities.RouteDisperseEth), "/disperse/eth", "{\"values\":[5],\"values_type\":\"Amount\"}\n  ")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, executor.batches, 1)
}

func TestSettlementHandler_MaxUint256(t *testing.T) {
	h, executor := newTestHandler(entities.Success(testTxHash, 1))
	maxValue := "115792089237316195423570985008687907853269984665640564039457584007913129639935"

	rec := post(t, h.Settle(entities.RouteDisperseEth), "/disperse/eth", `{"values":["`+maxValue+`"],"values_type":"Amount"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, executor.batches, 1)
	assert.Equal(t, []string{maxValue}, amounts(executor.batches[0]))
}
