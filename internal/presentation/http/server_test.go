package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/acecasino/settlement_api/internal/config"
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/internal/presentation/http/handlers"
	"github.com/acecasino/settlement_api/internal/presentation/http/routes"
	"github.com/acecasino/settlement_api/pkg/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettler struct {
	routes []entities.Route
}

func (s *stubSettler) Settle(_ context.Context, route entities.Route, req entities.DistributionRequest) (*entities.SettlementOutcome, error) {
	s.routes = append(s.routes, route)
	if len(req.Values) == 0 {
		return nil, nil
	}
	outcome := entities.Success(common.HexToHash("0x01"), 1)
	return &outcome, nil
}

func newTestServer(settler *stubSettler) *Server {
	cfg := config.LoadConfigFromEnv()
	return NewServer(cfg, routes.Handlers{Settlement: handlers.NewSettlementHandler(settler)})
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer_SettlementRoutes(t *testing.T) {
	settler := &stubSettler{}
	s := newTestServer(settler)

	for _, route := range entities.AllRoutes {
		rec := serve(s, http.MethodPost, "/"+route.String(), `{"values":[1],"values_type":"Amount"}`)
		assert.Equal(t, http.StatusOK, rec.Code, route.String())
		assert.Equal(t, "Transaction successful: "+common.HexToHash("0x01").Hex(), rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
	assert.Equal(t, entities.AllRoutes, settler.routes)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(&stubSettler{})

	rec := serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/disperse/eth", "200"))
	serve(s, http.MethodPost, "/disperse/eth", `{"values":[],"values_type":"Amount"}`)
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/disperse/eth", "200"))
	assert.Equal(t, before+1, after)

	rec = serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "settlement_api_http_requests_total")
}

func TestServer_HistoryDisabledWithoutDatabase(t *testing.T) {
	s := newTestServer(&stubSettler{})

	rec := serve(s, http.MethodGet, "/api/v1/settlements", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_BodyLimit(t *testing.T) {
	s := newTestServer(&stubSettler{})

	body := `{"values":[` + strings.Repeat("1,", 1<<20) + `1],"values_type":"Amount"}`
	rec := serve(s, http.MethodPost, "/disperse/eth", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
