package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cineconnect/cineconnect/internal/observability"
	"github.com/cineconnect/cineconnect/internal/salesreport"
	salesreporthttp "github.com/cineconnect/cineconnect/internal/salesreport/http"
	"github.com/cineconnect/cineconnect/jobs"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "es-GT", cfg.ReportLocale)
	require.Equal(t, "Q", cfg.ReportCurrency)
	require.Equal(t, 5, cfg.WorkerConcurrency)
	require.False(t, cfg.IsProduction())
	require.Equal(t, cfg.RedisAddr, cfg.RedisOptions().Addr)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "LogFormat")

	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("WORKER_CONCURRENCY", "0")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "WorkerConcurrency")
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	require.False(t, InTestMode())
}

func TestRouterMountsServiceRoutes(t *testing.T) {
	cfg := &Config{AppEnv: "test"}
	metrics := observability.NewMetrics()
	reports := salesreporthttp.NewHandler(nil, salesreport.NewGenerator(salesreport.Options{}), nil, nil, nil)
	router := NewRouter(RouterParams{
		Config:        cfg,
		ReportHandler: reports,
		JobHandler:    jobs.NewHandler(nil, nil),
		Metrics:       metrics,
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"queue":"default"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reports/sales/render", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `cineconnect_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestRoutePatternsAreRegistered(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:        &Config{AppEnv: "test"},
		ReportHandler: salesreporthttp.NewHandler(nil, salesreport.NewGenerator(salesreport.Options{}), nil, nil, nil),
	}).(chi.Routes)

	var routes []string
	require.NoError(t, chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	}))
	require.Contains(t, routes, "POST /receipts/render")
	require.Contains(t, routes, "GET /reports/sales/{id}/download")
}
