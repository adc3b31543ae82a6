package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/investor-interview/backend/internal/metrics"
	portfolioModel "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	portfolioService "github.com/zhouzirui/investor-interview/backend/internal/service/portfolio"
	sessionService "github.com/zhouzirui/investor-interview/backend/internal/service/session"
)

func newTestRouter(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	catalog := portfolioModel.NewMemoryCatalog(portfolioModel.MustSeed())
	selector, err := portfolioService.NewSelector(catalog)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder("", registry)
	require.NoError(t, err)

	deps := Deps{
		Engine:         interviewService.NewEngine(nil, selector, interviewService.WithRecorder(recorder)),
		Portfolios:     catalog,
		Connections:    recorder,
		Metrics:        registry,
		AllowedOrigins: []string{"http://localhost:3000"},
		TurnTimeout:    time.Second,
	}
	if withStore {
		store, err := sessionService.NewMemoryStore(4, 0)
		require.NoError(t, err)
		deps.Store = store
	}
	return NewRouter(deps)
}

func TestRouterMountsAPI(t *testing.T) {
	r := newTestRouter(t, true)

	for _, path := range []string{"/api/portfolios", "/api/interview/questions"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions/voice_investment_session", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouterWithoutStoreSkipsSessionRoutes(t *testing.T) {
	r := newTestRouter(t, false)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/sessions/device-1", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouterExposesMetrics(t *testing.T) {
	r := newTestRouter(t, false)

	// 先跑一轮失败的回合，计数器才会出现在输出里
	turn := httptest.NewRecorder()
	r.ServeHTTP(turn, httptest.NewRequest(http.MethodPost, "/api/interview/next",
		strings.NewReader(`{"sessionId":"s","currentQuestionId":"Q1","lastUserUtterance":"Dana"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, turn.Code)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "investor_interview_turns_total")
}

func TestRouterAppliesCORS(t *testing.T) {
	r := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/interview/next", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
}
