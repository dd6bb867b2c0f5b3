package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/api/handlers"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/provider"
	"github.com/wonny/fundscope/internal/scoring"
	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

func newTestRouter() http.Handler {
	mem := store.NewMemory()
	demo := provider.DemoUniverse("000300", 7, 120, time.Now(), 1)
	engine := metrics.NewEngine(metrics.DefaultConfig())
	orch := snapshot.New(demo, engine, scoring.NewRubric(logger.Nop()), mem, mem, snapshot.Config{
		Benchmark:    "000300",
		MinDataDays:  60,
		FetchWorkers: 2,
		MaxQualified: 10,
	}, logger.Nop())

	return NewRouter(
		handlers.NewSnapshotHandler(context.Background(), orch, mem, mem, logger.Nop()),
		handlers.NewFundHandler(mem, demo, engine, logger.Nop()),
		handlers.NewStatusStream(orch, logger.Nop()),
		logger.Nop(),
	)
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "fundscope-api", body["service"])
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/api/snapshots/status", http.StatusOK},
		{"GET", "/api/snapshots", http.StatusOK},
		{"GET", "/api/snapshots/latest", http.StatusNotFound},
		{"GET", "/api/snapshots/latest/funds", http.StatusNotFound},
		{"GET", "/api/funds/100001", http.StatusNotFound},
		{"GET", "/api/funds/abc", http.StatusNotFound},
		{"GET", "/api/build-logs", http.StatusOK},
		{"DELETE", "/api/snapshots", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
