package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devrev/pairdb/replica-monitor/internal/config"
	"github.com/devrev/pairdb/replica-monitor/internal/health"
	"github.com/devrev/pairdb/replica-monitor/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stateReporter struct {
	state *health.State
}

func (r stateReporter) Name() string              { return "replica-a" }
func (r stateReporter) Snapshot() health.Snapshot { return r.state.Snapshot() }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestServer_HealthRoutes(t *testing.T) {
	state := health.NewState()
	srv := NewServer(testConfig(), stateReporter{state: state}, prometheus.NewRegistry(), zap.NewNop())

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get("/health/replica")
	assert.Equal(t, http.StatusOK, w.Code)

	state.SetResult(false, "resyncing")
	w = get("/health/replica")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp health.ReplicaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Alive)
	assert.Equal(t, "resyncing", resp.Status)
	assert.Equal(t, "replica-a", resp.Monitor)

	state.SetResult(true, "healthy")
	assert.Equal(t, http.StatusOK, get("/health/replica").Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer(testConfig(), stateReporter{state: health.NewState()}, prometheus.NewRegistry(), nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health/live", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.NewMetrics(reg, "replica-a")
	mt.ObserveProbe("healthy", true, 3*time.Millisecond)

	srv := NewServer(testConfig(), stateReporter{state: health.NewState()}, reg, zap.NewNop())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pairdb_replica_monitor_probes_total{monitor="replica-a",status="healthy"} 1`)
	assert.Contains(t, w.Body.String(), "pairdb_replica_monitor_replica_alive")
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	srv := NewServer(cfg, stateReporter{state: health.NewState()}, prometheus.NewRegistry(), zap.NewNop())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartShutdown(t *testing.T) {
	srv := NewServer(testConfig(), stateReporter{state: health.NewState()}, prometheus.NewRegistry(), zap.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	var seen interface{}
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(RequestIDKey)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", seen)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/replica", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestLogging_CapturesStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/replica", nil))

	entries := logs.FilterMessage("HTTP request").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusServiceUnavailable), entries[0].ContextMap()["status"])
}
