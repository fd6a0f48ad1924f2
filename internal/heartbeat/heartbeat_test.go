package heartbeat

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/engine"
)

func TestDefaultInterval(t *testing.T) {
	h := New(nil, nil, nil, 0, zap.NewNop().Sugar())
	assert.Equal(t, 30*time.Second, h.interval)
}

func TestTickStopsAtFailedHealthCheck(t *testing.T) {
	var probes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes++
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// user and project services stay nil: an unhealthy engine must end the
	// tick before either is touched
	h := New(engine.NewClient(srv.URL, "", time.Second), nil, nil, time.Second, zap.NewNop().Sugar())
	h.tick()

	assert.Equal(t, 1, probes)
	assert.Equal(t, 1, h.ticks)
}

func TestStartAndStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := New(engine.NewClient(srv.URL, "", time.Second), nil, nil, time.Second, zap.NewNop().Sugar())
	require.NoError(t, h.Start())
	h.Stop()
}
