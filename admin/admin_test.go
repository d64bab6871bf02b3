package admin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestHealth(t *testing.T) {
	code, body := get(t, New(":0", nil), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestReadyToggles(t *testing.T) {
	s := New(":0", nil)

	code, body := get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body)

	s.SetReady(true)
	code, body = get(t, s, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	s.SetReady(false)
	code, _ = get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsExposed(t *testing.T) {
	code, body := get(t, New(":0", nil), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")
}

func TestStartStop(t *testing.T) {
	s := New("127.0.0.1:0", nil)
	assert.Nil(t, s.Addr())
	require.NoError(t, s.Start())
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", strings.TrimSpace(string(b)))

	require.NoError(t, s.Stop(context.Background()))
	_, err = http.Get("http://" + s.Addr().String() + "/health")
	assert.Error(t, err)
}

func TestStartBadAddress(t *testing.T) {
	assert.Error(t, New("127.0.0.1:notaport", nil).Start())
}
