package modelstore

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/observability"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testKey(t *testing.T) domain.RunKey {
	t.Helper()
	key, err := domain.NewRunKey("2024-04-26", 6, "F")
	require.NoError(t, err)
	return key
}

func TestClient_Fetch_Success(t *testing.T) {
	key := testKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+key.Filename(), r.URL.Path)
		_, _ = w.Write([]byte("3 1 1 1\nmodel data"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	raw, err := c.Fetch(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("3 1 1 1\nmodel data"), raw)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), testKey(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrModelNotFound)
}

func TestClient_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "disk full", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	_, err := c.Fetch(context.Background(), testKey(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, pipeline.ErrModelNotFound)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden) // any response counts as reachable
	}))

	c := NewClient(srv.URL, 5*time.Second, testLogger(), testMetrics())
	assert.NoError(t, c.Ping(context.Background()))

	srv.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestLocalStore_Fetch(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, key.Filename()), []byte("model data"), 0o644))

	s := NewLocalStore(dir, testLogger(), testMetrics())

	t.Run("existing file", func(t *testing.T) {
		raw, err := s.Fetch(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, []byte("model data"), raw)
	})

	t.Run("missing file", func(t *testing.T) {
		missing, err := domain.NewRunKey("2024-04-27", 12, "B")
		require.NoError(t, err)
		_, err = s.Fetch(context.Background(), missing)
		require.Error(t, err)
		assert.ErrorIs(t, err, pipeline.ErrModelNotFound)
	})
}

func TestLocalStore_Ping(t *testing.T) {
	s := NewLocalStore(t.TempDir(), testLogger(), testMetrics())
	assert.NoError(t, s.Ping(context.Background()))

	s = NewLocalStore(filepath.Join(t.TempDir(), "missing"), testLogger(), testMetrics())
	assert.Error(t, s.Ping(context.Background()))
}
