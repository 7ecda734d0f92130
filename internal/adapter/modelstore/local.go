// Package modelstore provides pipeline.ModelSource implementations: a local
// directory of model output files, an HTTP client for a remote file server,
// and an LRU cache decorator for either.
package modelstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/observability"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

// LocalStore serves model files from a directory on disk, the layout the
// dispersion model writes its tdump output into.
type LocalStore struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string, logger *slog.Logger, metrics *observability.Metrics) *LocalStore {
	return &LocalStore{dir: dir, logger: logger, metrics: metrics}
}

// Fetch reads the model file named by the run key. A missing file maps to
// pipeline.ErrModelNotFound.
func (s *LocalStore) Fetch(_ context.Context, key domain.RunKey) ([]byte, error) {
	path := filepath.Join(s.dir, key.Filename())
	raw, err := os.ReadFile(path)
	if err != nil {
		s.metrics.SourceFetches.WithLabelValues("local", "error").Inc()
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key.Filename(), pipeline.ErrModelNotFound)
		}
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}
	s.metrics.SourceFetches.WithLabelValues("local", "success").Inc()
	s.logger.Debug("model file read", "path", path, "bytes", len(raw))
	return raw, nil
}

// Ping verifies the data directory exists and is a directory.
func (s *LocalStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", s.dir)
	}
	return nil
}
