package modelstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/observability"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

// maxModelFileBytes caps how much of a response body is read. Real model
// files are a few hundred kilobytes; anything larger is a misconfigured
// upstream.
const maxModelFileBytes = 32 << 20

// Client fetches model files from a remote HTTP file server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an HTTP model source rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch downloads the model file named by the run key. A 404 maps to
// pipeline.ErrModelNotFound; any other non-200 status is an upstream error.
func (c *Client) Fetch(ctx context.Context, key domain.RunKey) ([]byte, error) {
	u := c.baseURL + "/" + url.PathEscape(key.Filename())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.SourceFetches.WithLabelValues("http", "error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", key.Filename(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.SourceFetches.WithLabelValues("http", "error").Inc()
		return nil, fmt.Errorf("%s: %w", key.Filename(), pipeline.ErrModelNotFound)
	case resp.StatusCode != http.StatusOK:
		c.metrics.SourceFetches.WithLabelValues("http", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server error: status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxModelFileBytes))
	if err != nil {
		c.metrics.SourceFetches.WithLabelValues("http", "error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.metrics.SourceFetches.WithLabelValues("http", "success").Inc()
	c.logger.Debug("model file fetched", "url", u, "bytes", len(raw))
	return raw, nil
}

// Ping issues a request against the base URL; any HTTP response means the
// server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model server unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
