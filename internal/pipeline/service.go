package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/observability"
)

// ErrModelNotFound reports that no model file exists for the requested run.
// Model sources wrap it so the HTTP layer can map it to a 404.
var ErrModelNotFound = errors.New("model file not found")

// ModelSource fetches raw model output files for a run.
type ModelSource interface {
	Fetch(ctx context.Context, key domain.RunKey) ([]byte, error)
	Ping(ctx context.Context) error
}

// PayloadPublisher hands a finished run payload to downstream consumers.
type PayloadPublisher interface {
	Publish(ctx context.Context, payload *domain.RunPayload) error
}

// Service orchestrates the fetch-parse-build pipeline for a single run:
// resample the member grid, build the consensus trajectory, the uncertainty
// ribbon, the cumulative swept-area hulls, and the per-step frames.
type Service struct {
	source    ModelSource
	publisher PayloadPublisher
	params    domain.Params
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service. publisher may be nil, in which case payloads
// are returned to the caller only.
func NewService(source ModelSource, publisher PayloadPublisher, params domain.Params, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:    source,
		publisher: publisher,
		params:    params,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness reports whether the model source is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.source.Ping(ctx); err != nil {
		s.metrics.ServiceReady.Set(0)
		return fmt.Errorf("model source unreachable: %w", err)
	}
	s.metrics.ServiceReady.Set(1)
	return nil
}

// Run executes the full pipeline for one run key. Publishing failures are
// logged and counted but do not fail the run; the payload is still returned.
func (s *Service) Run(ctx context.Context, key domain.RunKey) (*domain.RunPayload, error) {
	start := time.Now()

	payload, err := s.build(ctx, key)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if s.publisher != nil {
		pubStart := time.Now()
		if err := s.publisher.Publish(ctx, payload); err != nil {
			s.logger.Error("payload publish failed", "run", key.String(), "error", err)
		} else {
			s.metrics.PayloadsPublished.Inc()
		}
		s.metrics.StageDuration.WithLabelValues("publish").Observe(time.Since(pubStart).Seconds())
	}

	s.metrics.RunsTotal.WithLabelValues("success").Inc()
	s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("run complete",
		"run", key.String(),
		"origin_source", payload.Origin.Source,
		"duration", time.Since(start),
	)
	return payload, nil
}

func (s *Service) build(ctx context.Context, key domain.RunKey) (*domain.RunPayload, error) {
	fetchStart := time.Now()
	raw, err := s.source.Fetch(ctx, key)
	s.metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch model file for %s: %w", key, err)
	}

	parseStart := time.Now()
	result := domain.ParseTdump(raw, s.params)
	s.metrics.StageDuration.WithLabelValues("parse").Observe(time.Since(parseStart).Seconds())
	if result.ZeroFilled > 0 {
		s.metrics.ZeroFilledTokens.Add(float64(result.ZeroFilled))
		s.logger.Warn("model file short or malformed, zero-filled grid slots",
			"run", key.String(),
			"zero_filled", result.ZeroFilled,
			"total_tokens", result.TotalTokens,
		)
	}

	fine := s.timed("resample", func() *domain.Grid {
		return Resample(result.Grid, s.params)
	})

	origin := s.resolveOrigin(result, fine)

	consensusStart := time.Now()
	consensus := Consensus(fine, origin, s.params)
	s.metrics.StageDuration.WithLabelValues("consensus").Observe(time.Since(consensusStart).Seconds())

	ribbonStart := time.Now()
	ribbon := BuildRibbon(consensus, s.params)
	s.metrics.StageDuration.WithLabelValues("ribbon").Observe(time.Since(ribbonStart).Seconds())

	hullStart := time.Now()
	hulls, fallbacks := CumulativeHulls(fine, origin, s.params)
	s.metrics.StageDuration.WithLabelValues("hull").Observe(time.Since(hullStart).Seconds())
	if fallbacks > 0 {
		s.metrics.HullFallbacks.Add(float64(fallbacks))
	}

	framesStart := time.Now()
	frames := BuildFrames(fine, origin, consensus, hulls, s.params)
	members := MemberTracks(fine, s.params)
	s.metrics.StageDuration.WithLabelValues("frames").Observe(time.Since(framesStart).Seconds())

	return &domain.RunPayload{
		ID:          key.ID(),
		Key:         key,
		Origin:      origin,
		Members:     members,
		Consensus:   consensus,
		Ribbon:      ribbon,
		Frames:      frames,
		GeneratedAt: domain.Timestamp(),
	}, nil
}

// resolveOrigin prefers the header starting-location line; absent that it
// falls back to the centroid of the finite member positions at the first
// time step, and finally to (0, 0).
func (s *Service) resolveOrigin(result domain.ParseResult, fine *domain.Grid) domain.Origin {
	if result.Origin != nil {
		return *result.Origin
	}

	s.metrics.OriginFallbacks.Inc()
	lats := make([]float64, 0, fine.Members)
	lons := make([]float64, 0, fine.Members)
	for m := 0; m < fine.Members; m++ {
		pt := fine.Position(0, m, s.params)
		if isFinite(pt[0]) && isFinite(pt[1]) {
			lons = append(lons, pt[0])
			lats = append(lats, pt[1])
		}
	}
	if len(lats) == 0 {
		s.logger.Warn("no header origin and no finite first-step positions, using (0, 0)")
		return domain.Origin{Source: domain.OriginCentroid}
	}
	return domain.Origin{
		Lat:    stat.Mean(lats, nil),
		Lon:    stat.Mean(lons, nil),
		Source: domain.OriginCentroid,
	}
}

// timed runs stage and records its duration under the given label.
func (s *Service) timed(stage string, fn func() *domain.Grid) *domain.Grid {
	start := time.Now()
	g := fn()
	s.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return g
}
