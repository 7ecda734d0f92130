package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

// straightConsensus is an eastward track at constant latitude with constant
// dispersion, long enough to exercise the smoothing window.
func straightConsensus(n int, stdDist, stdAlt float64) []domain.TrajectoryPoint {
	pts := make([]domain.TrajectoryPoint, n)
	for i := range pts {
		pts[i] = domain.TrajectoryPoint{
			Lon:         120.0 + float64(i)*0.01,
			Lat:         24.0,
			Alt:         100,
			StdDistance: stdDist,
			StdAltitude: stdAlt,
		}
	}
	return pts
}

func TestBuildRibbon_StraightTrackOffsets(t *testing.T) {
	p := domain.DefaultParams()
	n := 120
	ribbon := pipeline.BuildRibbon(straightConsensus(n, 2.0, 25), p)

	require.Len(t, ribbon.Boundary, 2*n)
	require.Len(t, ribbon.Upper, n)
	require.Len(t, ribbon.Lower, n)

	// Eastward track: the left edge is offset north, the right edge south,
	// each by stdDistance scaled down by RibbonScale. On a straight line
	// smoothing is the identity, so every vertex sits exactly on its edge.
	offset := 2.0 * p.RibbonScale
	for i := 0; i < n; i++ {
		assert.InDelta(t, 24.0+offset, ribbon.Boundary[i][1], 1e-9, "left vertex %d", i)
	}
	for i := n; i < 2*n; i++ {
		assert.InDelta(t, 24.0-offset, ribbon.Boundary[i][1], 1e-9, "right vertex %d", i)
	}

	// Right edge runs in reverse so the loop closes implicitly.
	assert.InDelta(t, ribbon.Boundary[n-1][0], ribbon.Boundary[n][0], 1e-12)
	assert.InDelta(t, ribbon.Boundary[0][0], ribbon.Boundary[2*n-1][0], 1e-12)

	for i := 0; i < n; i++ {
		assert.Equal(t, 125.0, ribbon.Upper[i])
		assert.Equal(t, 75.0, ribbon.Lower[i])
	}
}

func TestBuildRibbon_EndpointsPinned(t *testing.T) {
	p := domain.DefaultParams()
	n := 200
	consensus := straightConsensus(n, 1.0, 0)
	// A sharp dispersion spike near the start would drag the smoothed first
	// vertex away from the track; pinning must restore it.
	consensus[1].StdDistance = 500
	consensus[0].StdDistance = 1.0

	ribbon := pipeline.BuildRibbon(consensus, p)

	first := ribbon.Boundary[0]
	assert.InDelta(t, 24.0+1.0*p.RibbonScale, first[1], 1e-9)
	assert.InDelta(t, 120.0, first[0], 1e-9)

	lastLeft := ribbon.Boundary[n-1]
	assert.InDelta(t, 24.0+1.0*p.RibbonScale, lastLeft[1], 1e-9)
}

func TestBuildRibbon_ZeroTangentGivesZeroOffset(t *testing.T) {
	p := domain.DefaultParams()
	// All points identical: no direction to offset along.
	pts := make([]domain.TrajectoryPoint, 10)
	for i := range pts {
		pts[i] = domain.TrajectoryPoint{Lon: 120.5, Lat: 24.0, Alt: 50, StdDistance: 3}
	}

	ribbon := pipeline.BuildRibbon(pts, p)
	for i, v := range ribbon.Boundary {
		assert.Equal(t, 120.5, v[0], "vertex %d", i)
		assert.Equal(t, 24.0, v[1], "vertex %d", i)
	}
}

func TestBuildRibbon_ShortSequencesPassThroughUnsmoothed(t *testing.T) {
	p := domain.DefaultParams()
	require.Greater(t, p.RibbonSmoothWindow, 3)

	consensus := []domain.TrajectoryPoint{
		{Lon: 120.0, Lat: 24.0, StdDistance: 1},
		{Lon: 120.1, Lat: 24.0, StdDistance: 4},
		{Lon: 120.2, Lat: 24.0, StdDistance: 1},
	}
	ribbon := pipeline.BuildRibbon(consensus, p)

	require.Len(t, ribbon.Boundary, 6)
	// The middle left vertex keeps its raw, unaveraged offset.
	assert.InDelta(t, 24.0+4*p.RibbonScale, ribbon.Boundary[1][1], 1e-9)
}

func TestBuildRibbon_Empty(t *testing.T) {
	ribbon := pipeline.BuildRibbon(nil, domain.DefaultParams())
	assert.Empty(t, ribbon.Boundary)
	assert.Empty(t, ribbon.Upper)
	assert.Empty(t, ribbon.Lower)
}
