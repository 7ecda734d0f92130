package pipeline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

// smallParams shrinks the grid shape so tests can build member positions by
// hand. Indices are remapped to a compact 3-variable layout.
func smallParams() domain.Params {
	p := domain.DefaultParams()
	p.TimeSteps = 3
	p.Members = 4
	p.Vars = 3
	p.LatIndex = 0
	p.LonIndex = 1
	p.AltIndex = 2
	p.FineSteps = 5
	p.ConsensusSize = 2
	return p
}

// setMember writes one member's (lat, lon, alt) at a time step.
func setMember(g *domain.Grid, p domain.Params, t, m int, lat, lon, alt float64) {
	g.Set(t, m, p.LatIndex, lat)
	g.Set(t, m, p.LonIndex, lon)
	g.Set(t, m, p.AltIndex, alt)
}

func TestConsensus_IdenticalMembersHaveZeroDispersion(t *testing.T) {
	p := smallParams()
	g := domain.NewGrid(p.FineSteps, p.Members, p.Vars)
	for step := 0; step < g.Steps; step++ {
		for m := 0; m < g.Members; m++ {
			setMember(g, p, step, m, 24.0+float64(step), 120.5, 100)
		}
	}

	origin := domain.Origin{Lat: 24.0, Lon: 120.5, Source: domain.OriginHeader}
	consensus := pipeline.Consensus(g, origin, p)
	require.Len(t, consensus, p.FineSteps)

	first := consensus[0]
	assert.Equal(t, 120.5, first.Lon)
	assert.Equal(t, 24.0, first.Lat)
	assert.Equal(t, 100.0, first.Alt)
	assert.Zero(t, first.StdDistance)
	assert.Zero(t, first.StdAltitude)

	for step, pt := range consensus {
		assert.Equal(t, 24.0+float64(step), pt.Lat, "step %d", step)
		assert.Zero(t, pt.StdDistance, "step %d", step)
	}
}

func TestConsensus_NearestMembersOnly(t *testing.T) {
	p := smallParams()
	g := domain.NewGrid(1, p.Members, p.Vars)
	// Three clustered members and one far outlier. With ConsensusSize 2 the
	// outlier must not contribute to the mean, only to the dispersion.
	setMember(g, p, 0, 0, 24.0, 120.0, 100)
	setMember(g, p, 0, 1, 24.0, 120.2, 110)
	setMember(g, p, 0, 2, 24.1, 120.1, 105)
	setMember(g, p, 0, 3, 40.0, 90.0, 900)

	origin := domain.Origin{Lat: 24.0, Lon: 120.0}
	consensus := pipeline.Consensus(g, origin, p)
	require.Len(t, consensus, 1)

	pt := consensus[0]
	assert.Less(t, math.Abs(pt.Lat-24.0), 0.2)
	assert.Less(t, math.Abs(pt.Lon-120.1), 0.2)
	// The outlier still widens the ensemble spread.
	assert.Greater(t, pt.StdDistance, 5.0)
	assert.Greater(t, pt.StdAltitude, 100.0)
}

func TestConsensus_SizeClampedToMemberCount(t *testing.T) {
	p := smallParams()
	p.ConsensusSize = 50

	g := domain.NewGrid(1, p.Members, p.Vars)
	for m := 0; m < g.Members; m++ {
		setMember(g, p, 0, m, float64(m), float64(m), float64(m))
	}

	consensus := pipeline.Consensus(g, domain.Origin{}, p)
	require.Len(t, consensus, 1)
	assert.InDelta(t, 1.5, consensus[0].Lat, 1e-12)
	assert.InDelta(t, 1.5, consensus[0].Lon, 1e-12)
}

func TestConsensus_CarriesForwardWhenNoFiniteMembers(t *testing.T) {
	p := smallParams()
	g := domain.NewGrid(3, p.Members, p.Vars)
	nan := math.NaN()

	// Step 0: all members non-finite.
	for m := 0; m < g.Members; m++ {
		setMember(g, p, 0, m, nan, nan, nan)
	}
	// Step 1: valid cluster.
	for m := 0; m < g.Members; m++ {
		setMember(g, p, 1, m, 25.0, 121.0, 200)
	}
	// Step 2: all non-finite again.
	for m := 0; m < g.Members; m++ {
		setMember(g, p, 2, m, nan, math.Inf(1), nan)
	}

	origin := domain.Origin{Lat: 24.0, Lon: 120.5, Source: domain.OriginHeader}
	consensus := pipeline.Consensus(g, origin, p)
	require.Len(t, consensus, 3)

	// Step 0 falls back to the origin with zero dispersion.
	assert.Equal(t, 120.5, consensus[0].Lon)
	assert.Equal(t, 24.0, consensus[0].Lat)
	assert.Zero(t, consensus[0].StdDistance)

	assert.Equal(t, 121.0, consensus[1].Lon)

	// Step 2 carries step 1 forward, again with zero dispersion.
	assert.Equal(t, 121.0, consensus[2].Lon)
	assert.Equal(t, 25.0, consensus[2].Lat)
	assert.Equal(t, 200.0, consensus[2].Alt)
	assert.Zero(t, consensus[2].StdDistance)
	assert.Zero(t, consensus[2].StdAltitude)
}

func TestConsensus_NeverEmitsNaN(t *testing.T) {
	p := smallParams()
	g := domain.NewGrid(4, p.Members, p.Vars)
	nan := math.NaN()

	setMember(g, p, 0, 0, 24.0, 120.5, 100)
	setMember(g, p, 0, 1, nan, 120.5, nan)
	setMember(g, p, 0, 2, 24.2, nan, 100)
	setMember(g, p, 0, 3, nan, nan, nan)
	for step := 1; step < 4; step++ {
		for m := 0; m < g.Members; m++ {
			setMember(g, p, step, m, nan, nan, nan)
		}
	}

	consensus := pipeline.Consensus(g, domain.Origin{Lat: 24, Lon: 120.5}, p)
	for step, pt := range consensus {
		for name, v := range map[string]float64{
			"lon": pt.Lon, "lat": pt.Lat, "alt": pt.Alt,
			"std_distance": pt.StdDistance, "std_altitude": pt.StdAltitude,
		} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "step %d %s", step, name)
		}
	}
}
