package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Params holds the ensemble geometry and derivation constants for one
// pipeline run. The zero value is not usable; start from DefaultParams and
// override individual fields via the config file.
type Params struct {
	// Grid shape of the raw model output.
	TimeSteps int `toml:"time_steps"`
	Members   int `toml:"members"`
	Vars      int `toml:"vars"`

	// Variable offsets within each member record.
	LatIndex int `toml:"lat_index"`
	LonIndex int `toml:"lon_index"`
	AltIndex int `toml:"alt_index"`

	// HeaderLines is the fixed line offset at which the data region starts.
	HeaderLines int `toml:"header_lines"`

	// FineSteps is the resampled time resolution.
	FineSteps int `toml:"fine_steps"`

	// ConsensusSize is the number of centroid-nearest members averaged into
	// the consensus position. Clamped to the member count at runtime.
	ConsensusSize int `toml:"consensus_size"`

	// RibbonScale shrinks the raw dispersion magnitude before it is drawn;
	// the full spread would overwhelm the map.
	RibbonScale float64 `toml:"ribbon_scale"`

	// RibbonSmoothWindow is the width of the centered moving average applied
	// to the ribbon edges.
	RibbonSmoothWindow int `toml:"ribbon_smooth_window"`

	// FallbackRadius is the half-extent, in coordinate degrees, of the
	// diamond polygon emitted when a hull is undefined.
	FallbackRadius float64 `toml:"fallback_radius"`
}

// DefaultParams returns the documented constants of the upstream model
// format: a 13x27x20 grid resampled to 721 steps, position fields at offsets
// 9/10/11, best-25 consensus, ribbon scale 0.1 with a 50-sample smoothing
// window.
func DefaultParams() Params {
	return Params{
		TimeSteps:          13,
		Members:            27,
		Vars:               20,
		LatIndex:           9,
		LonIndex:           10,
		AltIndex:           11,
		HeaderLines:        40,
		FineSteps:          721,
		ConsensusSize:      25,
		RibbonScale:        0.1,
		RibbonSmoothWindow: 50,
		FallbackRadius:     0.0001,
	}
}

// Validate reports the first structurally impossible parameter combination.
func (p Params) Validate() error {
	switch {
	case p.TimeSteps < 2:
		return fmt.Errorf("time_steps must be at least 2, got %d", p.TimeSteps)
	case p.Members < 1:
		return fmt.Errorf("members must be positive, got %d", p.Members)
	case p.Vars < 1:
		return fmt.Errorf("vars must be positive, got %d", p.Vars)
	case p.FineSteps < p.TimeSteps:
		return fmt.Errorf("fine_steps (%d) must not be below time_steps (%d)", p.FineSteps, p.TimeSteps)
	case p.ConsensusSize < 1:
		return fmt.Errorf("consensus_size must be positive, got %d", p.ConsensusSize)
	case p.RibbonScale <= 0:
		return fmt.Errorf("ribbon_scale must be positive, got %g", p.RibbonScale)
	case p.RibbonSmoothWindow < 1:
		return fmt.Errorf("ribbon_smooth_window must be positive, got %d", p.RibbonSmoothWindow)
	case p.FallbackRadius <= 0:
		return fmt.Errorf("fallback_radius must be positive, got %g", p.FallbackRadius)
	}
	for _, idx := range []int{p.LatIndex, p.LonIndex, p.AltIndex} {
		if idx < 0 || idx >= p.Vars {
			return fmt.Errorf("variable index %d out of range for %d vars", idx, p.Vars)
		}
	}
	return nil
}

// Grid is a (time step x member x variable) array of model output. The shape
// is fixed at construction; stages after the parser treat the grid as
// read-only.
type Grid struct {
	Steps   int
	Members int
	Vars    int
	data    []float64
}

// NewGrid allocates a zero-filled grid of the given shape.
func NewGrid(steps, members, vars int) *Grid {
	return &Grid{
		Steps:   steps,
		Members: members,
		Vars:    vars,
		data:    make([]float64, steps*members*vars),
	}
}

// At returns the value at (time step, member, variable).
func (g *Grid) At(t, m, v int) float64 {
	return g.data[(t*g.Members+m)*g.Vars+v]
}

// Set stores a value at (time step, member, variable).
func (g *Grid) Set(t, m, v int, val float64) {
	g.data[(t*g.Members+m)*g.Vars+v] = val
}

// Position returns the (lon, lat) point of a member at a time step, using
// the variable offsets in p.
func (g *Grid) Position(t, m int, p Params) orb.Point {
	return orb.Point{g.At(t, m, p.LonIndex), g.At(t, m, p.LatIndex)}
}

// Altitude returns a member's altitude at a time step.
func (g *Grid) Altitude(t, m int, p Params) float64 {
	return g.At(t, m, p.AltIndex)
}
