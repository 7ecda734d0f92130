package pipeline

import (
	"math"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// Resample upsamples a coarse grid to p.FineSteps time steps by linear
// interpolation along the time axis, independently for every (member,
// variable) pair. The coarse axis is treated as uniform integers 0..N-1 and
// the fine axis spans the same range, so a fine index landing exactly on a
// coarse index reproduces that coarse sample bit-for-bit. The input grid is
// not modified.
func Resample(g *domain.Grid, p domain.Params) *domain.Grid {
	fine := domain.NewGrid(p.FineSteps, g.Members, g.Vars)

	// Fine samples per coarse segment: 60 for the documented 13 -> 721 shape.
	perSegment := float64(p.FineSteps-1) / float64(g.Steps-1)

	for i := 0; i < p.FineSteps; i++ {
		x := float64(i) / perSegment
		t0 := int(math.Floor(x))
		if t0 > g.Steps-1 {
			t0 = g.Steps - 1
		}
		t1 := t0 + 1
		if t1 > g.Steps-1 {
			t1 = g.Steps - 1
		}
		frac := x - float64(t0)

		for m := 0; m < g.Members; m++ {
			for v := 0; v < g.Vars; v++ {
				v0 := g.At(t0, m, v)
				v1 := g.At(t1, m, v)
				fine.Set(i, m, v, v0+(v1-v0)*frac)
			}
		}
	}
	return fine
}
