package pipeline

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// BuildRibbon converts the consensus trajectory and its dispersion into the
// uncertainty corridor polygon. Each consensus point is offset along its
// path normal by stdDistance scaled down by p.RibbonScale, both edges are
// smoothed with a centered moving average of p.RibbonSmoothWindow samples,
// and the edge endpoints are then reset to their un-smoothed values so the
// corridor pins to the exact origin and destination. The loop is the left
// edge followed by the right edge reversed. Upper and Lower carry the
// altitude band (consensus altitude plus/minus stdAltitude).
func BuildRibbon(consensus []domain.TrajectoryPoint, p domain.Params) domain.Ribbon {
	n := len(consensus)
	if n == 0 {
		return domain.Ribbon{}
	}

	left := make([]orb.Point, n)
	right := make([]orb.Point, n)
	upper := make([]float64, n)
	lower := make([]float64, n)

	for i, pt := range consensus {
		nx, ny := pathNormal(consensus, i)
		sigma := pt.StdDistance * p.RibbonScale

		left[i] = orb.Point{pt.Lon + nx*sigma, pt.Lat + ny*sigma}
		right[i] = orb.Point{pt.Lon - nx*sigma, pt.Lat - ny*sigma}
		upper[i] = pt.Alt + pt.StdAltitude
		lower[i] = pt.Alt - pt.StdAltitude
	}

	sLeft := smoothEdge(left, p.RibbonSmoothWindow)
	sRight := smoothEdge(right, p.RibbonSmoothWindow)

	// Pin the corridor to the exact endpoints, never their smoothed
	// approximations.
	sLeft[0], sLeft[n-1] = left[0], left[n-1]
	sRight[0], sRight[n-1] = right[0], right[n-1]

	boundary := make(orb.Ring, 0, 2*n)
	boundary = append(boundary, sLeft...)
	for i := n - 1; i >= 0; i-- {
		boundary = append(boundary, sRight[i])
	}

	return domain.Ribbon{Boundary: boundary, Upper: upper, Lower: lower}
}

// pathNormal estimates the unit normal at index i from neighboring
// consensus points: forward difference at the first point, backward at the
// last, central elsewhere. A zero-length tangent yields the zero vector, so
// the offset degenerates to the consensus point itself.
func pathNormal(consensus []domain.TrajectoryPoint, i int) (nx, ny float64) {
	n := len(consensus)
	var dx, dy float64
	switch {
	case n < 2:
		return 0, 0
	case i == 0:
		dx = consensus[1].Lon - consensus[0].Lon
		dy = consensus[1].Lat - consensus[0].Lat
	case i == n-1:
		dx = consensus[n-1].Lon - consensus[n-2].Lon
		dy = consensus[n-1].Lat - consensus[n-2].Lat
	default:
		dx = consensus[i+1].Lon - consensus[i-1].Lon
		dy = consensus[i+1].Lat - consensus[i-1].Lat
	}

	length := math.Hypot(dx, dy)
	if length == 0 || !isFinite(length) {
		return 0, 0
	}
	return -dy / length, dx / length
}

// smoothEdge applies a centered moving average of the given window width to
// each coordinate, clamping the window at the sequence boundaries. Sequences
// shorter than the window pass through unchanged.
func smoothEdge(edge []orb.Point, window int) []orb.Point {
	out := make([]orb.Point, len(edge))
	copy(out, edge)
	if len(edge) < window {
		return out
	}

	xs := make([]float64, len(edge))
	ys := make([]float64, len(edge))
	for i, pt := range edge {
		xs[i] = pt[0]
		ys[i] = pt[1]
	}

	half := window / 2
	for i := range edge {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half
		if end > len(edge)-1 {
			end = len(edge) - 1
		}
		span := float64(end - start + 1)
		out[i] = orb.Point{
			floats.Sum(xs[start : end+1]) / span,
			floats.Sum(ys[start : end+1]) / span,
		}
	}
	return out
}
