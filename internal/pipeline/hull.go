package pipeline

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// CumulativeHulls computes, for every fine time step t, the convex hull of
// all finite member positions observed at steps 0..t: the area swept by the
// plume so far. Steps whose point set is too small or degenerate produce the
// origin-centered fallback diamond instead of an empty polygon; the second
// return value counts those steps.
//
// Each hull is built incrementally from the previous hull's vertices plus
// the step's new points, which yields the same polygon as hulling the full
// cumulative set.
func CumulativeHulls(fine *domain.Grid, origin domain.Origin, p domain.Params) ([]orb.Ring, int) {
	rings := make([]orb.Ring, fine.Steps)
	fallbacks := 0

	var base []orb.Point
	for t := 0; t < fine.Steps; t++ {
		for m := 0; m < fine.Members; m++ {
			pt := fine.Position(t, m, p)
			if isFinite(pt[0]) && isFinite(pt[1]) {
				base = append(base, pt)
			}
		}

		hull := monotoneChain(base)
		if len(hull) < 3 {
			rings[t] = fallbackDiamond(origin, p.FallbackRadius)
			fallbacks++
			continue
		}

		ring := make(orb.Ring, len(hull)+1)
		copy(ring, hull)
		ring[len(hull)] = hull[0]
		rings[t] = ring
		base = hull
	}
	return rings, fallbacks
}

// monotoneChain returns the convex hull of pts in counter-clockwise order
// without the closing vertex, using Andrew's monotone chain. Collinear
// boundary points are excluded (points are popped while the turn is not
// strictly counter-clockwise). Fewer than 3 input points, or a fully
// collinear set, yield fewer than 3 vertices. The input slice is reordered.
func monotoneChain(pts []orb.Point) []orb.Point {
	if len(pts) < 3 {
		return append([]orb.Point(nil), pts...)
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	var lower []orb.Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []orb.Point
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// Each chain's last point is the other chain's first; drop both.
	hull := make([]orb.Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

// cross is the z-component of (a-o) x (b-o): positive for a strict
// counter-clockwise turn.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// fallbackDiamond is the "no meaningful area yet" polygon: a tiny closed
// diamond centered on the release origin, wound counter-clockwise.
func fallbackDiamond(origin domain.Origin, radius float64) orb.Ring {
	lon, lat := origin.Lon, origin.Lat
	return orb.Ring{
		{lon, lat + radius},
		{lon - radius, lat},
		{lon, lat - radius},
		{lon + radius, lat},
		{lon, lat + radius},
	}
}
