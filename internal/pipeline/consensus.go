package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// Consensus derives the representative trajectory from the fine-resolution
// grid: per time step, the mean position of the p.ConsensusSize members
// nearest the ensemble centroid, plus the RMS spread of the whole ensemble
// around that position. The output never contains NaN; a step with no finite
// member positions carries the previous step's consensus forward (the origin
// at step zero) with zero dispersion.
func Consensus(fine *domain.Grid, origin domain.Origin, p domain.Params) []domain.TrajectoryPoint {
	out := make([]domain.TrajectoryPoint, fine.Steps)

	lons := make([]float64, fine.Members)
	lats := make([]float64, fine.Members)
	alts := make([]float64, fine.Members)
	dists := make([]float64, fine.Members)
	order := make([]int, fine.Members)

	prev := domain.TrajectoryPoint{Lon: origin.Lon, Lat: origin.Lat}

	for t := 0; t < fine.Steps; t++ {
		for m := 0; m < fine.Members; m++ {
			lons[m] = fine.At(t, m, p.LonIndex)
			lats[m] = fine.At(t, m, p.LatIndex)
			alts[m] = fine.At(t, m, p.AltIndex)
		}

		if !anyFinitePair(lons, lats) {
			carried := prev
			carried.StdDistance = 0
			carried.StdAltitude = 0
			out[t] = carried
			prev = carried
			continue
		}

		cLon := finiteMean(lons, prev.Lon)
		cLat := finiteMean(lats, prev.Lat)

		// Distance to the centroid; non-finite positions sort last.
		for m := range dists {
			d := math.Hypot(lats[m]-cLat, lons[m]-cLon)
			if !isFinite(d) {
				d = math.Inf(1)
			}
			dists[m] = d
			order[m] = m
		}
		sort.Slice(order, func(i, j int) bool {
			if dists[order[i]] != dists[order[j]] {
				return dists[order[i]] < dists[order[j]]
			}
			return order[i] < order[j]
		})

		k := p.ConsensusSize
		if k > fine.Members {
			k = fine.Members
		}
		pt := domain.TrajectoryPoint{
			Lon: selectedMean(lons, order[:k], prev.Lon),
			Lat: selectedMean(lats, order[:k], prev.Lat),
			Alt: selectedMean(alts, order[:k], prev.Alt),
		}
		pt.StdDistance, pt.StdAltitude = dispersion(lons, lats, alts, pt)

		out[t] = pt
		prev = pt
	}
	return out
}

// dispersion computes the RMS planar distance and RMS altitude deviation of
// every finite member around the consensus point.
func dispersion(lons, lats, alts []float64, c domain.TrajectoryPoint) (stdDist, stdAlt float64) {
	var sumSqDist, sumSqAlt float64
	var nDist, nAlt int
	for m := range lons {
		if isFinite(lons[m]) && isFinite(lats[m]) {
			d := math.Hypot(lats[m]-c.Lat, lons[m]-c.Lon)
			sumSqDist += d * d
			nDist++
		}
		if isFinite(alts[m]) {
			dA := alts[m] - c.Alt
			sumSqAlt += dA * dA
			nAlt++
		}
	}
	if nDist > 0 {
		stdDist = math.Sqrt(sumSqDist / float64(nDist))
	}
	if nAlt > 0 {
		stdAlt = math.Sqrt(sumSqAlt / float64(nAlt))
	}
	return stdDist, stdAlt
}

// anyFinitePair reports whether at least one member has a fully finite
// (lon, lat) position.
func anyFinitePair(lons, lats []float64) bool {
	for m := range lons {
		if isFinite(lons[m]) && isFinite(lats[m]) {
			return true
		}
	}
	return false
}

// finiteMean averages the finite values of vs, falling back when none exist.
func finiteMean(vs []float64, fallback float64) float64 {
	finite := vs[:0:0]
	for _, v := range vs {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return fallback
	}
	return stat.Mean(finite, nil)
}

// selectedMean averages the finite values of vs at the given indices.
func selectedMean(vs []float64, idx []int, fallback float64) float64 {
	finite := make([]float64, 0, len(idx))
	for _, i := range idx {
		if isFinite(vs[i]) {
			finite = append(finite, vs[i])
		}
	}
	if len(finite) == 0 {
		return fallback
	}
	return stat.Mean(finite, nil)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
