package pipeline

import (
	"github.com/paulmach/orb"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// BuildFrames assembles the per-step animation frames. Each frame carries
// every member's position at that fine time step with non-finite coordinates
// replaced per-coordinate by the origin, the matching consensus point, and
// the cumulative convex hull for the step.
func BuildFrames(fine *domain.Grid, origin domain.Origin, consensus []domain.TrajectoryPoint, hulls []orb.Ring, p domain.Params) []domain.Frame {
	frames := make([]domain.Frame, fine.Steps)
	for t := 0; t < fine.Steps; t++ {
		positions := make([]orb.Point, fine.Members)
		for m := 0; m < fine.Members; m++ {
			pt := fine.Position(t, m, p)
			if !isFinite(pt[0]) {
				pt[0] = origin.Lon
			}
			if !isFinite(pt[1]) {
				pt[1] = origin.Lat
			}
			positions[m] = pt
		}
		frames[t] = domain.Frame{
			Step:      t,
			Positions: positions,
			Consensus: consensus[t],
			Hull:      hulls[t],
		}
	}
	return frames
}

// MemberTracks extracts each member's full resampled path and altitude
// profile from the fine grid. Coordinates pass through untouched; the
// renderer draws member tracks as-is and only frames get origin
// substitution.
func MemberTracks(fine *domain.Grid, p domain.Params) []domain.MemberTrack {
	tracks := make([]domain.MemberTrack, fine.Members)
	for m := 0; m < fine.Members; m++ {
		path := make(orb.LineString, fine.Steps)
		alts := make([]float64, fine.Steps)
		for t := 0; t < fine.Steps; t++ {
			path[t] = fine.Position(t, m, p)
			alts[t] = fine.Altitude(t, m, p)
		}
		tracks[m] = domain.MemberTrack{Member: m, Path: path, Alts: alts}
	}
	return tracks
}
