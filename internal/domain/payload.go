package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// OriginSource records how the release origin was resolved.
type OriginSource string

const (
	// OriginHeader means the origin came from the file's starting-location line.
	OriginHeader OriginSource = "header"
	// OriginCentroid means the origin is the centroid of member positions at
	// the first time step, used when the header is absent or unparsable.
	OriginCentroid OriginSource = "centroid"
)

// Origin is the release point of the simulated event. Immutable once
// resolved; every stage needing a default position consumes it.
type Origin struct {
	Lat    float64      `json:"lat"`
	Lon    float64      `json:"lon"`
	Source OriginSource `json:"source"`
}

// Point returns the origin in (lon, lat) geometry order.
func (o Origin) Point() orb.Point {
	return orb.Point{o.Lon, o.Lat}
}

// TrajectoryPoint is one fine time step of the consensus trajectory:
// the averaged position of the centroid-nearest members plus the dispersion
// of the full ensemble around it.
type TrajectoryPoint struct {
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
	Alt         float64 `json:"alt"`
	StdDistance float64 `json:"std_distance"`
	StdAltitude float64 `json:"std_altitude"`
}

// Ribbon is the uncertainty corridor around the consensus trajectory.
// Boundary is the left offset edge followed by the right edge reversed,
// forming one implicitly closed loop. Upper and Lower bound the consensus
// altitude per fine time step.
type Ribbon struct {
	Boundary orb.Ring  `json:"boundary"`
	Upper    []float64 `json:"upper"`
	Lower    []float64 `json:"lower"`
}

// MemberTrack is one ensemble member's densely resampled path.
type MemberTrack struct {
	Member int            `json:"member"`
	Path   orb.LineString `json:"path"`
	Alts   []float64      `json:"alts"`
}

// Frame is everything the renderer needs to draw one fine time step:
// member positions (non-finite coordinates replaced by the origin), the
// consensus point, and the convex hull of the area swept so far. The hull
// ring is closed (first vertex repeated); when fewer than three distinct
// finite positions exist it is the origin-centered fallback diamond.
type Frame struct {
	Step      int             `json:"step"`
	Positions []orb.Point     `json:"positions"`
	Consensus TrajectoryPoint `json:"consensus"`
	Hull      orb.Ring        `json:"hull"`
}

// RunPayload is the complete structured output of one pipeline run, handed
// to the rendering collaborator. Built once per run and read-only afterward.
type RunPayload struct {
	ID          string            `json:"id"`
	Key         RunKey            `json:"key"`
	Origin      Origin            `json:"origin"`
	Members     []MemberTrack     `json:"members"`
	Consensus   []TrajectoryPoint `json:"consensus"`
	Ribbon      Ribbon            `json:"ribbon"`
	Frames      []Frame           `json:"frames"`
	GeneratedAt time.Time         `json:"generated_at"`
}
