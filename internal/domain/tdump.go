package domain

import (
	"math"
	"strconv"
	"strings"
)

// originLatToken and originLonToken are the zero-based token offsets of the
// release coordinates within the first starting-location line.
const (
	originLatToken = 4
	originLonToken = 5
)

// ParseResult is the outcome of parsing one tdump file. Parsing never fails:
// malformed input degrades to zeros and a deferred origin instead of an
// error, because a partially usable visualization beats none.
type ParseResult struct {
	Grid *Grid

	// Origin is the release point from the header's starting-location line,
	// or nil when that line is absent or unparsable. Callers resolve the
	// centroid fallback after resampling.
	Origin *Origin

	// TotalTokens and ZeroFilled describe how much of the grid came from the
	// file versus lenient fallback (unparsable tokens plus missing cells).
	TotalTokens int
	ZeroFilled  int
}

// ParseTdump turns raw model output text into an ensemble grid of shape
// (p.TimeSteps x p.Members x p.Vars) plus, when present, the release origin.
// Altitudes for every time step after the first are divided by 10 here,
// exactly once, to undo the upstream format quirk.
func ParseTdump(raw []byte, p Params) ParseResult {
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")

	res := ParseResult{
		Grid:   NewGrid(p.TimeSteps, p.Members, p.Vars),
		Origin: parseHeaderOrigin(lines),
	}

	fillGrid(&res, lines, p)
	correctAltitudes(res.Grid, p)
	return res
}

// parseHeaderOrigin walks the header region: the first line's first token is
// the auxiliary meteorology file count N; line N+2 is the first starting
// location, whose tokens 4 and 5 are latitude and longitude.
func parseHeaderOrigin(lines []string) *Origin {
	if len(lines) == 0 {
		return nil
	}
	head := strings.Fields(lines[0])
	if len(head) == 0 {
		return nil
	}
	numMeteo, err := strconv.Atoi(head[0])
	if err != nil || numMeteo < 0 {
		return nil
	}

	target := numMeteo + 2
	if target >= len(lines) {
		return nil
	}
	tokens := strings.Fields(lines[target])
	if len(tokens) < originLonToken+1 {
		return nil
	}

	lat, errLat := strconv.ParseFloat(tokens[originLatToken], 64)
	lon, errLon := strconv.ParseFloat(tokens[originLonToken], 64)
	if errLat != nil || errLon != nil || !isFinite(lat) || !isFinite(lon) {
		return nil
	}
	return &Origin{Lat: lat, Lon: lon, Source: OriginHeader}
}

// fillGrid tokenizes everything after the fixed header offset and reshapes
// the flat sequence row-major into (time step, member, variable). Unparsable
// tokens become zero; a short file leaves the remaining cells zero.
func fillGrid(res *ParseResult, lines []string, p Params) {
	capacity := p.TimeSteps * p.Members * p.Vars
	g := res.Grid

	ptr := 0
	start := p.HeaderLines
	if start > len(lines) {
		start = len(lines)
	}
	for _, line := range lines[start:] {
		for _, tok := range strings.Fields(line) {
			if ptr >= capacity {
				res.TotalTokens++
				continue
			}
			t := ptr / (p.Members * p.Vars)
			m := (ptr / p.Vars) % p.Members
			v := ptr % p.Vars
			g.Set(t, m, v, parseTokenOrZero(tok, &res.ZeroFilled))
			ptr++
			res.TotalTokens++
		}
	}

	// Missing trailing cells count as zero fills too.
	if ptr < capacity {
		res.ZeroFilled += capacity - ptr
	}
}

// parseTokenOrZero parses a token as float64, returning 0 on failure or NaN.
func parseTokenOrZero(tok string, zeroFilled *int) float64 {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) {
		*zeroFilled++
		return 0
	}
	return v
}

// correctAltitudes undoes the ten-fold altitude scale the model applies to
// every time step after the first.
func correctAltitudes(g *Grid, p Params) {
	for t := 1; t < g.Steps; t++ {
		for m := 0; m < g.Members; m++ {
			g.Set(t, m, p.AltIndex, g.At(t, m, p.AltIndex)/10)
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
