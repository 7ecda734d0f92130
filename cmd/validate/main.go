// Command validate runs end-to-end integrity checks against one staged model
// output file: it parses the file, executes every pipeline stage, and
// verifies the structural invariants the renderer depends on. Zero-fill is
// reported but never fails a phase, mirroring the lenient parser.
//
// Usage:
//
//	go run ./cmd/validate -file database/tdump.2024-04-26-0600.F.txt
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a staged model output file")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Trajectory Pipeline Integrity Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read model file: %v\n", err)
		return 1
	}

	p := domain.DefaultParams()
	result := domain.ParseTdump(raw, p)
	fine := pipeline.Resample(result.Grid, p)

	origin := domain.Origin{Source: domain.OriginCentroid}
	if result.Origin != nil {
		origin = *result.Origin
	}

	consensus := pipeline.Consensus(fine, origin, p)
	ribbon := pipeline.BuildRibbon(consensus, p)
	hulls, fallbacks := pipeline.CumulativeHulls(fine, origin, p)
	frames := pipeline.BuildFrames(fine, origin, consensus, hulls, p)

	phases := []*phase{
		validateParse(result, p),
		validateResampling(result.Grid, fine, p),
		validateConsensus(consensus, p),
		validateGeometry(ribbon, hulls, frames, p),
	}

	fmt.Println()
	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	fmt.Printf("Tokens: %d total, %d zero-filled (%.2f%%), hull fallbacks: %d\n",
		result.TotalTokens, result.ZeroFilled,
		100*float64(result.ZeroFilled)/float64(p.TimeSteps*p.Members*p.Vars), fallbacks)

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateParse(result domain.ParseResult, p domain.Params) *phase {
	ph := &phase{name: "parse integrity"}

	g := result.Grid
	if g.Steps != p.TimeSteps || g.Members != p.Members || g.Vars != p.Vars {
		ph.errorf("grid shape %dx%dx%d, want %dx%dx%d",
			g.Steps, g.Members, g.Vars, p.TimeSteps, p.Members, p.Vars)
	}
	if result.Origin == nil {
		fmt.Println("  note: no header origin, centroid fallback in effect")
	} else if math.Abs(result.Origin.Lat) > 90 || math.Abs(result.Origin.Lon) > 180 {
		ph.errorf("header origin (%.4f, %.4f) outside valid coordinate range",
			result.Origin.Lat, result.Origin.Lon)
	}
	return ph
}

func validateResampling(coarse, fine *domain.Grid, p domain.Params) *phase {
	ph := &phase{name: "interpolation exactness"}

	if fine.Steps != p.FineSteps {
		ph.errorf("fine grid has %d steps, want %d", fine.Steps, p.FineSteps)
		return ph
	}
	perSegment := (p.FineSteps - 1) / (coarse.Steps - 1)
	for t := 0; t < coarse.Steps; t++ {
		for m := 0; m < coarse.Members; m++ {
			for v := 0; v < coarse.Vars; v++ {
				want := coarse.At(t, m, v)
				got := fine.At(t*perSegment, m, v)
				if want != got && !(math.IsNaN(want) && math.IsNaN(got)) {
					ph.errorf("fine step %d member %d var %d: %v, want coarse sample %v",
						t*perSegment, m, v, got, want)
				}
			}
		}
	}
	return ph
}

func validateConsensus(consensus []domain.TrajectoryPoint, p domain.Params) *phase {
	ph := &phase{name: "consensus stability"}

	if len(consensus) != p.FineSteps {
		ph.errorf("consensus has %d points, want %d", len(consensus), p.FineSteps)
		return ph
	}
	for i, pt := range consensus {
		for name, v := range map[string]float64{
			"lon": pt.Lon, "lat": pt.Lat, "alt": pt.Alt,
			"std_distance": pt.StdDistance, "std_altitude": pt.StdAltitude,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ph.errorf("step %d: %s is not finite", i, name)
			}
		}
		if pt.StdDistance < 0 || pt.StdAltitude < 0 {
			ph.errorf("step %d: negative dispersion", i)
		}
	}
	return ph
}

func validateGeometry(ribbon domain.Ribbon, hulls []orb.Ring, frames []domain.Frame, p domain.Params) *phase {
	ph := &phase{name: "geometry invariants"}

	if len(ribbon.Boundary) != 2*p.FineSteps {
		ph.errorf("ribbon loop has %d vertices, want %d", len(ribbon.Boundary), 2*p.FineSteps)
	}
	if len(hulls) != p.FineSteps {
		ph.errorf("%d hulls, want %d", len(hulls), p.FineSteps)
		return ph
	}

	prevArea := 0.0
	for i, ring := range hulls {
		if len(ring) < 4 {
			ph.errorf("hull %d has %d vertices, below minimum closed triangle", i, len(ring))
			continue
		}
		if ring[0] != ring[len(ring)-1] {
			ph.errorf("hull %d is not closed", i)
		}
		area := math.Abs(planar.Area(ring))
		// The fallback diamond may be smaller than a previous real hull;
		// monotonicity only binds between real hulls.
		if area < prevArea && area > diamondArea(p.FallbackRadius) {
			ph.errorf("hull %d area %g shrank below %g", i, area, prevArea)
		}
		if area > diamondArea(p.FallbackRadius) {
			prevArea = area
		}
	}

	if len(frames) != p.FineSteps {
		ph.errorf("%d frames, want %d", len(frames), p.FineSteps)
		return ph
	}
	for i, f := range frames {
		if f.Step != i {
			ph.errorf("frame %d carries step %d", i, f.Step)
		}
		if len(f.Positions) != p.Members {
			ph.errorf("frame %d has %d positions, want %d", i, len(f.Positions), p.Members)
		}
		for m, pos := range f.Positions {
			if math.IsNaN(pos[0]) || math.IsNaN(pos[1]) {
				ph.errorf("frame %d member %d position is NaN after origin substitution", i, m)
			}
		}
	}
	return ph
}

func diamondArea(radius float64) float64 {
	return 2 * radius * radius
}
