// Command genmock writes a synthetic model output file for one run key,
// shaped like real dispersion model output: a fixed-offset header with a
// starting-location line, then the flat (step, member, variable) record
// block. It uses the actual domain parser to verify its own output, so
// fixtures always match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -date 2024-04-26 -hour 6 -direction F -out-dir ./database
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	date := flag.String("date", "2024-04-26", "run date (YYYY-MM-DD)")
	hour := flag.Int("hour", 6, "run start hour (0-23 UTC)")
	direction := flag.String("direction", "F", "trajectory direction (F or B)")
	outDir := flag.String("out-dir", "./database", "directory to write the model file into")
	seed := flag.Int64("seed", 42, "random seed for reproducible member walks")
	originLat := flag.Float64("origin-lat", 24.0, "release latitude")
	originLon := flag.Float64("origin-lon", 120.5, "release longitude")
	flag.Parse()

	key, err := domain.NewRunKey(*date, *hour, *direction)
	if err != nil {
		return err
	}

	p := domain.DefaultParams()
	raw := generate(p, *seed, *originLat, *originLon)

	// Parse our own output to confirm it round-trips.
	res := domain.ParseTdump(raw, p)
	if res.Origin == nil {
		return fmt.Errorf("generated file lost its header origin")
	}
	if res.ZeroFilled > 0 {
		return fmt.Errorf("generated file has %d zero-filled slots", res.ZeroFilled)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	path := filepath.Join(*outDir, key.Filename())
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}

	log.Printf("wrote %s (%d bytes, %d tokens)", path, len(raw), res.TotalTokens)
	printStats(res.Grid, p)
	return nil
}

// generate renders the model file text: each member performs a smooth random
// walk away from the origin while its altitude rises and decays. Altitudes
// for steps after the first are written pre-scaled by 10, matching the
// upstream format the parser corrects for.
func generate(p domain.Params, seed int64, originLat, originLon float64) []byte {
	rng := rand.New(rand.NewSource(seed))

	var b strings.Builder
	b.WriteString("3 1 1 1\n")
	b.WriteString("GDAS1 apr24 w1\nGDAS1 apr24 w2\nGDAS1 apr24 w3\n")
	fmt.Fprintf(&b, "%d 1\n", p.Members)
	fmt.Fprintf(&b, "24 04 26 06 %.4f %.4f 10.0\n", originLat, originLon)
	for strings.Count(b.String(), "\n") < p.HeaderLines {
		b.WriteString("1 PRESSURE\n")
	}

	// Per-member drift so the ensemble fans out rather than jitters in place.
	driftLat := make([]float64, p.Members)
	driftLon := make([]float64, p.Members)
	for m := range driftLat {
		driftLat[m] = (rng.Float64() - 0.5) * 0.12
		driftLon[m] = 0.05 + rng.Float64()*0.1
	}

	lat := make([]float64, p.Members)
	lon := make([]float64, p.Members)
	for m := range lat {
		lat[m] = originLat
		lon[m] = originLon
	}

	for step := 0; step < p.TimeSteps; step++ {
		for m := 0; m < p.Members; m++ {
			if step > 0 {
				lat[m] += driftLat[m] + (rng.Float64()-0.5)*0.04
				lon[m] += driftLon[m] + (rng.Float64()-0.5)*0.04
			}
			alt := 10.0 + 500*math.Sin(math.Pi*float64(step)/float64(p.TimeSteps-1)) + rng.Float64()*20
			if step > 0 {
				alt *= 10
			}

			fields := make([]string, p.Vars)
			for v := range fields {
				switch v {
				case p.LatIndex:
					fields[v] = fmt.Sprintf("%.4f", lat[m])
				case p.LonIndex:
					fields[v] = fmt.Sprintf("%.4f", lon[m])
				case p.AltIndex:
					fields[v] = fmt.Sprintf("%.1f", alt)
				default:
					fields[v] = fmt.Sprintf("%.1f", rng.Float64()*100)
				}
			}
			b.WriteString(strings.Join(fields, " ") + "\n")
		}
	}
	return []byte(b.String())
}

func printStats(g *domain.Grid, p domain.Params) {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	var maxAlt float64
	for t := 0; t < g.Steps; t++ {
		for m := 0; m < g.Members; m++ {
			pt := g.Position(t, m, p)
			minLon, maxLon = math.Min(minLon, pt[0]), math.Max(maxLon, pt[0])
			minLat, maxLat = math.Min(minLat, pt[1]), math.Max(maxLat, pt[1])
			maxAlt = math.Max(maxAlt, g.Altitude(t, m, p))
		}
	}
	log.Printf("grid: %d steps x %d members x %d vars", g.Steps, g.Members, g.Vars)
	log.Printf("lat range: %.4f to %.4f", minLat, maxLat)
	log.Printf("lon range: %.4f to %.4f", minLon, maxLon)
	log.Printf("max altitude: %.1f", maxAlt)
}
