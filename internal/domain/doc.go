// Package domain models ensemble particle-trajectory forecasts produced by
// the upstream dispersion model.
//
// # Data Source
//
// Each simulation run arrives as a single whitespace-delimited "tdump" text
// file written by the dispersion model for one release event. The collector
// that stages these files names them by run key:
//
//	tdump.<YYYY-MM-DD>-<HH>00.<F|B>.txt
//
// where <HH> is the UTC start hour and the trailing tag marks a forward (F)
// or backward (B) trajectory run.
//
// # File Layout
//
// The header region is line oriented:
//
//	Line 0:       first token is N, the number of auxiliary meteorology
//	              input files consumed by the model run.
//	Lines 1..N:   one meteorology file name per line.
//	Line N+1:     count of starting locations (one per ensemble member).
//	Line N+2:     first starting location. Tokens 4 and 5 (zero-based) are
//	              the latitude and longitude of the release origin.
//
// The data region begins at a fixed line offset (40 for the documented
// format). Its tokens, concatenated in reading order, fill a
// (time step x member x variable) grid in row-major order: 13 forecast
// hours, 27 ensemble members, 20 variables per record. Latitude, longitude,
// and altitude sit at variable offsets 9, 10, and 11.
//
// # Format Quirks
//
//	Altitude scale: the model writes altitudes for every time step after the
//	first at ten-fold scale. The parser divides them by 10 exactly once; no
//	other stage may repeat the correction.
//
//	Malformed tokens: tokens that fail numeric parsing (and literal NaN)
//	are stored as zero. A file too short to fill the grid is zero-filled.
//	Partial data degrades the visualization; it never aborts a run.
//
//	Missing origin: when the header's starting-location line is absent or
//	unparsable, the origin falls back to the centroid of member positions at
//	the first time step, resolved by the pipeline after resampling.
//
// # Run IDs
//
// Run IDs are deterministic SHA-256 hashes of date|hour|direction, so
// re-processing the same run key yields the same ID and downstream consumers
// can deduplicate republished payloads. See [RunKey.ID].
package domain
