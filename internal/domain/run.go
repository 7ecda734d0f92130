package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Direction tags a trajectory run as forward or backward in time.
type Direction string

const (
	DirectionForward  Direction = "F"
	DirectionBackward Direction = "B"
)

// RunKey identifies one simulation run: release date, UTC start hour, and
// trajectory direction. It maps one-to-one onto a staged model output file.
type RunKey struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	Hour      int       `json:"hour"`
	Direction Direction `json:"direction"`
}

// NewRunKey validates the raw request fields and builds a RunKey.
func NewRunKey(date string, hour int, direction string) (RunKey, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return RunKey{}, fmt.Errorf("invalid run date %q: %w", date, err)
	}
	if hour < 0 || hour > 23 {
		return RunKey{}, fmt.Errorf("invalid run hour %d", hour)
	}
	dir := Direction(direction)
	if dir != DirectionForward && dir != DirectionBackward {
		return RunKey{}, fmt.Errorf("invalid run direction %q", direction)
	}
	return RunKey{Date: date, Hour: hour, Direction: dir}, nil
}

// Filename returns the staged file name for this run under the collector's
// naming convention, e.g. "tdump.2024-04-26-0600.F.txt".
func (k RunKey) Filename() string {
	return fmt.Sprintf("tdump.%s-%02d00.%s.txt", k.Date, k.Hour, k.Direction)
}

// ID produces the deterministic run ID. Reprocessing the same run key yields
// the same ID, which keeps downstream republishes idempotent.
func (k RunKey) ID() string {
	input := fmt.Sprintf("%s|%02d|%s", k.Date, k.Hour, k.Direction)
	hash := sha256.Sum256([]byte(input))
	return "run-" + hex.EncodeToString(hash[:8])
}

func (k RunKey) String() string {
	return fmt.Sprintf("%s %02d:00 %s", k.Date, k.Hour, k.Direction)
}
