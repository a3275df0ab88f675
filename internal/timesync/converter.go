package timesync

import (
	"fmt"
	"os"
	"time"
)

// Converter handles conversion from log timestamps to wall-clock time.
type Converter struct {
	baseTime time.Time
}

// NewConverter creates a converter where log time zero is base.
func NewConverter(base time.Time) *Converter {
	return &Converter{baseTime: base}
}

// AnchorAt creates a converter that maps logNanos to at.
func AnchorAt(at time.Time, logNanos uint64) *Converter {
	//nolint:gosec // uint64 to int64 conversion for time.Duration is safe for reasonable timestamps
	return &Converter{baseTime: at.Add(-time.Duration(logNanos))}
}

// AnchorToFile anchors lastNanos at the modification time of path.
func AnchorToFile(path string, lastNanos uint64) (*Converter, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return AnchorAt(info.ModTime(), lastNanos), nil
}

// ToWallClock converts a log timestamp (nanoseconds since firmware boot) to
// wall-clock time.
func (c *Converter) ToWallClock(logNanos uint64) time.Time {
	//nolint:gosec // uint64 to int64 conversion for time.Duration is safe for reasonable timestamps
	return c.baseTime.Add(time.Duration(logNanos))
}

// BaseTime returns the wall-clock time of log time zero.
func (c *Converter) BaseTime() time.Time {
	return c.baseTime
}
