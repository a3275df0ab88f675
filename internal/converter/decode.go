package converter

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/mrzor/tracelog-converter/internal/eventstream"
	"github.com/mrzor/tracelog-converter/internal/merge"
	"github.com/mrzor/tracelog-converter/internal/metrics"
)

// Capture is a decoded capture file.
type Capture struct {
	Lanes *merge.Lanes
	// Size of the file in bytes.
	Size int64
	// Fault is set when decoding stopped before the end of the file.
	Fault *eventstream.FaultError
}

// Decode reads the capture at path into lanes lanes. The file is only open
// while decoding. A structural fault is reported in Capture.Fault, not as an
// error.
func Decode(path string, lanes int, opts eventstream.Options, stats *metrics.Stats) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer func() {
		_ = f.Close() //nolint:errcheck // read-only
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat capture: %w", err)
	}

	c := &Capture{Lanes: merge.NewLanes(lanes), Size: info.Size()}
	err = eventstream.NewReader(bufio.NewReader(f), opts).Fill(c.Lanes)

	var fault *eventstream.FaultError
	switch {
	case errors.As(err, &fault):
		c.Fault = fault
		stats.Fault()
	case err != nil:
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}

	for lane, n := range c.Lanes.Sizes() {
		stats.Decoded(lane, n)
	}
	return c, nil
}

// logFields describes c for the decode summary.
func (c *Capture) logFields() []zap.Field {
	fields := []zap.Field{
		zap.Int("records", c.Lanes.Total()),
		zap.Int64("bytes", c.Size),
	}
	for lane, n := range c.Lanes.Sizes() {
		fields = append(fields, zap.Int("cpu"+strconv.Itoa(lane), n))
	}
	return fields
}
