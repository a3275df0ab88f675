// Package config resolves the converter configuration from defaults, an
// optional YAML file and command-line flags, in that order.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// Output formats.
const (
	FormatChrome = "chrome"
	FormatText   = "text"
	FormatSQLite = "sqlite"
)

// Byte orders.
const (
	ByteOrderLittle = "little"
	ByteOrderBig    = "big"
)

// MaxLanes is the largest lane count a cpu id byte can address.
const MaxLanes = 256

// DefaultLanes matches the CPU count of the firmware's target SoC.
const DefaultLanes = 3

// CustomAttribute defines an extra field computed for every emitted event.
type CustomAttribute struct {
	Name       string
	Expression string
}

// Config holds the resolved configuration of one conversion.
type Config struct {
	// Input and Output are the two positional arguments.
	Input  string `yaml:"-"`
	Output string `yaml:"-"`

	Lanes          int               `yaml:"lanes"`
	TimeMultiplier uint64            `yaml:"time_multiplier"`
	ByteOrderName  string            `yaml:"byte_order"`
	Format         string            `yaml:"format"`
	Filter         string            `yaml:"filter"`
	Attributes     map[string]string `yaml:"attributes"`
	TraceID        string            `yaml:"trace_id"`
	BaseTime       string            `yaml:"base_time"`
	MetricsFile    string            `yaml:"metrics_file"`
	OTLP           bool              `yaml:"otlp"`
	Verbose        bool              `yaml:"verbose"`
	LogLevel       string            `yaml:"log_level"`

	// CustomAttributes are the file's attributes sorted by name, followed by
	// the --attr flags in command-line order.
	CustomAttributes []CustomAttribute `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Lanes:          DefaultLanes,
		TimeMultiplier: tracelog.DefaultTimeMultiplier,
		ByteOrderName:  ByteOrderLittle,
		LogLevel:       "info",
	}
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are errors.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer func() {
		_ = f.Close() //nolint:errcheck // read-only
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	names := make([]string, 0, len(c.Attributes))
	for name := range c.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.CustomAttributes = append(c.CustomAttributes, CustomAttribute{Name: name, Expression: c.Attributes[name]})
	}
	return nil
}

// ParseCustomAttribute parses a name=expression flag value.
func ParseCustomAttribute(s string) (CustomAttribute, error) {
	name, expression, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(expression) == "" {
		return CustomAttribute{}, fmt.Errorf("invalid attribute %q, expected name=expression", s)
	}
	return CustomAttribute{Name: name, Expression: expression}, nil
}

// ResolveFormat fills Format from the output extension when it is unset.
func (c *Config) ResolveFormat() {
	if c.Format != "" {
		return
	}
	switch strings.ToLower(filepath.Ext(c.Output)) {
	case ".txt", ".log":
		c.Format = FormatText
	case ".db", ".sqlite", ".sqlite3":
		c.Format = FormatSQLite
	default:
		c.Format = FormatChrome
	}
}

// Validate checks c after every layer has been applied.
func (c *Config) Validate() error {
	var errs []error
	if c.Input == "" || c.Output == "" {
		errs = append(errs, errors.New("input and output paths are required"))
	}
	if c.Lanes < 1 || c.Lanes > MaxLanes {
		errs = append(errs, fmt.Errorf("lanes must be between 1 and %d, got %d", MaxLanes, c.Lanes))
	}
	if c.TimeMultiplier == 0 {
		errs = append(errs, errors.New("time multiplier must not be zero"))
	}
	switch c.Format {
	case FormatChrome, FormatText, FormatSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if _, err := c.ByteOrder(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := c.BaseTimeValue(); err != nil {
		errs = append(errs, err)
	}
	for _, attr := range c.CustomAttributes {
		if attr.Name == "" || attr.Expression == "" {
			errs = append(errs, fmt.Errorf("attribute %q needs a name and an expression", attr.Name))
		}
	}
	return errors.Join(errs...)
}

// ByteOrder returns the capture byte order.
func (c *Config) ByteOrder() (binary.ByteOrder, error) {
	switch strings.ToLower(c.ByteOrderName) {
	case "", ByteOrderLittle:
		return binary.LittleEndian, nil
	case ByteOrderBig:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", c.ByteOrderName)
	}
}

// BaseTimeValue parses BaseTime. ok is false when it is unset.
func (c *Config) BaseTimeValue() (t time.Time, ok bool, err error) {
	if c.BaseTime == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339Nano, c.BaseTime)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid base time %q: %w", c.BaseTime, err)
	}
	return t, true, nil
}

// Level returns the log level, debug when Verbose is set.
func (c *Config) Level() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}
