package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags holds the raw command-line values until they are applied.
type Flags struct {
	ConfigFile string

	lanes       int
	format      string
	filter      string
	attrs       []string
	traceID     string
	baseTime    string
	otlp        bool
	metricsFile string
	byteOrder   string
	logLevel    string
	verbose     bool
}

// BindFlags registers the converter flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigFile, "config", "", "YAML config file")
	fs.IntVar(&f.lanes, "lanes", DefaultLanes, "number of CPU lanes in the capture")
	fs.StringVarP(&f.format, "format", "f", "", "output format: chrome, text or sqlite (default from output extension)")
	fs.StringVar(&f.filter, "filter", "", "expression selecting the events to keep")
	fs.StringArrayVarP(&f.attrs, "attr", "a", nil, "extra event field as name=expression (repeatable)")
	fs.StringVarP(&f.traceID, "trace-id", "t", "", "trace id for OTLP export, hashed unless 32 hex chars")
	fs.StringVar(&f.baseTime, "base-time", "", "RFC3339 wall-clock time of log time zero")
	fs.BoolVar(&f.otlp, "otlp", false, "also export events as OpenTelemetry spans")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write run statistics in Prometheus text format")
	fs.StringVar(&f.byteOrder, "byte-order", ByteOrderLittle, "capture byte order: little or big")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "shorthand for --log-level debug")
	return f
}

// Apply copies every flag set on the command line onto c. Flags left at their
// default do not override values from the config file.
func (f *Flags) Apply(fs *pflag.FlagSet, c *Config) error {
	if fs.Changed("lanes") {
		c.Lanes = f.lanes
	}
	if fs.Changed("format") {
		c.Format = f.format
	}
	if fs.Changed("filter") {
		c.Filter = f.filter
	}
	if fs.Changed("trace-id") {
		c.TraceID = f.traceID
	}
	if fs.Changed("base-time") {
		c.BaseTime = f.baseTime
	}
	if fs.Changed("otlp") {
		c.OTLP = f.otlp
	}
	if fs.Changed("metrics-file") {
		c.MetricsFile = f.metricsFile
	}
	if fs.Changed("byte-order") {
		c.ByteOrderName = f.byteOrder
	}
	if fs.Changed("log-level") {
		c.LogLevel = f.logLevel
	}
	if fs.Changed("verbose") {
		c.Verbose = f.verbose
	}
	for _, raw := range f.attrs {
		attr, err := ParseCustomAttribute(raw)
		if err != nil {
			return fmt.Errorf("--attr: %w", err)
		}
		c.CustomAttributes = append(c.CustomAttributes, attr)
	}
	return nil
}

// Load builds the configuration for one run: defaults, then the config file
// named by --config, then the flags.
func (f *Flags) Load(fs *pflag.FlagSet, input, output string) (*Config, error) {
	c := Default()
	if f.ConfigFile != "" {
		if err := c.LoadFile(f.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := f.Apply(fs, c); err != nil {
		return nil, err
	}
	c.Input = input
	c.Output = output
	c.ResolveFormat()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
