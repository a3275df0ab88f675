// tracelog-convert turns a firmware trace capture into a time-ordered trace.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrzor/tracelog-converter/internal/config"
	"github.com/mrzor/tracelog-converter/internal/converter"
	"github.com/mrzor/tracelog-converter/internal/metrics"
	"github.com/mrzor/tracelog-converter/internal/otel"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit statuses.
const (
	exitFailure = 1
	exitFault   = 2
)

// usageError is returned for a malformed command line.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func main() {
	cmd := newRootCommand()
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}

	var usage *usageError
	switch {
	case errors.As(err, &usage):
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", err)
		_ = cmd.Usage()
		os.Exit(exitFailure)
	case converter.IsFault(err):
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		os.Exit(exitFault)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracelog-convert <input-bin> <output-trace>",
		Short: "Convert a firmware trace capture into a time-ordered trace",
		Long: `tracelog-convert decodes the binary event log written by the firmware's
trace facility, merges the per-CPU records into one chronological stream and
writes it as a Chrome trace (.json), a text listing (.txt, .log) or a SQLite
archive (.db, .sqlite). With --otlp every event is also exported as an
OpenTelemetry span.

A corrupt capture is converted up to the first bad record; the command then
exits with status 2.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &usageError{err: fmt.Errorf("expected 2 arguments, got %d", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := config.BindFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Load(cmd.Flags(), args[0], args[1])
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	}
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Encoding = "console"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.Level = zap.NewAtomicLevelAt(lvl)
	return logConfig.Build()
}

// setupOTEL initializes the OTEL provider and returns a tracer and cleanup function.
func setupOTEL(ctx context.Context, logger *zap.Logger) (trace.Tracer, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, err
	}

	tp, err := otel.InitProvider(ctx, otelCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			logger.Warn("Error shutting down OTEL provider", zap.Error(err))
		}
	}

	return tp.Tracer("tracelog-convert"), cleanup, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg.Level())
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
	}()

	logger.Debug("Starting tracelog-convert",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("built", date))

	var tracer trace.Tracer
	if cfg.OTLP {
		var cleanupOTEL func()
		tracer, cleanupOTEL, err = setupOTEL(ctx, logger)
		if err != nil {
			return err
		}
		defer cleanupOTEL()
	}

	conv, err := converter.New(cfg, tracer, metrics.New(), logger)
	if err != nil {
		return err
	}

	res, err := conv.Run(ctx)
	switch {
	case err == nil:
	case converter.IsFault(err):
		logger.Warn("Conversion stopped at a corrupt record",
			zap.Uint64("last_timestamp", res.Summary.LastTimestamp),
			zap.Int("emitted", res.Summary.Emitted))
	default:
		logger.Error("Conversion failed",
			zap.Uint64("last_timestamp", res.Summary.LastTimestamp),
			zap.Bool("output_written", res.Output),
			zap.Error(err))
	}
	return err
}
