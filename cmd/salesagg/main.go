package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bjaus/salesagg"
	"github.com/bjaus/salesagg/internal/config"
	"github.com/bjaus/salesagg/internal/metrics"
)

// ============================================================================
// salesagg CLI: sales analytics, one-shot or chunked
// ============================================================================

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errMismatch is returned by compare mode when the two passes disagree.
var errMismatch = errors.New("one-shot and chunked results differ")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	a := &app{cfg: cfg, log: logger, out: stdout}
	if cfg.Trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			fmt.Fprintf(stderr, "Error: trace exporter: %v\n", err)
			return exitFailure
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("shut down tracer provider", "error", err)
			}
		}()
		a.tracer = tp
	}
	if cfg.MetricsFile != "" {
		a.registry = prometheus.NewRegistry()
		if a.collector, err = metrics.NewCollector(a.registry); err != nil {
			fmt.Fprintf(stderr, "Error: metrics: %v\n", err)
			return exitFailure
		}
	}

	switch cfg.Mode {
	case config.ModeOneShot:
		err = a.oneShot(ctx)
	case config.ModeChunked:
		err = a.chunked(ctx)
	case config.ModeCompare:
		err = a.compare(ctx)
	}

	if a.registry != nil {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, a.registry); werr != nil {
			logger.Error("write metrics file", "path", cfg.MetricsFile, "error", werr)
			if err == nil {
				err = fmt.Errorf("write metrics file: %w", werr)
			}
		}
	}

	switch {
	case errors.Is(err, errMismatch):
		return exitFailure
	case err != nil:
		logger.Error("salesagg failed", "mode", cfg.Mode, "error", err)
		return exitFailure
	}
	return exitOK
}

// loadConfig parses flags, loads the file named by -config and the
// environment, then lets explicitly set flags win.
func loadConfig(args []string, stderr io.Writer) (config.Config, error) {
	def := config.Default()

	fs := flag.NewFlagSet("salesagg", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a YAML config file")
	file := fs.String("file", "", "Path to the sales CSV file (required)")
	mode := fs.String("mode", def.Mode, "Execution mode: oneshot, chunked, compare")
	batchSize := fs.Int("batch-size", def.BatchSize, "Records per chunk in chunked mode")
	maxRetries := fs.Int("max-retries", def.MaxRetries, "Attempts per chunk before it is dropped")
	policy := fs.String("on-parse-error", def.OnParseError, "Malformed line policy: fail, skip")
	top := fs.Int("top", def.TopN, "Number of products in the revenue ranking")
	threshold := fs.Float64("threshold", def.Threshold, "Order value threshold for the high/low split")
	failChunks := fs.String("fail-chunks", "", "Comma-separated chunk numbers to fail on purpose, e.g. 2,5")
	metricsOut := fs.String("metrics-out", "", "Write Prometheus metrics to this file")
	trace := fs.Bool("trace", false, "Print OpenTelemetry spans to stderr")
	logLevel := fs.String("log-level", def.Log.Level, "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", def.Log.Format, "Log format: text, json")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `salesagg: sales transaction analytics

Usage:
  salesagg -file sales.csv
  salesagg -file sales.csv -mode chunked -batch-size 500
  salesagg -file sales.csv -mode compare -fail-chunks 2
  salesagg -config salesagg.yaml

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Environment:
  Every setting can also be given as %s_<NAME>, e.g. %s_BATCH_SIZE.
  Precedence: flags > environment > config file > defaults.
`, config.EnvPrefix, config.EnvPrefix)
	}

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}

	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.Input = *file
		case "mode":
			cfg.Mode = *mode
		case "batch-size":
			cfg.BatchSize = *batchSize
		case "max-retries":
			cfg.MaxRetries = *maxRetries
		case "on-parse-error":
			cfg.OnParseError = *policy
		case "top":
			cfg.TopN = *top
		case "threshold":
			cfg.Threshold = *threshold
		case "fail-chunks":
			ids, err := parseIntList(*failChunks)
			if err != nil {
				visitErr = fmt.Errorf("-fail-chunks: %w", err)
			}
			cfg.FailChunks = ids
		case "metrics-out":
			cfg.MetricsFile = *metricsOut
		case "trace":
			cfg.Trace = *trace
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	if visitErr != nil {
		return config.Config{}, visitErr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// app holds what every mode shares.
type app struct {
	cfg       config.Config
	log       *slog.Logger
	out       io.Writer
	tracer    *sdktrace.TracerProvider
	registry  *prometheus.Registry
	collector *metrics.Collector
}

func (a *app) pipeline() *salesagg.Pipeline {
	// Validate has already restricted the policy to known values.
	policy, _ := salesagg.ParseParsePolicy(a.cfg.OnParseError)

	p := salesagg.New().
		WithBatchSize(a.cfg.BatchSize).
		WithMaxRetries(a.cfg.MaxRetries).
		WithParsePolicy(policy).
		WithLogger(a.log)
	if len(a.cfg.FailChunks) > 0 {
		p = p.WithBatchProcessor(salesagg.FailChunks(a.cfg.FailChunks...))
	}
	if a.tracer != nil {
		p = p.WithTracerProvider(a.tracer)
	}
	if a.collector != nil {
		p = p.WithHooks(a.collector)
	}
	return p
}

func (a *app) collect(ctx context.Context) (*salesagg.Analyzer, error) {
	f, err := os.Open(a.cfg.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	an, _, err := a.pipeline().Collect(ctx, salesagg.ReadLines(f))
	return an, err
}

func (a *app) runChunked(ctx context.Context) (*salesagg.RunSummary, error) {
	f, err := os.Open(a.cfg.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return a.pipeline().Run(ctx, salesagg.ReadLines(f))
}

func (a *app) oneShot(ctx context.Context) error {
	an, err := a.collect(ctx)
	if err != nil {
		return err
	}
	r := newReport(a.out)
	r.metrics("One-shot analytics", an, a.cfg.TopN)
	r.partition(an, a.cfg.Threshold)
	return r.err
}

func (a *app) chunked(ctx context.Context) error {
	summary, err := a.runChunked(ctx)
	if err != nil {
		return err
	}
	r := newReport(a.out)
	r.metrics("Chunked analytics", summary.State, a.cfg.TopN)
	r.summary(summary)
	return r.err
}

// compare runs both passes over independent readers at once and reports any
// disagreement. Dropped chunks make a mismatch expected, so the summary is
// printed alongside the differences.
func (a *app) compare(ctx context.Context) error {
	var (
		an      *salesagg.Analyzer
		summary *salesagg.RunSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		an, err = a.collect(gctx)
		if err != nil {
			return fmt.Errorf("one-shot: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = a.runChunked(gctx)
		if err != nil {
			return fmt.Errorf("chunked: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	diffs := salesagg.Diff(an, summary.State, 0.01)

	r := newReport(a.out)
	r.summary(summary)
	r.differences(diffs)
	if r.err != nil {
		return r.err
	}
	if len(diffs) > 0 {
		a.log.Warn("results differ", "differences", len(diffs), "status", summary.Status)
		return errMismatch
	}
	a.log.Info("results match", "records", summary.Records)
	return nil
}
