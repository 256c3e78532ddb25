package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/salesagg/internal/config"
)

const salesCSV = `id,date,category,product,region,quantity,unitPrice
T001,2024-01-15,Electronics,Laptop,North,2,999.99
T002,2024-01-20,Clothing,Jacket,South,5,79.99
T003,2024-02-10,Electronics,Phone,North,3,599.99
T004,2024-02-15,Books,Novel,East,10,14.99
T005,2024-03-01,Clothing,Shoes,West,4,119.99
`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_OneShot(t *testing.T) {
	code, out, _ := runCLI(t, "-file", writeInput(t, salesCSV))
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "One-shot analytics")
	require.Contains(t, out, "Total revenue: 4829.76")
	require.Contains(t, out, "Top by quantity: Novel (10 units)")
	require.Contains(t, out, "Highest value order: T001")
	require.Contains(t, out, "High value: 2")
}

func TestRun_Chunked(t *testing.T) {
	code, out, _ := runCLI(t, "-file", writeInput(t, salesCSV), "-mode", "chunked", "-batch-size", "2")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "Chunked analytics")
	require.Contains(t, out, "Total revenue: 4829.76")
	require.Contains(t, out, "SUCCESS")
}

func TestRun_Compare(t *testing.T) {
	input := writeInput(t, salesCSV)

	t.Run("match", func(t *testing.T) {
		code, out, _ := runCLI(t, "-file", input, "-mode", "compare", "-batch-size", "3")
		require.Equal(t, exitOK, code)
		require.Contains(t, out, "results match")
	})

	t.Run("dropped chunk", func(t *testing.T) {
		code, out, _ := runCLI(t, "-file", input, "-mode", "compare", "-batch-size", "2", "-fail-chunks", "2", "-max-retries", "1")
		require.Equal(t, exitFailure, code)
		require.Contains(t, out, "PARTIAL_FAILURE")
		require.Contains(t, out, "TotalRevenue: want 4829.76")
	})
}

func TestRun_MetricsFile(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "salesagg.prom")

	code, _, _ := runCLI(t,
		"-file", writeInput(t, salesCSV),
		"-mode", "chunked",
		"-batch-size", "2",
		"-fail-chunks", "1",
		"-metrics-out", metricsPath,
	)
	require.Equal(t, exitOK, code)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `salesagg_chunks_total{outcome="dropped"} 1`)
	require.Contains(t, string(data), `salesagg_runs_total{status="PARTIAL_FAILURE"} 1`)
}

func TestRun_MetricsFileUnwritable(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "missing", "salesagg.prom")

	code, out, stderr := runCLI(t,
		"-file", writeInput(t, salesCSV),
		"-mode", "chunked",
		"-metrics-out", metricsPath,
	)
	require.Equal(t, exitFailure, code)
	require.Contains(t, out, "SUCCESS")
	require.Contains(t, stderr, "write metrics file")
	require.NoFileExists(t, metricsPath)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	require.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("hello")
	require.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"}, &buf)
	require.ErrorContains(t, err, "log level")
}

func TestRun_ConfigFile(t *testing.T) {
	input := writeInput(t, salesCSV)
	cfgPath := filepath.Join(t.TempDir(), "salesagg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: chunked\ninput: "+input+"\nbatch_size: 4\n"), 0o600))

	code, out, _ := runCLI(t, "-config", cfgPath)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "Chunked analytics")

	// Flags win over the file.
	code, out, _ = runCLI(t, "-config", cfgPath, "-mode", "oneshot")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "One-shot analytics")
}

func TestRun_Errors(t *testing.T) {
	input := writeInput(t, salesCSV)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file flag", nil, exitUsage},
		{"bad mode", []string{"-file", input, "-mode", "stream"}, exitUsage},
		{"bad batch size", []string{"-file", input, "-batch-size", "0"}, exitUsage},
		{"bad fail chunks", []string{"-file", input, "-fail-chunks", "x"}, exitUsage},
		{"unknown flag", []string{"-nope"}, exitUsage},
		{"input does not exist", []string{"-file", filepath.Join(t.TempDir(), "missing.csv")}, exitFailure},
		{"malformed line", []string{"-file", writeInput(t, salesCSV+"bad,line\n")}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			require.Equal(t, tt.code, code)
		})
	}

	t.Run("malformed line skipped", func(t *testing.T) {
		code, _, _ := runCLI(t, "-file", writeInput(t, salesCSV+"bad,line\n"), "-on-parse-error", "skip")
		require.Equal(t, exitOK, code)
	})
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI(t, "-h")
	require.Equal(t, exitOK, code)
	require.Contains(t, stderr, "Usage:")
}

func TestParseIntList(t *testing.T) {
	ids, err := parseIntList("2, 5,,7")
	require.NoError(t, err)
	require.Equal(t, []int{2, 5, 7}, ids)

	_, err = parseIntList("2,x")
	require.Error(t, err)
}
