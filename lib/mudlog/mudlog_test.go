// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package mudlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "empty means info", input: "", want: slog.LevelInfo},
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "mixed case", input: "WaRnInG", want: slog.LevelWarn},
		{name: "warn alias", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "critical", input: "critical", want: LevelCritical},
		{name: "whitespace", input: "  info  ", want: slog.LevelInfo},
		{name: "unknown", input: "loud", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(test.input)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q) = %v, want error", test.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q): %v", test.input, err)
			}
			if got != test.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", test.input, got, test.want)
			}
		})
	}
}

func TestConsoleRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("the server is starting", "port", 4000)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("console output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "the server is starting" {
		t.Errorf("msg = %v, want %q", record["msg"], "the server is starting")
	}
	if record["port"] != float64(4000) {
		t.Errorf("port = %v, want 4000", record["port"])
	}
}

func TestCriticalLabel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Critical("the sky is falling")

	if !strings.Contains(buf.String(), `"level":"CRITICAL"`) {
		t.Errorf("critical record not labelled CRITICAL: %s", buf.String())
	}
}

func TestLevelThreshold(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: "warning", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Debug("dropped")
	logger.Info("also dropped")
	logger.Warning("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("records below the threshold were emitted: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warning record missing: %s", out)
	}
}

func TestExceptionAttachesError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Exception("module load blew up", errors.New("undefined symbol"), "module", "combat")

	out := buf.String()
	if !strings.Contains(out, "undefined symbol") {
		t.Errorf("error value missing from record: %s", out)
	}
	if !strings.Contains(out, `"module":"combat"`) {
		t.Errorf("extra attributes missing from record: %s", out)
	}
}

func TestFileSinkFlushedOnShutdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Options{Console: &bytes.Buffer{}, Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("written before shutdown")
	logger.Shutdown()
	logger.Shutdown() // idempotent

	data, err := os.ReadFile(filepath.Join(dir, "driftwood.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written before shutdown") {
		t.Errorf("file sink missing record after Shutdown: %s", data)
	}
}
