package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFileLogger_WritesComponentPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.log")
	logger, err := New(Options{Level: "debug", OutputFile: path, Colors: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.ComponentInfo(ComponentRelay, "peer joined")
	logger.ComponentDebug(ComponentSession, "saved")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"[RELAY] peer joined", "[SESSION] saved"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("file output should not contain color codes:\n%s", out)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.log")
	logger, err := New(Options{Level: "info", OutputFile: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.ComponentDebug(ComponentClient, "hidden")
	logger.For(ComponentClient).Info("shown")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(string(data), "shown") || !strings.Contains(string(data), "CLIENT") {
		t.Errorf("expected tagged info line, got:\n%s", data)
	}
}

func TestStandardLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.log")
	logger, err := New(Options{Level: "debug", OutputFile: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	std := StandardFor(logger, ComponentRelay)
	std.Printf("GET /health %d\n", 200)
	std.Print("POST /send ", 400)
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	for _, want := range []string{"[RELAY] GET /health 200", "[RELAY] POST /send 400"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %q:\n%s", want, data)
		}
	}
}
