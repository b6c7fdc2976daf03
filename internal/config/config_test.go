package config

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/patchwork/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Serve.Port != DefaultPort {
		t.Errorf("Serve.Port = %d, want %d", cfg.Serve.Port, DefaultPort)
	}
	if cfg.ServeAddress() != "localhost:8080" {
		t.Errorf("ServeAddress() = %q", cfg.ServeAddress())
	}
	if cfg.PingInterval() != 30*time.Second {
		t.Errorf("PingInterval() = %v", cfg.PingInterval())
	}
	if cfg.Render.Indent != "  " {
		t.Errorf("Render.Indent = %q", cfg.Render.Indent)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var perr *errors.Error
	if !stderrors.As(err, &perr) || perr.Code != "C001" {
		t.Fatalf("missing config error = %v, want C001", err)
	}

	configJSON := `{
  "render": {"pretty": true},
  "serve": {
    "host": "0.0.0.0",
    "port": 9000,
    "pingInterval": "5s",
    "metrics": true
  },
  "snapshot": {"bucket": "pages", "prefix": "site/"},
  "log": {"level": "debug", "format": "json"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.ServeAddress() != "0.0.0.0:9000" {
		t.Errorf("ServeAddress() = %q", cfg.ServeAddress())
	}
	if cfg.PingInterval() != 5*time.Second {
		t.Errorf("PingInterval() = %v", cfg.PingInterval())
	}
	if !cfg.Render.Pretty || cfg.Render.Indent != "  " {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if !cfg.Serve.Metrics || cfg.Serve.MetricsPath != DefaultMetricsPath {
		t.Errorf("Serve metrics = %v %q", cfg.Serve.Metrics, cfg.Serve.MetricsPath)
	}
	if cfg.Snapshot.Bucket != "pages" || cfg.Snapshot.Prefix != "site/" {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", level)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		code   string
		detail string
	}{
		{"syntax", `{"serve": `, "C001", "Failed to parse"},
		{"port", `{"serve": {"port": 70000}}`, "C002", "serve.port"},
		{"ping interval", `{"serve": {"pingInterval": "soon"}}`, "C002", "serve.pingInterval"},
		{"negative poll", `{"serve": {"pollInterval": "-1s"}}`, "C002", "serve.pollInterval"},
		{"metrics path", `{"serve": {"metricsPath": "metrics"}}`, "C002", "serve.metricsPath"},
		{"log level", `{"log": {"level": "loud"}}`, "C002", "log.level"},
		{"log format", `{"log": {"format": "xml"}}`, "C002", "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.json), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			var perr *errors.Error
			if !stderrors.As(err, &perr) {
				t.Fatalf("error = %v, want *errors.Error", err)
			}
			if perr.Code != tt.code || !strings.Contains(perr.Detail, tt.detail) {
				t.Errorf("got %s %q, want %s containing %q", perr.Code, perr.Detail, tt.code, tt.detail)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.Serve.Port = 4000
	cfg.Snapshot.Bucket = "b"

	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Fatal("Exists() = false after SaveTo")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Serve.Port != 4000 || loaded.Snapshot.Bucket != "b" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := FindProjectRoot(nested); err == nil {
		t.Error("expected error without a config file")
	}

	if err := New().SaveTo(filepath.Join(root, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("FindProjectRoot() = %q, want %q", got, root)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record passed a warn-level logger")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %q", out)
	}
}
