package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/patchwork/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "patchwork.json"

	// DefaultPort is the default live server port.
	DefaultPort = 8080

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultPingInterval is the default live client ping interval.
	DefaultPingInterval = "30s"

	// DefaultSendBuffer is the default per-client send queue length.
	DefaultSendBuffer = 256

	// DefaultMetricsPath is where the live server exposes metrics.
	DefaultMetricsPath = "/metrics"
)

// Config represents the complete patchwork.json configuration.
type Config struct {
	// Render controls HTML output of the render and diff commands.
	Render RenderConfig `json:"render,omitempty"`

	// Serve contains live server configuration.
	Serve ServeConfig `json:"serve,omitempty"`

	// Snapshot contains S3 snapshot upload configuration.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RenderConfig controls HTML serialization.
type RenderConfig struct {
	// Pretty indents the output one node per line.
	Pretty bool `json:"pretty,omitempty"`

	// Indent is the indentation unit for pretty output (default two spaces).
	Indent string `json:"indent,omitempty"`
}

// ServeConfig contains live server settings.
type ServeConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// PingInterval is how often clients are pinged (e.g. "30s").
	PingInterval string `json:"pingInterval,omitempty"`

	// SendBuffer is the per-client send queue length.
	SendBuffer int `json:"sendBuffer,omitempty"`

	// Metrics exposes Prometheus metrics at MetricsPath.
	Metrics bool `json:"metrics,omitempty"`

	// MetricsPath is the metrics endpoint path.
	MetricsPath string `json:"metricsPath,omitempty"`

	// Watch re-renders when the tree file changes, checked every
	// PollInterval (e.g. "500ms").
	Watch bool `json:"watch,omitempty"`

	// PollInterval is how often a watched tree file is checked.
	PollInterval string `json:"pollInterval,omitempty"`
}

// SnapshotConfig contains S3 upload settings.
type SnapshotConfig struct {
	// Bucket is the destination bucket. Uploads are disabled when empty.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region. The SDK default chain applies when empty.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for patchwork.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without one to use defaults")
		}
		return nil, errors.New("C001").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C001").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C001").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Render.Indent == "" {
		c.Render.Indent = "  "
	}

	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.PingInterval == "" {
		c.Serve.PingInterval = DefaultPingInterval
	}
	if c.Serve.SendBuffer == 0 {
		c.Serve.SendBuffer = DefaultSendBuffer
	}
	if c.Serve.MetricsPath == "" {
		c.Serve.MetricsPath = DefaultMetricsPath
	}
	if c.Serve.PollInterval == "" {
		c.Serve.PollInterval = "500ms"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return invalid("serve.port", "Port must be between 0 and 65535")
	}
	if c.Serve.SendBuffer < 0 {
		return invalid("serve.sendBuffer", "Send buffer must not be negative")
	}
	durations := []struct{ field, value string }{
		{"serve.pingInterval", c.Serve.PingInterval},
		{"serve.pollInterval", c.Serve.PollInterval},
	}
	for _, d := range durations {
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return invalid(d.field, "Expected a positive duration like \"30s\", got "+strconv.Quote(d.value))
		}
	}
	if !strings.HasPrefix(c.Serve.MetricsPath, "/") {
		return invalid("serve.metricsPath", "Metrics path must start with /")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", "Log format must be \"text\" or \"json\"")
	}
	return nil
}

func invalid(field, detail string) *errors.Error {
	return errors.New("C002").
		WithDetail(field + ": " + detail)
}

// ServeAddress returns the host:port address of the live server.
func (c *Config) ServeAddress() string {
	return net.JoinHostPort(c.Serve.Host, strconv.Itoa(c.Serve.Port))
}

// PingInterval returns the parsed serve.pingInterval.
func (c *Config) PingInterval() time.Duration {
	d, _ := time.ParseDuration(c.Serve.PingInterval)
	return d
}

// PollInterval returns the parsed serve.pollInterval.
func (c *Config) PollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Serve.PollInterval)
	return d
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, invalid("log.level", "Unknown level "+strconv.Quote(c.Log.Level))
	}
	return level, nil
}

// NewLogger builds the logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding
// patchwork.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the working directory or
// its nearest parent that has one. Without any file it returns the
// defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}
