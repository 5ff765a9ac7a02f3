// Package config loads and validates agentdeck.json project configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/agentdeck/agentdeck/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "agentdeck.json"

	// DefaultHost is the default interface session servers bind.
	DefaultHost = "127.0.0.1"

	// DefaultBasePort is the first port handed out to sessions.
	DefaultBasePort = 8100

	// DefaultSessionTTL is the default session lifetime.
	DefaultSessionTTL = "1h"

	// DefaultHeartbeat is the default gateway heartbeat interval.
	DefaultHeartbeat = "30s"
)

// Config represents the complete agentdeck.json configuration.
type Config struct {
	// Name is the project name, used as the gateway server name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Host is the interface session servers bind.
	Host string `json:"host,omitempty"`

	// BasePort is the first port handed out to sessions.
	BasePort int `json:"basePort,omitempty"`

	// Sessions contains session lifetime configuration.
	Sessions SessionsConfig `json:"sessions,omitempty"`

	// Resources contains style and script resolution configuration.
	Resources ResourcesConfig `json:"resources,omitempty"`

	// Schema contains dashboard schema configuration.
	Schema SchemaConfig `json:"schema,omitempty"`

	// Gateway contains reverse proxy registration configuration.
	Gateway GatewayConfig `json:"gateway,omitempty"`

	// Observability contains metrics and tracing switches.
	Observability ObservabilityConfig `json:"observability,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SessionsConfig contains session lifetime settings.
type SessionsConfig struct {
	// TTL is the initial session lifetime (e.g., "1h").
	TTL string `json:"ttl,omitempty"`

	// MaxTTL caps the total lifetime a session can reach through
	// extensions (e.g., "8h"). Empty falls back to 24h.
	MaxTTL string `json:"maxTtl,omitempty"`
}

// ResourcesConfig contains style and script resolution settings.
type ResourcesConfig struct {
	// StylesDir is the directory containing stylesheets.
	StylesDir string `json:"stylesDir,omitempty"`

	// ScriptsDir is the directory containing scripts.
	ScriptsDir string `json:"scriptsDir,omitempty"`

	// BaseStyle is the canonical stylesheet name.
	BaseStyle string `json:"baseStyle,omitempty"`

	// Bundle collapses script references into a single bundle endpoint.
	Bundle bool `json:"bundle,omitempty"`
}

// SchemaConfig contains dashboard schema settings.
type SchemaConfig struct {
	// File is the path to a JSON schema file. Empty uses the built-in
	// demo schema.
	File string `json:"file,omitempty"`
}

// GatewayConfig contains reverse proxy registration settings.
type GatewayConfig struct {
	// Enabled turns on proxy mode: sessions register with the gateway
	// and send heartbeats.
	Enabled bool `json:"enabled,omitempty"`

	// URL is the gateway base URL.
	URL string `json:"url,omitempty"`

	// Heartbeat is the heartbeat interval (e.g., "30s").
	Heartbeat string `json:"heartbeat,omitempty"`
}

// ObservabilityConfig contains metrics and tracing settings.
type ObservabilityConfig struct {
	// Metrics enables Prometheus request metrics.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing enables OpenTelemetry request spans.
	Tracing bool `json:"tracing,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name:     "agentdeck",
		Version:  "0.1.0",
		Host:     DefaultHost,
		BasePort: DefaultBasePort,
		Sessions: SessionsConfig{
			TTL: DefaultSessionTTL,
		},
		Resources: ResourcesConfig{
			StylesDir:  "assets/css",
			ScriptsDir: "assets/js",
			BaseStyle:  "base.css",
		},
		Gateway: GatewayConfig{
			Heartbeat: DefaultHeartbeat,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for agentdeck.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
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
	if c.Name == "" {
		c.Name = "agentdeck"
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.BasePort == 0 {
		c.BasePort = DefaultBasePort
	}
	if c.Sessions.TTL == "" {
		c.Sessions.TTL = DefaultSessionTTL
	}
	if c.Resources.StylesDir == "" {
		c.Resources.StylesDir = "assets/css"
	}
	if c.Resources.ScriptsDir == "" {
		c.Resources.ScriptsDir = "assets/js"
	}
	if c.Resources.BaseStyle == "" {
		c.Resources.BaseStyle = "base.css"
	}
	if c.Gateway.Heartbeat == "" {
		c.Gateway.Heartbeat = DefaultHeartbeat
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BasePort < 1 || c.BasePort > 65535 {
		return errors.New("E103").
			WithDetail("basePort must be between 1 and 65535")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if _, err := c.MaxSessionTTL(); err != nil {
		return err
	}
	if _, err := c.HeartbeatInterval(); err != nil {
		return err
	}
	if c.Gateway.Enabled && c.Gateway.URL == "" {
		return errors.New("E501")
	}
	return nil
}

// SessionTTL returns the parsed session lifetime.
func (c *Config) SessionTTL() (time.Duration, error) {
	return parseDuration(c.Sessions.TTL, "sessions.ttl")
}

// MaxSessionTTL returns the parsed lifetime cap, or zero when uncapped.
func (c *Config) MaxSessionTTL() (time.Duration, error) {
	if c.Sessions.MaxTTL == "" {
		return 0, nil
	}
	return parseDuration(c.Sessions.MaxTTL, "sessions.maxTtl")
}

// HeartbeatInterval returns the parsed gateway heartbeat interval.
func (c *Config) HeartbeatInterval() (time.Duration, error) {
	return parseDuration(c.Gateway.Heartbeat, "gateway.heartbeat")
}

// StylesPath returns the absolute path to the styles directory.
func (c *Config) StylesPath() string {
	return c.resolvePath(c.Resources.StylesDir)
}

// ScriptsPath returns the absolute path to the scripts directory.
func (c *Config) ScriptsPath() string {
	return c.resolvePath(c.Resources.ScriptsDir)
}

// SchemaPath returns the absolute path to the schema file, or "" when no
// file is configured.
func (c *Config) SchemaPath() string {
	if c.Schema.File == "" {
		return ""
	}
	return c.resolvePath(c.Schema.File)
}

func (c *Config) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func parseDuration(s, field string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.New("E104").
			WithDetail(field + " = " + s).
			Wrap(err)
	}
	if d <= 0 {
		return 0, errors.New("E103").
			WithDetail(field + " must be positive")
	}
	return d, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing agentdeck.json, or an error if not found.
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
			return "", errors.New("E101").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
