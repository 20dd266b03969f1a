package sitecount

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml"
	"go.uber.org/zap"
)

// DefaultLogPath is the shared log file, relative to the working directory
const DefaultLogPath = "instrumentation_info.txt"

// ErrInvalidConfig is wrapped by every configuration validation error
var ErrInvalidConfig = errors.New("invalid config")

// Unit names one instrumented unit and its number of sites
type Unit struct {
	Identifier string
	Sites      int
}

// Config defines the configuration of one instrumented run
type Config struct {
	// Shared append-only log
	LogPath string

	// Instrumented units, flushed in this order
	Units []Unit

	// Register installs finalize with the process termination mechanism.
	// A returned error aborts the run before any workload code executes.
	Register func(finalize func()) error

	// Optional remote write export of the final counts
	Export ExportConfig

	// Optional logger
	Logger *zap.Logger
}

// ExportConfig defines the Prometheus remote write target
type ExportConfig struct {
	RemoteWriteURL string
	Namespace      string
	Subsystem      string
	ServiceName    string
	CustomLabels   map[string]string
	Timeout        time.Duration

	// Value of the instance label. Defaults to the host name.
	InstanceIP string

	// DNS servers used to resolve the remote write host, e.g. ["1.1.1.1:53"].
	// The system resolver is always tried as well.
	DNSUDPServers []string
	DNSTimeout    time.Duration
}

// Enabled reports whether a remote write URL is configured
func (c ExportConfig) Enabled() bool {
	return c.RemoteWriteURL != ""
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		LogPath: DefaultLogPath,
		Export: ExportConfig{
			Namespace:    "bench",
			Subsystem:    "sites",
			ServiceName:  "benchmark",
			CustomLabels: make(map[string]string),
			Timeout:      15 * time.Second,
			DNSTimeout:   800 * time.Millisecond,
		},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("%w: log path cannot be empty", ErrInvalidConfig)
	}
	if len(c.Units) == 0 {
		return fmt.Errorf("%w: no instrumented units", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Units))
	for _, u := range c.Units {
		if u.Identifier == "" {
			return fmt.Errorf("%w: unit identifier cannot be empty", ErrInvalidConfig)
		}
		if strings.ContainsAny(u.Identifier, "\r\n") {
			return fmt.Errorf("%w: unit identifier %q contains a line break", ErrInvalidConfig, u.Identifier)
		}
		if u.Sites <= 0 {
			return fmt.Errorf("%w: unit %q must have at least one site", ErrInvalidConfig, u.Identifier)
		}
		if _, dup := seen[u.Identifier]; dup {
			return fmt.Errorf("%w: duplicate unit %q", ErrInvalidConfig, u.Identifier)
		}
		seen[u.Identifier] = struct{}{}
	}

	return nil
}

type fileUnit struct {
	Identifier string `toml:"identifier"`
	Sites      int    `toml:"sites"`
}

type fileExport struct {
	RemoteWriteURL string            `toml:"remote_write_url"`
	Namespace      string            `toml:"namespace"`
	Subsystem      string            `toml:"subsystem"`
	ServiceName    string            `toml:"service_name"`
	InstanceIP     string            `toml:"instance"`
	CustomLabels   map[string]string `toml:"custom_labels"`
	Timeout        string            `toml:"timeout"`
	DNSUDPServers  []string          `toml:"dns_udp_servers"`
	DNSTimeout     string            `toml:"dns_timeout"`
}

type configFile struct {
	LogPath string     `toml:"log_path"`
	Units   []fileUnit `toml:"unit"`
	Export  fileExport `toml:"export"`
}

// LoadConfigFile reads a TOML configuration on top of DefaultConfig.
// The result is not validated; callers may fill in Units first and
// NewSession validates.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML configuration data on top of DefaultConfig
func ParseConfig(data []byte) (Config, error) {
	var file configFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := DefaultConfig()
	if file.LogPath != "" {
		cfg.LogPath = file.LogPath
	}
	for _, u := range file.Units {
		cfg.Units = append(cfg.Units, Unit{Identifier: u.Identifier, Sites: u.Sites})
	}

	exp := &cfg.Export
	exp.RemoteWriteURL = file.Export.RemoteWriteURL
	exp.Namespace = pickString(file.Export.Namespace, exp.Namespace)
	exp.Subsystem = pickString(file.Export.Subsystem, exp.Subsystem)
	exp.ServiceName = pickString(file.Export.ServiceName, exp.ServiceName)
	exp.InstanceIP = file.Export.InstanceIP
	for k, v := range file.Export.CustomLabels {
		exp.CustomLabels[k] = v
	}
	exp.DNSUDPServers = append([]string(nil), file.Export.DNSUDPServers...)

	var err error
	if exp.Timeout, err = parseDuration(file.Export.Timeout, exp.Timeout); err != nil {
		return Config{}, fmt.Errorf("%w: export.timeout: %v", ErrInvalidConfig, err)
	}
	if exp.DNSTimeout, err = parseDuration(file.Export.DNSTimeout, exp.DNSTimeout); err != nil {
		return Config{}, fmt.Errorf("%w: export.dns_timeout: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return pickDuration(d, def), nil
}

func pickDuration(v time.Duration, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func pickString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
