// Package config loads the exporter configuration from a YAML file and
// environment variables. Precedence: flags > environment > file > defaults.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file is looked up when no -config flag is given.
const DefaultPath = "/opt/docker-exporter/config.yml"

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "10s" or "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all exporter configuration. Keys are flat to stay compatible
// with existing config.yml files.
type Config struct {
	IP      string `yaml:"ip"`
	Port    int    `yaml:"port"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	DockerHost      string   `yaml:"docker_host"`
	DockerTLSVerify bool     `yaml:"docker_tls_verify"`
	DockerCertPath  string   `yaml:"docker_cert_path"`
	FetchTimeout    Duration `yaml:"fetch_timeout"`

	NetworkInterface string `yaml:"network_interface"`
	BlockDeviceMajor uint64 `yaml:"block_device_major"`
	PruneStaleLabels bool   `yaml:"prune_stale_labels"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		IP:               "localhost",
		Port:             9375,
		DockerHost:       "unix:///var/run/docker.sock",
		FetchTimeout:     Duration{10 * time.Second},
		NetworkInterface: "eth0",
		BlockDeviceMajor: 253,
		LogLevel:         "info",
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set".
type CLIOverrides struct {
	IP       string
	Port     int
	LogLevel string
}

// Apply copies the set flag values onto cfg.
func (o CLIOverrides) Apply(cfg *Config) {
	if o.IP != "" {
		cfg.IP = o.IP
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

func applyEnvOverrides(cfg *Config) error {
	if ip := os.Getenv("DOCKER_EXPORTER_IP"); ip != "" {
		cfg.IP = ip
	}
	if port := os.Getenv("DOCKER_EXPORTER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid DOCKER_EXPORTER_PORT %q: %w", port, err)
		}
		cfg.Port = p
	}
	if level := os.Getenv("DOCKER_EXPORTER_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		cfg.DockerHost = host
	}
	// same convention as the docker CLI: any non-empty value enables verification
	if os.Getenv("DOCKER_TLS_VERIFY") != "" {
		cfg.DockerTLSVerify = true
	}
	if certPath := os.Getenv("DOCKER_CERT_PATH"); certPath != "" {
		cfg.DockerCertPath = certPath
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether HTTPS should be served.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Validate checks that the configuration can be used to start the exporter.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got: %d)", c.Port)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.FetchTimeout.Duration <= 0 {
		return fmt.Errorf("fetch_timeout must be positive (got: %s)", c.FetchTimeout.Duration)
	}
	if c.NetworkInterface == "" {
		return fmt.Errorf("network_interface is required")
	}
	if c.DockerHost == "" {
		return fmt.Errorf("docker_host is required")
	}
	if c.DockerTLSVerify && c.DockerCertPath == "" {
		return fmt.Errorf("docker_cert_path is required when docker_tls_verify is set")
	}
	return nil
}
