package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 25565
	DefaultUsername        = "mcprobe"
	DefaultProtocolVersion = 763
)

type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Client  ClientConfig  `yaml:"client" toml:"client"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

type ClientConfig struct {
	Username        string `yaml:"username" toml:"username"`
	ProtocolVersion int32  `yaml:"protocol_version" toml:"protocol_version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

type OutputConfig struct {
	Color string `yaml:"color" toml:"color"` // auto, always, never
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Client: ClientConfig{
			Username:        DefaultUsername,
			ProtocolVersion: DefaultProtocolVersion,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// Load reads path on top of Default. Files ending in .toml are decoded as
// TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays MCPROBE_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MCPROBE_HOST"); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup("MCPROBE_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MCPROBE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("MCPROBE_USERNAME"); ok && v != "" {
		c.Client.Username = v
	}
	if v, ok := lookup("MCPROBE_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	switch c.Output.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("output.color %q must be auto, always or never", c.Output.Color)
	}
	return nil
}

// Addr is the host:port to dial.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
