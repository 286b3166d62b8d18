// Package config loads socos configuration. Values are merged from the
// config file, then environment variables, then command-line flags, each
// layer overriding the one before it.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment variable names.
const (
	EnvSpeaker  = "SOCOS_SPEAKER"
	EnvTimeout  = "SOCOS_TIMEOUT"
	EnvPlain    = "SOCOS_PLAIN"
	EnvLogLevel = "SOCOS_LOG_LEVEL"
	EnvLogFile  = "SOCOS_LOG_FILE"
)

// Defaults.
const (
	DefaultDiscoverySeconds = 3
)

// Config holds the socos configuration.
type Config struct {
	// Speaker is the IP of a speaker to select at startup.
	Speaker string `toml:"speaker"`
	// DiscoverySeconds is how long `list` waits for SSDP responses.
	DiscoverySeconds int `toml:"discovery_seconds"`
	// Plain disables tables, colors and spinners even on a terminal.
	Plain bool `toml:"plain"`
	// LogLevel is debug, info, warn, error or none.
	LogLevel string `toml:"log_level"`
	// LogFile receives log output instead of stderr when set.
	LogFile string `toml:"log_file"`
}

// New returns an empty Config; call Validate to populate it.
func New() *Config {
	return &Config{}
}

// Dir returns the socos configuration directory.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve config dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "socos"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Validate merges the config file and environment into c (flags are
// bound directly by cobra and already set), then normalizes values.
// A missing config file is not an error.
func (c *Config) Validate() error {
	if err := c.loadFile(); err != nil {
		return err
	}
	c.applyEnv()

	if c.DiscoverySeconds <= 0 {
		c.DiscoverySeconds = DefaultDiscoverySeconds
	}
	return nil
}

// DiscoveryTimeout returns the discovery window as a duration.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoverySeconds) * time.Second
}

func (c *Config) loadFile() error {
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fileCfg Config
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	// The file only fills in what flags have not already set.
	if c.Speaker == "" {
		c.Speaker = fileCfg.Speaker
	}
	if c.DiscoverySeconds == 0 {
		c.DiscoverySeconds = fileCfg.DiscoverySeconds
	}
	if !c.Plain {
		c.Plain = fileCfg.Plain
	}
	if c.LogLevel == "" {
		c.LogLevel = fileCfg.LogLevel
	}
	if c.LogFile == "" {
		c.LogFile = fileCfg.LogFile
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSpeaker); v != "" {
		c.Speaker = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.DiscoverySeconds = secs
		}
	}
	if v := os.Getenv(EnvPlain); v != "" {
		if plain, err := strconv.ParseBool(v); err == nil {
			c.Plain = plain
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
}

// WriteSample writes the annotated sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
