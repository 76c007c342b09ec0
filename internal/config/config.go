// Package config loads godupes settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	MethodChecksum = "checksum"
	MethodCompare  = "compare"

	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"

	DefaultSSHPort    = 22
	DefaultSSHTimeout = 15
)

var (
	hashes  = []string{"md5", "sha256", "xxhash"}
	formats = []string{FormatJSON, FormatYAML, FormatText}
	levels  = []string{"debug", "info", "warn", "error"}
)

type ScanConfig struct {
	Exclude     []string `toml:"exclude"`
	SkipHidden  bool     `toml:"skip_hidden"`
	Concurrency int      `toml:"concurrency"`
	MinSize     int64    `toml:"min_size"`
}

type DetectConfig struct {
	Method  string `toml:"method"`
	Hash    string `toml:"hash"`
	PreHash bool   `toml:"prehash"`
	Workers int    `toml:"workers"`
}

type OutputConfig struct {
	Format string `toml:"format"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type SSHConfig struct {
	Port           int  `toml:"port"`
	Batch          bool `toml:"batch"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

type Config struct {
	Scan   ScanConfig   `toml:"scan"`
	Detect DetectConfig `toml:"detect"`
	Output OutputConfig `toml:"output"`
	Log    LogConfig    `toml:"log"`
	SSH    SSHConfig    `toml:"ssh"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Detect: DetectConfig{Method: MethodChecksum, Hash: "md5"},
		Output: OutputConfig{Format: FormatJSON},
		Log:    LogConfig{Level: "warn"},
		SSH:    SSHConfig{Port: DefaultSSHPort, TimeoutSeconds: DefaultSSHTimeout},
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config file '%s': %s", path, strict.String())
		}
		return nil, fmt.Errorf("failed to parse TOML in '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Detect.Method {
	case MethodChecksum, MethodCompare:
	default:
		return fmt.Errorf("detect.method must be %q or %q, got %q", MethodChecksum, MethodCompare, c.Detect.Method)
	}
	if !oneOf(strings.ToLower(c.Detect.Hash), hashes) {
		return fmt.Errorf("detect.hash must be one of %s, got %q", strings.Join(hashes, ", "), c.Detect.Hash)
	}
	if c.Detect.Workers < 0 {
		return errors.New("detect.workers must be >= 0")
	}
	if c.Scan.Concurrency < 0 {
		return errors.New("scan.concurrency must be >= 0")
	}
	if c.Scan.MinSize < 0 {
		return errors.New("scan.min_size must be >= 0")
	}
	if !oneOf(c.Output.Format, formats) {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(formats, ", "), c.Output.Format)
	}
	if !oneOf(strings.ToLower(c.Log.Level), levels) {
		return fmt.Errorf("log.level must be one of %s, got %q", strings.Join(levels, ", "), c.Log.Level)
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return errors.New("ssh.port must be between 1 and 65535")
	}
	if c.SSH.TimeoutSeconds < 1 {
		return errors.New("ssh.timeout_seconds must be >= 1")
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
