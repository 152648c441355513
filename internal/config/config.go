// Package config loads the run configuration for ktgen.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (KTGEN_PROCESSES, KTGEN_LOG__LEVEL, ...)
//  2. YAML config file (<run-dir>/ktgen.yaml)
//  3. Defaults
//
// Environment variables drop the KTGEN_ prefix, are lowercased, and use a
// double underscore between section and field:
//
//	KTGEN_ANALYSIS_SETTINGS -> analysis_settings
//	KTGEN_LOG__FORMAT       -> log.format
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"ktgen/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KTGEN_"

const maxConfigFileSize = 1024 * 1024

// Config is the run configuration.
type Config struct {
	// AnalysisSettings is the settings document, relative to the run directory.
	AnalysisSettings string `koanf:"analysis_settings"`
	// Processes is the number of parallel event streams.
	Processes int `koanf:"processes"`
	// Script is where the generated script is written, relative to the run directory.
	Script string `koanf:"script"`
	// Strict turns settings lint warnings into errors.
	Strict bool `koanf:"strict"`
	// Manifest writes <script>.manifest.yaml next to the script.
	Manifest bool `koanf:"manifest"`

	Log logging.Config `koanf:"log"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		AnalysisSettings: "analysis_settings.json",
		Processes:        runtime.NumCPU(),
		Script:           "run_ktools.sh",
		Manifest:         true,
		Log:              *logging.NewDefaultConfig(),
	}
}

// Load reads the YAML file at path, if it exists, then applies environment
// overrides on top of Defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unset keys keep their default.
	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps KTGEN_LOG__LEVEL to log.level.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// readConfigFile returns nil content when path does not exist.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config file %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks the configuration for values generation cannot use.
func (c *Config) Validate() error {
	if c.Processes < 1 {
		return fmt.Errorf("processes must be at least 1, got %d", c.Processes)
	}
	if strings.TrimSpace(c.AnalysisSettings) == "" {
		return errors.New("analysis_settings path is required")
	}
	if strings.TrimSpace(c.Script) == "" {
		return errors.New("script path is required")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
