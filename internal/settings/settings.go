// Package settings loads symbind configuration from .symbind/settings.yaml.
//
// The toolchain repository location is deliberately not a setting; it
// comes from the ANDROID_NDK_REPOSITORY environment variable.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"symbind/internal/logger"
)

// Settings holds symbind configuration.
type Settings struct {
	Log   Log   `yaml:"log"`
	Probe Probe `yaml:"probe"`
}

// Log controls diagnostic logging on stderr.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Probe configures the file-type utility used to identify binaries.
type Probe struct {
	Command string `yaml:"command"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Log:   Log{Level: "warn", Format: "text"},
		Probe: Probe{Command: "file"},
	}
}

// Path returns the settings file location relative to root.
func Path(root string) string {
	return filepath.Join(root, ".symbind", "settings.yaml")
}

// Load reads .symbind/settings.yaml relative to root. A missing file yields
// Default(); fields left blank in the file take their default values.
func Load(root string) (*Settings, error) {
	s := Default()
	path := Path(root)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if file.Log.Level != "" {
		s.Log.Level = file.Log.Level
	}
	if file.Log.Format != "" {
		s.Log.Format = file.Log.Format
	}
	if file.Probe.Command != "" {
		s.Probe.Command = file.Probe.Command
	}
	if _, err := s.LoggerConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Save writes s to root/.symbind/settings.yaml. Errors if the file exists.
func Save(root string, s Settings) error {
	path := Path(root)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("settings file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// LoggerConfig converts the log settings into a logger configuration
// writing to stderr.
func (s *Settings) LoggerConfig() (logger.Config, error) {
	cfg := logger.DefaultConfig()
	lvl, err := logger.ParseLevel(s.Log.Level)
	if err != nil {
		return cfg, err
	}
	format, err := logger.ParseFormat(s.Log.Format)
	if err != nil {
		return cfg, err
	}
	cfg.Level = lvl
	cfg.Format = format
	return cfg, nil
}
