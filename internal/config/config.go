// Package config loads and saves user-editable application settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// Settings defines editable runtime options.
type Settings struct {
	TickInterval     time.Duration
	SnapThreshold    int
	GeometryDebounce time.Duration
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		TickInterval:     200 * time.Millisecond,
		SnapThreshold:    12,
		GeometryDebounce: 250 * time.Millisecond,
	}
}

type yamlSettings struct {
	TickIntervalMS     int `yaml:"tick_interval_ms"`
	SnapThresholdPX    int `yaml:"snap_threshold_px"`
	GeometryDebounceMS int `yaml:"geometry_debounce_ms"`
}

// LoadSettings reads settings from YAML under the user config dir.
// A missing file returns defaults.
func LoadSettings(appName string) (Settings, error) {
	settings := DefaultSettings()
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return settings, err
	}

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes settings to YAML under the user config dir.
func SaveSettings(appName string, settings Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		TickIntervalMS:     int(settings.TickInterval / time.Millisecond),
		SnapThresholdPX:    settings.SnapThreshold,
		GeometryDebounceMS: int(settings.GeometryDebounce / time.Millisecond),
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// StorageDir resolves the directory the key-value store lives in.
func StorageDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, "state"), nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *Settings, fileData yamlSettings) {
	if fileData.TickIntervalMS >= 50 {
		settings.TickInterval = time.Duration(fileData.TickIntervalMS) * time.Millisecond
	}
	if fileData.SnapThresholdPX > 0 {
		settings.SnapThreshold = fileData.SnapThresholdPX
	}
	if fileData.GeometryDebounceMS > 0 {
		settings.GeometryDebounce = time.Duration(fileData.GeometryDebounceMS) * time.Millisecond
	}
}
