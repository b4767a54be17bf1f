package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings, err := LoadSettings("FocusDeckTest")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestSaveAndLoadSettingsRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	custom := Settings{
		TickInterval:     500 * time.Millisecond,
		SnapThreshold:    20,
		GeometryDebounce: 100 * time.Millisecond,
	}
	require.NoError(t, SaveSettings("FocusDeckTest", custom))

	loaded, err := LoadSettings("FocusDeckTest")
	require.NoError(t, err)
	assert.Equal(t, custom, loaded)
}

func TestLoadSettingsIgnoresOutOfRangeValues(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "FocusDeckTest")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	raw := []byte("tick_interval_ms: 5\nsnap_threshold_px: 30\ngeometry_debounce_ms: -1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), raw, 0o644))

	settings, err := LoadSettings("FocusDeckTest")
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, settings.TickInterval, "sub-50ms tick intervals fall back")
	assert.Equal(t, 250*time.Millisecond, settings.GeometryDebounce, "negative debounce falls back")
	assert.Equal(t, 30, settings.SnapThreshold)
}

func TestLoadSettingsCorruptYaml(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "FocusDeckTest")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("{{{"), 0o644))

	settings, err := LoadSettings("FocusDeckTest")
	require.Error(t, err)
	assert.Equal(t, DefaultSettings(), settings, "a broken file still yields usable defaults")
}
