//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutostartRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	auto, err := NewAutostart("FocusDeck Test", nil)
	require.NoError(t, err)
	assert.False(t, auto.Enabled())

	require.NoError(t, auto.Enable())
	assert.True(t, auto.Enabled())

	configDir, err := os.UserConfigDir()
	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(configDir, "autostart", "focusdeck-test.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Name=FocusDeck Test")
	assert.Contains(t, string(raw), "Exec=")

	require.NoError(t, auto.Disable())
	assert.False(t, auto.Enabled())
}

func TestAutostartDisableWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	auto, err := NewAutostart("FocusDeck Test", nil)
	require.NoError(t, err)
	assert.NoError(t, auto.Disable(), "removing an absent entry is not an error")
}
