//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func enableAutostart(appName, execPath string) error {
	if appName == "" || execPath == "" {
		return fmt.Errorf("enable autostart: app name and exec path are required")
	}

	dir, err := autostartDir()
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("enable autostart: create autostart dir: %w", err)
	}

	entry := buildDesktopEntry(appName, execPath)
	path := filepath.Join(dir, desktopFileName(appName))
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write desktop entry: %w", err)
	}
	return nil
}

func disableAutostart(appName string) error {
	dir, err := autostartDir()
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	path := filepath.Join(dir, desktopFileName(appName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disable autostart: remove desktop entry: %w", err)
	}
	return nil
}

func autostartEnabled(appName string) bool {
	dir, err := autostartDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, desktopFileName(appName)))
	return err == nil
}

func autostartDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart"), nil
}

func desktopFileName(appName string) string {
	return autostartSlug(appName) + ".desktop"
}

func buildDesktopEntry(appName, execPath string) string {
	execLine := execPath
	if strings.Contains(execLine, " ") && !strings.HasPrefix(execLine, `"`) {
		execLine = `"` + execLine + `"`
	}
	return fmt.Sprintf(
		`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`,
		appName,
		execLine,
	)
}
