//go:build darwin

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

	dir, err := launchAgentsDir()
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("enable autostart: create LaunchAgents dir: %w", err)
	}

	label := launchAgentLabel(appName)
	content := buildLaunchAgentPlist(label, execPath)
	if err := os.WriteFile(filepath.Join(dir, label+".plist"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write plist: %w", err)
	}
	return nil
}

func disableAutostart(appName string) error {
	dir, err := launchAgentsDir()
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	path := filepath.Join(dir, launchAgentLabel(appName)+".plist")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disable autostart: remove plist: %w", err)
	}
	return nil
}

func autostartEnabled(appName string) bool {
	dir, err := launchAgentsDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, launchAgentLabel(appName)+".plist"))
	return err == nil
}

func launchAgentsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "Library", "LaunchAgents"), nil
}

func launchAgentLabel(appName string) string {
	return "com.focusdeck." + autostartSlug(appName)
}

func buildLaunchAgentPlist(label, execPath string) string {
	escape := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`,
		escape.Replace(label),
		escape.Replace(execPath),
	)
}
