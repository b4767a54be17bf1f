//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func enableAutostart(appName, execPath string) error {
	if appName == "" || execPath == "" {
		return fmt.Errorf("enable autostart: app name and exec path are required")
	}

	quoted := fmt.Sprintf(`"%s"`, strings.Trim(execPath, `"`))
	command := exec.Command("reg", "add", registryRunKey, "/v", appName, "/t", "REG_SZ", "/d", quoted, "/f")
	output, err := command.CombinedOutput()
	if err != nil {
		return fmt.Errorf("enable autostart: reg add failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func disableAutostart(appName string) error {
	command := exec.Command("reg", "delete", registryRunKey, "/v", appName, "/f")
	output, err := command.CombinedOutput()
	if err != nil {
		// reg delete fails when the value is absent; that is the desired
		// end state.
		if strings.Contains(string(output), "unable to find") {
			return nil
		}
		return fmt.Errorf("disable autostart: reg delete failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func autostartEnabled(appName string) bool {
	command := exec.Command("reg", "query", registryRunKey, "/v", appName)
	return command.Run() == nil
}
