package platform

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Autostart manages the per-user login entry so the timer is present from
// the first minute of a session. The running executable is the launch
// target.
type Autostart struct {
	appName  string
	execPath string
	log      hclog.Logger
}

// NewAutostart resolves the current executable as the login target.
func NewAutostart(appName string, log hclog.Logger) (*Autostart, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable for autostart: %w", err)
	}
	return &Autostart{appName: appName, execPath: execPath, log: log}, nil
}

// Enable registers the login entry.
func (auto *Autostart) Enable() error {
	if err := enableAutostart(auto.appName, auto.execPath); err != nil {
		return err
	}
	auto.log.Debug("login entry registered", "exec", auto.execPath)
	return nil
}

// Disable removes the login entry. Removing an absent entry is not an error.
func (auto *Autostart) Disable() error {
	if err := disableAutostart(auto.appName); err != nil {
		return err
	}
	auto.log.Debug("login entry removed")
	return nil
}

// Enabled reports whether a login entry is currently registered.
func (auto *Autostart) Enabled() bool {
	return autostartEnabled(auto.appName)
}

func autostartSlug(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		name = "focusdeck"
	}
	return strings.ReplaceAll(name, " ", "-")
}
