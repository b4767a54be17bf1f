// Package tray renders the system tray menu and keeps its labels in sync
// with the published runtime snapshot.
package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"focusdeck/internal/core/model"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShowMain      func()
	OnToggleTimer   func()
	OnStartBreak    func()
	OnEndBreak      func()
	OnCompleteTask  func()
	OnOpenCompanion func()
	OnAutostart     func(enabled bool)
	OnQuit          func()
}

// Manager handles system tray state.
type Manager struct {
	app          desktop.App
	statusItem   *fyne.MenuItem
	toggleItem   *fyne.MenuItem
	breakItem    *fyne.MenuItem
	completeItem  *fyne.MenuItem
	autostartItem *fyne.MenuItem
	callbacks     Callbacks
	inBreak       bool
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Focus · 25:00", nil)
	manager.statusItem.Disabled = true

	manager.toggleItem = fyne.NewMenuItem("Start", func() {
		if manager.callbacks.OnToggleTimer != nil {
			manager.callbacks.OnToggleTimer()
		}
	})

	manager.breakItem = fyne.NewMenuItem("Start break", func() {
		if manager.inBreak {
			if manager.callbacks.OnEndBreak != nil {
				manager.callbacks.OnEndBreak()
			}
			return
		}
		if manager.callbacks.OnStartBreak != nil {
			manager.callbacks.OnStartBreak()
		}
	})

	manager.completeItem = fyne.NewMenuItem("Complete task", func() {
		if manager.callbacks.OnCompleteTask != nil {
			manager.callbacks.OnCompleteTask()
		}
	})
	manager.completeItem.Disabled = true

	manager.autostartItem = fyne.NewMenuItem("Start at login", func() {
		if manager.callbacks.OnAutostart != nil {
			manager.callbacks.OnAutostart(!manager.autostartItem.Checked)
		}
	})

	manager.refreshMenu()
	return manager
}

// SetAutostart reflects the registered login-entry state in the menu.
func (manager *Manager) SetAutostart(enabled bool) {
	manager.autostartItem.Checked = enabled
	manager.refreshMenu()
}

// Update refreshes labels and item states from the latest snapshot.
func (manager *Manager) Update(state model.RuntimeSnapshot) {
	label := fmt.Sprintf("%s · %s", state.StatusText, state.TimeText)
	if state.HasActiveTask {
		label = fmt.Sprintf("%s · %s", state.TaskTitle, state.TimeText)
	}
	manager.statusItem.Label = label

	if state.IsRunning {
		manager.toggleItem.Label = "Pause"
	} else {
		manager.toggleItem.Label = "Resume"
	}

	if state.Mode == model.ModeBreak {
		manager.breakItem.Label = "End break"
	} else {
		manager.breakItem.Label = "Start break"
	}

	manager.completeItem.Disabled = !state.HasActiveTask
	manager.inBreak = state.Mode == model.ModeBreak
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("FocusDeck",
		manager.statusItem,
		fyne.NewMenuItem("Show FocusDeck", func() {
			if manager.callbacks.OnShowMain != nil {
				manager.callbacks.OnShowMain()
			}
		}),
		manager.toggleItem,
		manager.breakItem,
		manager.completeItem,
		fyne.NewMenuItem("Companion widget", func() {
			if manager.callbacks.OnOpenCompanion != nil {
				manager.callbacks.OnOpenCompanion()
			}
		}),
		manager.autostartItem,
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}
