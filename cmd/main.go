package main

import (
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/app"
	"focusdeck/internal/bus"
	"focusdeck/internal/companion"
	"focusdeck/internal/config"
	"focusdeck/internal/core/engine"
	"focusdeck/internal/core/model"
	"focusdeck/internal/core/snapshot"
	"focusdeck/internal/core/tasks"
	"focusdeck/internal/platform"
	"focusdeck/internal/storage"
	"focusdeck/internal/ui/mainview"
	"focusdeck/internal/ui/shell"
	"focusdeck/internal/ui/tray"
	"focusdeck/internal/ui/widgetview"
)

const appName = "FocusDeck"

func main() {
	log := hclog.New(&hclog.LoggerOptions{
		Name:  "focusdeck",
		Level: hclog.LevelFromString(os.Getenv("FOCUSDECK_LOG_LEVEL")),
	})

	guard, err := platform.AcquireSingleInstance(appName, log.Named("platform"))
	if err != nil {
		log.Error("another instance is already running")
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, err := config.LoadSettings(appName)
	if err != nil {
		log.Warn("load settings, continuing with defaults", "error", err)
	}

	var kv storage.Store
	if dir, err := config.StorageDir(appName); err == nil {
		if fileStore, err := storage.NewFileStore(dir); err == nil {
			kv = fileStore
		} else {
			log.Warn("open file storage, state will not persist", "error", err)
		}
	} else {
		log.Warn("resolve storage dir, state will not persist", "error", err)
	}
	if kv == nil {
		kv = storage.NewMemoryStore()
	}

	store := tasks.NewStore(kv, log.Named("tasks"))
	store.Load()

	eng := engine.New(store, engine.Config{TickInterval: settings.TickInterval}, log.Named("engine"))
	conduit := bus.NewConduit(bus.NewInProc(), log.Named("bus"))
	publisher := snapshot.NewPublisher(kv, conduit, store, log.Named("snapshot"))

	fyneApp := fyneapp.NewWithID("com.focusdeck.app")
	mainWindow := fyneApp.NewWindow(appName)
	mainWindow.Resize(fyne.NewSize(480, 640))

	service := app.New(eng, store, publisher, conduit, log.Named("app"), app.Options{
		RestoreMain: func() {
			fyne.Do(func() {
				mainWindow.Show()
				mainWindow.RequestFocus()
			})
		},
	})
	defer service.Close()

	wm := shell.NewManager(fyneApp)

	companionConfig := companion.DefaultConfig()
	companionConfig.SnapThreshold = settings.SnapThreshold
	companionConfig.Debounce = settings.GeometryDebounce
	controller := companion.NewController(wm, kv, companionConfig, log.Named("companion"))
	defer controller.Close()

	var widget *widgetview.View
	openCompanion := func() {
		wasOpen := controller.IsOpen()
		if err := controller.Open(); err != nil {
			log.Warn("open companion window", "error", err)
			return
		}
		if wasOpen {
			return
		}
		if widget != nil {
			widget.Close()
		}
		if win, ok := wm.Window(companionConfig.Label); ok {
			widget = widgetview.New(win, conduit, publisher.Load(), log.Named("widget"))
		}
	}

	view := mainview.New(mainWindow, service, conduit, log.Named("main"))
	defer view.Close()

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		autostart, err := platform.NewAutostart(appName, log.Named("platform"))
		if err != nil {
			log.Warn("login entry unavailable", "error", err)
		}

		var trayManager *tray.Manager
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShowMain: func() {
				mainWindow.Show()
				mainWindow.RequestFocus()
			},
			OnToggleTimer: func() {
				service.Dispatch(model.ActionToggleTimer)
			},
			OnStartBreak: func() {
				service.Dispatch(model.ActionStartBreak)
			},
			OnEndBreak: func() {
				service.Dispatch(model.ActionEndBreak)
			},
			OnCompleteTask: func() {
				service.Dispatch(model.ActionCompleteTask)
			},
			OnOpenCompanion: openCompanion,
			OnAutostart: func(enabled bool) {
				if autostart == nil {
					return
				}
				var err error
				if enabled {
					err = autostart.Enable()
				} else {
					err = autostart.Disable()
				}
				if err != nil {
					log.Warn("update login entry", "error", err)
					return
				}
				trayManager.SetAutostart(enabled)
			},
			OnQuit: func() {
				fyneApp.Quit()
			},
		})
		if autostart != nil {
			trayManager.SetAutostart(autostart.Enabled())
		}
		trayUnsubscribe := conduit.OnState(func(snap model.RuntimeSnapshot) {
			fyne.Do(func() {
				trayManager.Update(snap)
			})
		})
		defer trayUnsubscribe()

		// With a tray present, closing the main window only hides it.
		mainWindow.SetCloseIntercept(func() {
			mainWindow.Hide()
		})
	} else {
		log.Info("system tray unsupported on this platform")
	}

	mainWindow.Show()
	fyneApp.Run()
}
