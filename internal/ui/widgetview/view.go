// Package widgetview renders the compact companion widget. It is a pure
// consumer of runtime snapshots: every visual is derived from the last
// snapshot received over the bus, and every button is a fire-and-forget
// action back across it.
package widgetview

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/bus"
	"focusdeck/internal/core/model"
)

var themeColors = map[string]color.NRGBA{
	model.ThemeFocus:    {R: 24, G: 28, B: 44, A: 235},
	model.ThemeBreak:    {R: 18, G: 58, B: 42, A: 235},
	model.ThemeOvertime: {R: 74, G: 24, B: 28, A: 235},
}

// View is the companion widget content.
type View struct {
	conduit *bus.Conduit
	log     hclog.Logger

	background  *canvas.Rectangle
	clockLabel  *canvas.Text
	statusLabel *canvas.Text
	titleLabel  *canvas.Text
	progress    *widget.ProgressBar
	toggle      *widget.Button
	complete    *widget.Button

	unsubscribe bus.Unsubscribe
}

// New builds the widget content into the window and subscribes to live
// snapshots. The initial snapshot covers the gap until the first live one.
func New(win fyne.Window, conduit *bus.Conduit, initial model.RuntimeSnapshot, log hclog.Logger) *View {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	view := &View{conduit: conduit, log: log}

	view.background = canvas.NewRectangle(themeColors[model.ThemeFocus])

	view.clockLabel = canvas.NewText("25:00", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	view.clockLabel.Alignment = fyne.TextAlignCenter
	view.clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	view.clockLabel.TextSize = 34

	view.statusLabel = canvas.NewText("Paused", color.NRGBA{R: 200, G: 204, B: 214, A: 255})
	view.statusLabel.Alignment = fyne.TextAlignCenter
	view.statusLabel.TextSize = 12

	view.titleLabel = canvas.NewText("", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	view.titleLabel.Alignment = fyne.TextAlignCenter
	view.titleLabel.TextSize = 13

	view.progress = widget.NewProgressBar()
	view.progress.Min = 0
	view.progress.Max = 100
	view.progress.TextFormatter = func() string { return "" }

	view.toggle = widget.NewButton("Start", func() {
		view.send(model.ActionToggleTimer)
	})
	view.complete = widget.NewButton("Done", func() {
		view.send(model.ActionCompleteTask)
	})
	view.complete.Disable()
	restore := widget.NewButton("Open", func() {
		view.send(model.ActionRestoreMain)
	})

	buttons := container.NewGridWithColumns(3, view.toggle, view.complete, restore)
	body := container.NewVBox(
		view.titleLabel,
		view.clockLabel,
		view.statusLabel,
		view.progress,
		buttons,
	)
	win.SetContent(container.NewStack(view.background, container.NewPadded(body)))

	view.applyUnsafe(initial)
	view.unsubscribe = conduit.OnState(func(snap model.RuntimeSnapshot) {
		fyne.Do(func() {
			view.applyUnsafe(snap)
		})
	})
	return view
}

// Close drops the bus registration.
func (view *View) Close() {
	if view.unsubscribe != nil {
		view.unsubscribe()
		view.unsubscribe = nil
	}
}

func (view *View) send(action model.Action) {
	if err := view.conduit.SendAction(action); err != nil {
		view.log.Debug("companion action not delivered", "action", action, "error", err)
	}
}

func (view *View) applyUnsafe(snap model.RuntimeSnapshot) {
	if fill, ok := themeColors[snap.Theme]; ok {
		view.background.FillColor = fill
		canvas.Refresh(view.background)
	}

	view.clockLabel.Text = snap.TimeText
	view.clockLabel.Refresh()

	view.statusLabel.Text = snap.StatusText
	view.statusLabel.Refresh()

	view.titleLabel.Text = snap.TaskTitle
	view.titleLabel.Refresh()

	view.progress.SetValue(snap.Progress)

	if snap.IsRunning {
		view.toggle.SetText("Pause")
	} else {
		view.toggle.SetText("Resume")
	}
	if snap.HasActiveTask {
		view.complete.Enable()
	} else {
		view.complete.Disable()
	}
}
