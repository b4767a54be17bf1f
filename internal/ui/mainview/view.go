// Package mainview renders the primary window: the session clock, the
// transport controls and the task list with its editing form.
package mainview

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/app"
	"focusdeck/internal/bus"
	"focusdeck/internal/core/model"
	"focusdeck/internal/core/tasks"
)

// View is the primary window content.
type View struct {
	service *app.App
	log     hclog.Logger

	clockLabel  *canvas.Text
	statusLabel *widget.Label
	titleLabel  *widget.Label
	toggle      *widget.Button
	breakButton *widget.Button
	modeButton  *widget.Button
	complete    *widget.Button
	taskList    *widget.List

	titleEntry *widget.Entry
	focusEntry *widget.Entry
	breakEntry *widget.Entry
	tagsEntry  *widget.Entry
	saveButton *widget.Button

	mu        sync.Mutex
	visible   []model.FocusTask
	editingID int

	unsubscribe bus.Unsubscribe
}

// New builds the primary window content and keeps it current through the
// live snapshot channel. Every mutation republishes, so one subscription
// covers both clock and task-list refreshes.
func New(win fyne.Window, service *app.App, conduit *bus.Conduit, log hclog.Logger) *View {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	view := &View{service: service, log: log}

	view.clockLabel = canvas.NewText("25:00", color.NRGBA{R: 240, G: 240, B: 245, A: 255})
	view.clockLabel.Alignment = fyne.TextAlignCenter
	view.clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	view.clockLabel.TextSize = 52

	view.statusLabel = widget.NewLabelWithStyle("Paused", fyne.TextAlignCenter, fyne.TextStyle{})
	view.titleLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	view.toggle = widget.NewButton("Start", func() {
		view.service.Dispatch(model.ActionToggleTimer)
	})
	view.breakButton = widget.NewButton("Break", func() {
		view.service.Dispatch(model.ActionStartBreak)
	})
	view.modeButton = widget.NewButton("Stopwatch", func() {
		view.service.Dispatch(model.ActionToggleMode)
	})
	view.complete = widget.NewButton("Complete", func() {
		view.service.Dispatch(model.ActionCompleteTask)
	})
	view.complete.Disable()
	reset := widget.NewButton("Reset", func() {
		view.service.Dispatch(model.ActionResetTimer)
	})

	transport := container.NewHBox(
		layout.NewSpacer(),
		view.toggle, view.breakButton, view.complete, reset, view.modeButton,
		layout.NewSpacer(),
	)

	view.taskList = widget.NewList(view.taskCount, view.newTaskRow, view.bindTaskRow)
	view.taskList.OnSelected = func(index widget.ListItemID) {
		task, ok := view.taskAt(int(index))
		if !ok {
			return
		}
		view.service.Engine.StartFocus(task.ID)
		view.taskList.UnselectAll()
	}

	view.titleEntry = widget.NewEntry()
	view.titleEntry.SetPlaceHolder("What are you working on?")
	view.focusEntry = widget.NewEntry()
	view.focusEntry.SetText(strconv.Itoa(model.DefaultFocusMinutes))
	view.breakEntry = widget.NewEntry()
	view.breakEntry.SetText(strconv.Itoa(model.DefaultBreakMinutes))
	view.tagsEntry = widget.NewEntry()
	view.tagsEntry.SetPlaceHolder("tags, comma separated")

	view.saveButton = widget.NewButton("Add task", view.handleSave)
	clearButton := widget.NewButton("Clear", view.resetForm)

	form := container.NewVBox(
		view.titleEntry,
		container.NewHBox(
			widget.NewLabel("Focus"), view.focusEntry, widget.NewLabel("min"),
			widget.NewLabel("Break"), view.breakEntry, widget.NewLabel("min"),
		),
		view.tagsEntry,
		container.NewHBox(view.saveButton, layout.NewSpacer(), clearButton),
	)

	header := container.NewVBox(view.titleLabel, view.clockLabel, view.statusLabel, transport)
	win.SetContent(container.NewBorder(header, form, nil, nil, view.taskList))

	view.refreshTasksUnsafe()
	view.applyUnsafe(service.Publisher.Load())
	view.unsubscribe = conduit.OnState(func(snap model.RuntimeSnapshot) {
		fyne.Do(func() {
			view.refreshTasksUnsafe()
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

func (view *View) applyUnsafe(snap model.RuntimeSnapshot) {
	view.clockLabel.Text = snap.TimeText
	view.clockLabel.Refresh()
	view.statusLabel.SetText(snap.StatusText)
	view.titleLabel.SetText(snap.TaskTitle)

	if snap.IsRunning {
		view.toggle.SetText("Pause")
	} else {
		view.toggle.SetText("Resume")
	}
	if snap.Mode == model.ModeBreak {
		view.breakButton.SetText("End break")
		view.breakButton.OnTapped = func() {
			view.service.Dispatch(model.ActionEndBreak)
		}
	} else {
		view.breakButton.SetText("Break")
		view.breakButton.OnTapped = func() {
			view.service.Dispatch(model.ActionStartBreak)
		}
	}
	if snap.Mode == model.ModeStopwatch {
		view.modeButton.SetText("Timer")
	} else {
		view.modeButton.SetText("Stopwatch")
	}
	if snap.HasActiveTask {
		view.complete.Enable()
	} else {
		view.complete.Disable()
	}
}

func (view *View) refreshTasksUnsafe() {
	view.mu.Lock()
	view.visible = view.service.Tasks.List()
	view.mu.Unlock()
	view.taskList.Refresh()
}

func (view *View) taskCount() int {
	view.mu.Lock()
	defer view.mu.Unlock()
	return len(view.visible)
}

func (view *View) taskAt(index int) (model.FocusTask, bool) {
	view.mu.Lock()
	defer view.mu.Unlock()
	if index < 0 || index >= len(view.visible) {
		return model.FocusTask{}, false
	}
	return view.visible[index], true
}

func (view *View) newTaskRow() fyne.CanvasObject {
	check := widget.NewCheck("", nil)
	title := widget.NewLabel("")
	detail := widget.NewLabel("")
	edit := widget.NewButton("Edit", nil)
	remove := widget.NewButton("Delete", nil)
	return container.NewBorder(nil, nil, check, container.NewHBox(detail, edit, remove), title)
}

func (view *View) bindTaskRow(index widget.ListItemID, object fyne.CanvasObject) {
	task, ok := view.taskAt(int(index))
	if !ok {
		return
	}
	row := object.(*fyne.Container)
	check := row.Objects[1].(*widget.Check)
	title := row.Objects[0].(*widget.Label)
	trailing := row.Objects[2].(*fyne.Container)
	detail := trailing.Objects[0].(*widget.Label)
	edit := trailing.Objects[1].(*widget.Button)
	remove := trailing.Objects[2].(*widget.Button)

	check.OnChanged = nil
	check.SetChecked(task.IsCompleted)
	check.OnChanged = func(completed bool) {
		if err := view.service.SetTaskCompleted(task.ID, completed); err != nil {
			view.log.Warn("toggle task completion", "id", task.ID, "error", err)
		}
	}

	title.SetText(task.Title)
	detail.SetText(fmt.Sprintf("%dm", task.Duration))
	edit.OnTapped = func() {
		view.beginEdit(task)
	}
	remove.OnTapped = func() {
		view.service.DeleteTask(task.ID)
	}
}

func (view *View) beginEdit(task model.FocusTask) {
	view.mu.Lock()
	view.editingID = task.ID
	view.mu.Unlock()

	view.titleEntry.SetText(task.Title)
	view.focusEntry.SetText(strconv.Itoa(task.Duration))
	view.breakEntry.SetText(strconv.Itoa(task.BreakDuration))
	view.tagsEntry.SetText(strings.Join(task.Tags, ", "))
	view.saveButton.SetText("Save task")
}

func (view *View) handleSave() {
	title := strings.TrimSpace(view.titleEntry.Text)
	if title == "" {
		return
	}

	draft := tasks.Draft{
		Title:         title,
		Mode:          model.ModeTimer,
		Duration:      parseMinutes(view.focusEntry.Text, model.DefaultFocusMinutes),
		BreakDuration: parseMinutes(view.breakEntry.Text, model.DefaultBreakMinutes),
		Tags:          splitTags(view.tagsEntry.Text),
	}

	view.mu.Lock()
	editingID := view.editingID
	view.mu.Unlock()

	if editingID != 0 {
		if _, err := view.service.UpdateTask(editingID, draft); err != nil {
			view.log.Warn("update task", "id", editingID, "error", err)
		}
	} else {
		view.service.CreateTask(draft)
	}
	view.resetForm()
}

func (view *View) resetForm() {
	view.mu.Lock()
	view.editingID = 0
	view.mu.Unlock()

	view.titleEntry.SetText("")
	view.focusEntry.SetText(strconv.Itoa(model.DefaultFocusMinutes))
	view.breakEntry.SetText(strconv.Itoa(model.DefaultBreakMinutes))
	view.tagsEntry.SetText("")
	view.saveButton.SetText("Add task")
}

func parseMinutes(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
