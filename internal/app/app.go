// Package app is the controller-side composition service. It owns the
// wiring between the timer engine, the task store, the snapshot publisher
// and the action bus, and exposes the task operations the UI calls. Both
// window composition roots receive this service explicitly; there is no
// ambient global state.
package app

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/bus"
	"focusdeck/internal/core/engine"
	"focusdeck/internal/core/model"
	"focusdeck/internal/core/snapshot"
	"focusdeck/internal/core/tasks"
)

// Options carries the window-level callbacks the service cannot own itself.
type Options struct {
	// RestoreMain brings the primary window back to the foreground and
	// switches its view to the focus screen.
	RestoreMain func()
}

// App binds the core services together.
type App struct {
	Engine    *engine.Engine
	Tasks     *tasks.Store
	Publisher *snapshot.Publisher

	log         hclog.Logger
	options     Options
	unsubscribe bus.Unsubscribe
}

// New wires the service: every engine mutation and every task-store change
// republishes the snapshot, and incoming bus actions are dispatched onto the
// engine.
func New(eng *engine.Engine, store *tasks.Store, publisher *snapshot.Publisher, conduit *bus.Conduit, log hclog.Logger, options Options) *App {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	service := &App{
		Engine:    eng,
		Tasks:     store,
		Publisher: publisher,
		log:       log,
		options:   options,
	}

	// The store hook publishes from a cached copy of the engine state: the
	// engine mutates the store under its own lock (complete, delete), so
	// calling eng.State() from here would deadlock. The engine listener
	// that follows any such mutation republishes the fresh state anyway.
	var stateMu sync.Mutex
	lastState := eng.State()
	eng.AddListener(func(state engine.State) {
		stateMu.Lock()
		lastState = state
		stateMu.Unlock()
		publisher.Publish(state)
	})
	store.SetOnChange(func() {
		stateMu.Lock()
		state := lastState
		stateMu.Unlock()
		publisher.Publish(state)
	})
	if conduit != nil {
		service.unsubscribe = conduit.OnAction(service.Dispatch)
	}
	return service
}

// Close releases the bus registration and stops the engine.
func (service *App) Close() {
	if service.unsubscribe != nil {
		service.unsubscribe()
		service.unsubscribe = nil
	}
	service.Engine.Stop()
}

// Dispatch maps an Action tag onto the corresponding engine operation.
// Unknown actions never reach this point; the bus drops them.
func (service *App) Dispatch(action model.Action) {
	service.log.Debug("dispatch action", "action", action)
	switch action {
	case model.ActionToggleTimer:
		service.Engine.Toggle()
	case model.ActionStartBreak:
		service.Engine.StartBreak()
	case model.ActionEndBreak:
		service.Engine.EndBreak()
	case model.ActionCompleteTask:
		service.Engine.CompleteCurrentTask()
	case model.ActionResetTimer:
		service.Engine.ResetTimer()
	case model.ActionToggleMode:
		if service.Engine.State().Mode == model.ModeTimer {
			service.Engine.SwitchMode(model.ModeStopwatch)
		} else {
			service.Engine.SwitchMode(model.ModeTimer)
		}
	case model.ActionRestoreMain:
		if service.options.RestoreMain != nil {
			service.options.RestoreMain()
		}
	}
}

// CreateTask adds a task to the store.
func (service *App) CreateTask(draft tasks.Draft) model.FocusTask {
	return service.Tasks.Create(draft)
}

// UpdateTask edits a task; editing the currently-active non-break session
// restarts the timer with the new parameters.
func (service *App) UpdateTask(id int, draft tasks.Draft) (model.FocusTask, error) {
	task, err := service.Tasks.Update(id, draft)
	if err != nil {
		return model.FocusTask{}, err
	}
	service.Engine.RefreshActiveTask(task)
	return task, nil
}

// SetTaskCompleted toggles completion. Completing the active task routes
// through the engine so the next incomplete task starts automatically.
func (service *App) SetTaskCompleted(id int, completed bool) error {
	if completed && service.Engine.State().TaskID == id {
		service.Engine.CompleteCurrentTask()
		return nil
	}
	return service.Tasks.SetCompleted(id, completed)
}

// DeleteTask removes a task; deleting the active one resets the engine.
func (service *App) DeleteTask(id int) {
	service.Engine.DeleteTask(id)
}
