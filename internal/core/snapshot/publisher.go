// Package snapshot derives the display-ready projection of engine state and
// pushes it across the window boundary through two independent sinks: the
// live channel and the persisted fallback a late-joining companion reads.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/core/engine"
	"focusdeck/internal/core/model"
	"focusdeck/internal/storage"
)

// StorageKey is the persisted-snapshot fallback location.
const StorageKey = "focus.runtime-snapshot"

// TitleSource resolves the active task's title for the projection.
type TitleSource interface {
	Get(id int) (model.FocusTask, bool)
}

// StateSink is the live delivery channel toward the companion window.
type StateSink interface {
	SendState(snap model.RuntimeSnapshot) error
}

// Publisher recomputes and publishes the runtime snapshot on every
// observable engine change. Failure of either sink never affects the other:
// the persisted copy is authoritative for late joiners and the next state
// change re-publishes.
type Publisher struct {
	kv     storage.Store
	sink   StateSink
	titles TitleSource
	log    hclog.Logger
}

// NewPublisher wires the two sinks.
func NewPublisher(kv storage.Store, sink StateSink, titles TitleSource, log hclog.Logger) *Publisher {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Publisher{kv: kv, sink: sink, titles: titles, log: log}
}

// Publish derives the snapshot and writes both sinks.
func (publisher *Publisher) Publish(state engine.State) {
	snap := Derive(state, publisher.titles)

	if err := publisher.kv.Set(StorageKey, snap); err != nil {
		publisher.log.Warn("persist runtime snapshot", "error", err)
	}
	if publisher.sink != nil {
		if err := publisher.sink.SendState(snap); err != nil {
			// Companion not present or channel not ready; the persisted
			// copy covers it.
			publisher.log.Debug("live snapshot delivery failed", "error", err)
		}
	}
}

// Load reads the persisted snapshot. Missing or corrupt data falls back to
// the default idle projection.
func (publisher *Publisher) Load() model.RuntimeSnapshot {
	var snap model.RuntimeSnapshot
	if err := publisher.kv.Get(StorageKey, &snap); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			publisher.log.Warn("read runtime snapshot", "error", err)
		}
		return Default()
	}
	return snap
}

// Default is the projection of the idle default engine state.
func Default() model.RuntimeSnapshot {
	return model.RuntimeSnapshot{
		Mode:          model.ModeTimer,
		TimeText:      ClockText(model.DefaultFocusMinutes * 60),
		StatusText:    "Paused",
		Theme:         model.ThemeFocus,
		TimeLeft:      model.DefaultFocusMinutes * 60,
		TimerDuration: model.DefaultFocusMinutes * 60,
	}
}

// Derive computes the pure projection of engine state.
func Derive(state engine.State, titles TitleSource) model.RuntimeSnapshot {
	snap := model.RuntimeSnapshot{
		Mode:            state.Mode,
		IsRunning:       state.IsRunning,
		IsOvertime:      state.IsOvertime,
		TimeLeft:        state.TimeLeft,
		TimeElapsed:     state.TimeElapsed,
		TimerDuration:   state.TimerDuration,
		OvertimeSeconds: state.OvertimeSeconds,
		TimeText:        timeText(state),
		StatusText:      statusText(state),
		Theme:           theme(state),
		Progress:        progress(state),
	}
	if state.HasTask() && titles != nil {
		if task, ok := titles.Get(state.TaskID); ok {
			snap.TaskTitle = task.Title
			snap.HasActiveTask = true
		}
	}
	return snap
}

// ClockText formats seconds as MM:SS with unbounded minutes.
func ClockText(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func timeText(state engine.State) string {
	switch {
	case state.IsOvertime:
		return "+" + ClockText(state.OvertimeSeconds)
	case state.Mode == model.ModeStopwatch:
		return ClockText(state.TimeElapsed)
	default:
		return ClockText(state.TimeLeft)
	}
}

func statusText(state engine.State) string {
	switch {
	case state.IsOvertime:
		return "Overtime"
	case !state.IsRunning:
		return "Paused"
	case state.Mode == model.ModeBreak:
		return "Break"
	case state.Mode == model.ModeStopwatch:
		return "Stopwatch"
	default:
		return "Focus"
	}
}

func theme(state engine.State) string {
	switch {
	case state.IsOvertime:
		return model.ThemeOvertime
	case state.Mode == model.ModeBreak:
		return model.ThemeBreak
	default:
		return model.ThemeFocus
	}
}

func progress(state engine.State) float64 {
	if state.IsOvertime {
		return 100
	}
	if state.Mode == model.ModeStopwatch || state.TimerDuration <= 0 {
		return 0
	}
	value := float64(state.TimerDuration-state.TimeLeft) / float64(state.TimerDuration) * 100
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
