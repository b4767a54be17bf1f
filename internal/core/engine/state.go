package engine

import (
	"time"

	"focusdeck/internal/core/model"
)

// State is the externally visible timer state. Exactly one of TimeLeft and
// TimeElapsed is meaningful depending on Mode; IsOvertime can only be true
// for countdown modes whose remaining time reached zero while running.
type State struct {
	Mode            model.Mode
	IsRunning       bool
	TimeLeft        int
	TimeElapsed     int
	TimerDuration   int
	IsOvertime      bool
	OvertimeSeconds int
	// TaskID of the bound focus task; zero denotes a free-focus session.
	TaskID int
}

// HasTask reports whether a focus task is bound to the session.
func (state State) HasTask() bool {
	return state.TaskID != 0
}

// TaskSource is the slice of the task store the engine needs. The store
// owns persistence and ordering; the engine only reads session parameters
// and flips completion.
type TaskSource interface {
	Get(id int) (model.FocusTask, bool)
	FirstIncomplete() (model.FocusTask, bool)
	SetCompleted(id int, completed bool) error
	Delete(id int) error
}

// Config contains runtime options for the Engine.
type Config struct {
	// TickInterval is the cadence of the recurring wall-clock check.
	TickInterval time.Duration
	// Now supplies wall-clock time; tests inject a synthetic clock.
	Now func() time.Time
}
