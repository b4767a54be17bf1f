// Package engine implements the focus-timer state machine. Remaining and
// elapsed time are always recomputed from wall-clock anchors, never by
// decrementing a counter per tick, so displayed time is immune to tick
// jitter, missed callbacks and system sleep.
package engine

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/core/model"
)

const defaultTickInterval = 200 * time.Millisecond

// Engine drives the active countdown/count-up/overtime cycle. It is an
// explicit service object: construct with New, tear down with Stop.
type Engine struct {
	mu      sync.Mutex
	tasks   TaskSource
	options Config
	log     hclog.Logger

	state State

	// Anchors. endAnchor drives countdown modes, startAnchor drives the
	// stopwatch, overtimeAnchor drives the overtime counter.
	endAnchor      time.Time
	startAnchor    time.Time
	overtimeAnchor time.Time

	stopCh    chan struct{}
	listeners []func(State)
}

// New creates an Engine in the idle default state (25 minute countdown, no
// bound task).
func New(tasks TaskSource, options Config, log hclog.Logger) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = defaultTickInterval
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	eng := &Engine{
		tasks:   tasks,
		options: options,
		log:     log,
	}
	eng.state = State{
		Mode:          model.ModeTimer,
		TimerDuration: model.DefaultFocusMinutes * 60,
		TimeLeft:      model.DefaultFocusMinutes * 60,
	}
	return eng
}

// AddListener registers a callback invoked synchronously after every state
// mutation and every tick. Callbacks run outside the engine lock.
func (eng *Engine) AddListener(listener func(State)) {
	eng.mu.Lock()
	eng.listeners = append(eng.listeners, listener)
	eng.mu.Unlock()
}

// State returns a copy of the current timer state.
func (eng *Engine) State() State {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.state
}

// Stop tears the engine down, cancelling any scheduled tick loop.
func (eng *Engine) Stop() {
	eng.mu.Lock()
	eng.stopTickingLocked()
	eng.state.IsRunning = false
	eng.mu.Unlock()
}

// Toggle pauses a running session or resumes an idle one.
func (eng *Engine) Toggle() {
	eng.mu.Lock()
	now := eng.options.Now()
	if eng.state.IsRunning {
		eng.pauseLocked(now)
	} else {
		eng.resumeLocked(now)
	}
	eng.notifyUnlock()
}

// StartFocus binds and starts the given task, or a free-focus session when
// id is zero. Requesting the already-active session is a no-op: the caller
// only switches which view is shown, the running clock is untouched.
func (eng *Engine) StartFocus(id int) {
	eng.mu.Lock()
	if eng.state.TaskID == id && eng.state.Mode != model.ModeBreak {
		eng.mu.Unlock()
		return
	}

	now := eng.options.Now()
	eng.pauseLocked(now)
	eng.clearOvertimeLocked()
	eng.bindSessionLocked(id)
	eng.resumeLocked(now)
	eng.log.Debug("focus started", "task", id, "mode", eng.state.Mode)
	eng.notifyUnlock()
}

// StartBreak begins a countdown break using the active task's configured
// break length, or the default when no task is bound.
func (eng *Engine) StartBreak() {
	eng.mu.Lock()
	now := eng.options.Now()
	eng.pauseLocked(now)
	eng.clearOvertimeLocked()

	breakSeconds := model.DefaultBreakMinutes * 60
	if task, ok := eng.activeTaskLocked(); ok {
		breakSeconds = task.BreakSeconds()
	}
	eng.state.Mode = model.ModeBreak
	eng.state.TimerDuration = breakSeconds
	eng.state.TimeLeft = breakSeconds
	eng.state.TimeElapsed = 0
	eng.resumeLocked(now)
	eng.log.Debug("break started", "seconds", breakSeconds)
	eng.notifyUnlock()
}

// EndBreak leaves break mode early, restoring the active task's own mode and
// duration (or the free-session default) and starting it.
func (eng *Engine) EndBreak() {
	eng.mu.Lock()
	if eng.state.Mode != model.ModeBreak {
		eng.mu.Unlock()
		return
	}
	eng.finishBreakLocked(eng.options.Now())
	eng.notifyUnlock()
}

// CompleteCurrentTask marks the active task completed and starts the next
// incomplete task if one exists, otherwise returns to the idle default. With
// no bound task it behaves like ResetTimer.
func (eng *Engine) CompleteCurrentTask() {
	eng.mu.Lock()
	now := eng.options.Now()
	eng.pauseLocked(now)
	eng.clearOvertimeLocked()

	if eng.state.TaskID != 0 {
		if err := eng.tasks.SetCompleted(eng.state.TaskID, true); err != nil {
			eng.log.Warn("mark task completed", "task", eng.state.TaskID, "error", err)
		}
		if next, ok := eng.tasks.FirstIncomplete(); ok {
			eng.bindSessionLocked(next.ID)
			eng.resumeLocked(now)
			eng.log.Debug("advanced to next task", "task", next.ID)
			eng.notifyUnlock()
			return
		}
	}

	eng.resetToDefaultLocked()
	eng.notifyUnlock()
}

// ResetTimer stops the session and restores the configured baseline: the
// active task's parameters when one is bound, the free-session default
// otherwise. The task binding is kept.
func (eng *Engine) ResetTimer() {
	eng.mu.Lock()
	eng.pauseLocked(eng.options.Now())
	eng.clearOvertimeLocked()

	if task, ok := eng.activeTaskLocked(); ok {
		eng.state.Mode = task.Mode
		eng.state.TimerDuration = task.DurationSeconds()
	} else if eng.state.Mode == model.ModeBreak {
		eng.state.Mode = model.ModeTimer
		eng.state.TimerDuration = model.DefaultFocusMinutes * 60
	}
	eng.state.TimeLeft = eng.state.TimerDuration
	eng.state.TimeElapsed = 0
	eng.notifyUnlock()
}

// SwitchMode switches between timer and stopwatch. Only valid while no task
// is bound and not in a break; otherwise it is ignored.
func (eng *Engine) SwitchMode(next model.Mode) {
	eng.mu.Lock()
	if eng.state.TaskID != 0 || eng.state.Mode == model.ModeBreak ||
		(next != model.ModeTimer && next != model.ModeStopwatch) {
		eng.mu.Unlock()
		return
	}
	eng.pauseLocked(eng.options.Now())
	eng.clearOvertimeLocked()
	eng.state.Mode = next
	eng.state.TimerDuration = model.DefaultFocusMinutes * 60
	eng.state.TimeLeft = eng.state.TimerDuration
	eng.state.TimeElapsed = 0
	eng.notifyUnlock()
}

// DeleteTask removes a task from the store. Deleting the active task behaves
// like completing it with no successor: the engine returns to the idle
// default state.
func (eng *Engine) DeleteTask(id int) {
	eng.mu.Lock()
	if err := eng.tasks.Delete(id); err != nil {
		eng.log.Warn("delete task", "task", id, "error", err)
	}
	if eng.state.TaskID == id {
		eng.pauseLocked(eng.options.Now())
		eng.clearOvertimeLocked()
		eng.resetToDefaultLocked()
	}
	eng.notifyUnlock()
}

// RefreshActiveTask restarts the session with freshly edited task
// parameters. Called by the store wiring when the active task is updated;
// ignored during breaks so an edit never cuts a break short.
func (eng *Engine) RefreshActiveTask(task model.FocusTask) {
	eng.mu.Lock()
	if eng.state.TaskID != task.ID || eng.state.Mode == model.ModeBreak {
		eng.mu.Unlock()
		return
	}
	now := eng.options.Now()
	eng.pauseLocked(now)
	eng.clearOvertimeLocked()
	eng.bindSessionLocked(task.ID)
	eng.resumeLocked(now)
	eng.notifyUnlock()
}

// tick recomputes remaining/elapsed time from the anchors. It is the single
// recurring check; correctness depends only on two wall-clock reads. Ticks
// fire several times per displayed second; listeners only hear the ones
// where a visible field actually changed.
func (eng *Engine) tick(now time.Time) {
	eng.mu.Lock()
	if !eng.state.IsRunning {
		eng.mu.Unlock()
		return
	}

	previous := eng.state
	switch {
	case eng.state.IsOvertime:
		eng.state.OvertimeSeconds = floorSeconds(now.Sub(eng.overtimeAnchor))
	case eng.state.Mode == model.ModeStopwatch:
		eng.state.TimeElapsed = floorSeconds(now.Sub(eng.startAnchor))
	default:
		remaining := ceilSeconds(eng.endAnchor.Sub(now))
		if remaining < 0 {
			remaining = 0
		}
		eng.state.TimeLeft = remaining
		if remaining == 0 {
			if eng.state.Mode == model.ModeBreak {
				eng.finishBreakLocked(now)
				break
			}
			eng.state.IsOvertime = true
			eng.state.OvertimeSeconds = 0
			eng.overtimeAnchor = now
			eng.log.Debug("countdown elapsed, entering overtime")
		}
	}
	if eng.state == previous {
		eng.mu.Unlock()
		return
	}
	eng.notifyUnlock()
}

// pauseLocked cancels the tick loop and retains the values already computed
// from the anchors as the new baseline.
func (eng *Engine) pauseLocked(now time.Time) {
	if eng.state.IsRunning {
		switch {
		case eng.state.IsOvertime:
			eng.state.OvertimeSeconds = floorSeconds(now.Sub(eng.overtimeAnchor))
		case eng.state.Mode == model.ModeStopwatch:
			eng.state.TimeElapsed = floorSeconds(now.Sub(eng.startAnchor))
		default:
			remaining := ceilSeconds(eng.endAnchor.Sub(now))
			if remaining < 0 {
				remaining = 0
			}
			eng.state.TimeLeft = remaining
		}
	}
	eng.stopTickingLocked()
	eng.state.IsRunning = false
}

// resumeLocked re-anchors from the retained baseline and restarts the tick
// loop. Any prior loop is cancelled first so at most one is ever live.
func (eng *Engine) resumeLocked(now time.Time) {
	switch {
	case eng.state.IsOvertime:
		eng.overtimeAnchor = now.Add(-time.Duration(eng.state.OvertimeSeconds) * time.Second)
	case eng.state.Mode == model.ModeStopwatch:
		eng.startAnchor = now.Add(-time.Duration(eng.state.TimeElapsed) * time.Second)
	default:
		eng.endAnchor = now.Add(time.Duration(eng.state.TimeLeft) * time.Second)
	}
	eng.state.IsRunning = true
	eng.stopTickingLocked()
	eng.startTickingLocked()
}

// finishBreakLocked transitions out of break into whichever mode the active
// task prescribes (or the plain timer default) and auto-starts it.
func (eng *Engine) finishBreakLocked(now time.Time) {
	if task, ok := eng.activeTaskLocked(); ok {
		eng.state.Mode = task.Mode
		eng.state.TimerDuration = task.DurationSeconds()
	} else {
		eng.state.Mode = model.ModeTimer
		eng.state.TimerDuration = model.DefaultFocusMinutes * 60
	}
	eng.state.TimeLeft = eng.state.TimerDuration
	eng.state.TimeElapsed = 0
	eng.clearOvertimeLocked()
	eng.resumeLocked(now)
	eng.log.Debug("break finished", "mode", eng.state.Mode)
}

// bindSessionLocked binds the given task (or clears the binding for a free
// session) and resets remaining/elapsed to the configured baseline.
func (eng *Engine) bindSessionLocked(id int) {
	eng.state.TaskID = id
	eng.state.Mode = model.ModeTimer
	eng.state.TimerDuration = model.DefaultFocusMinutes * 60
	if task, ok := eng.activeTaskLocked(); ok {
		eng.state.Mode = task.Mode
		eng.state.TimerDuration = task.DurationSeconds()
	}
	eng.state.TimeLeft = eng.state.TimerDuration
	eng.state.TimeElapsed = 0
}

func (eng *Engine) resetToDefaultLocked() {
	eng.state = State{
		Mode:          model.ModeTimer,
		TimerDuration: model.DefaultFocusMinutes * 60,
		TimeLeft:      model.DefaultFocusMinutes * 60,
	}
}

func (eng *Engine) clearOvertimeLocked() {
	eng.state.IsOvertime = false
	eng.state.OvertimeSeconds = 0
}

func (eng *Engine) activeTaskLocked() (model.FocusTask, bool) {
	if eng.state.TaskID == 0 || eng.tasks == nil {
		return model.FocusTask{}, false
	}
	return eng.tasks.Get(eng.state.TaskID)
}

func (eng *Engine) startTickingLocked() {
	if eng.stopCh != nil {
		return
	}
	stop := make(chan struct{})
	eng.stopCh = stop
	go eng.run(stop)
}

func (eng *Engine) stopTickingLocked() {
	if eng.stopCh != nil {
		close(eng.stopCh)
		eng.stopCh = nil
	}
}

func (eng *Engine) run(stop chan struct{}) {
	ticker := time.NewTicker(eng.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			eng.tick(eng.options.Now())
		}
	}
}

// notifyUnlock copies the state and listener list, releases the lock and
// invokes every listener synchronously.
func (eng *Engine) notifyUnlock() {
	state := eng.state
	listeners := append([]func(State){}, eng.listeners...)
	eng.mu.Unlock()
	for _, listener := range listeners {
		listener(state)
	}
}

func floorSeconds(value time.Duration) int {
	if value < 0 {
		return 0
	}
	return int(value / time.Second)
}

func ceilSeconds(value time.Duration) int {
	if value <= 0 {
		return 0
	}
	return int((value + time.Second - 1) / time.Second)
}
