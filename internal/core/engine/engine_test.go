package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/core/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

type taskSourceStub struct {
	tasks map[int]model.FocusTask
	order []int
}

func newTaskSourceStub(tasks ...model.FocusTask) *taskSourceStub {
	stub := &taskSourceStub{tasks: make(map[int]model.FocusTask)}
	for _, task := range tasks {
		stub.tasks[task.ID] = task
		stub.order = append(stub.order, task.ID)
	}
	return stub
}

func (stub *taskSourceStub) Get(id int) (model.FocusTask, bool) {
	task, ok := stub.tasks[id]
	return task, ok
}

func (stub *taskSourceStub) FirstIncomplete() (model.FocusTask, bool) {
	for _, id := range stub.order {
		if task, ok := stub.tasks[id]; ok && !task.IsCompleted {
			return task, true
		}
	}
	return model.FocusTask{}, false
}

func (stub *taskSourceStub) SetCompleted(id int, completed bool) error {
	task, ok := stub.tasks[id]
	if !ok {
		return nil
	}
	task.IsCompleted = completed
	stub.tasks[id] = task
	return nil
}

func (stub *taskSourceStub) Delete(id int) error {
	delete(stub.tasks, id)
	return nil
}

func focusTask(id int, mode model.Mode, duration, breakDuration int) model.FocusTask {
	return model.FocusTask{
		ID:            id,
		Title:         "task",
		Mode:          mode,
		Duration:      duration,
		BreakDuration: breakDuration,
	}
}

// quiet keeps the background ticker from interfering with manual ticks.
func quiet(clock *fakeClock) Config {
	return Config{TickInterval: time.Hour, Now: clock.Now}
}

func TestCountdownJitterInvariance(t *testing.T) {
	jittered := []time.Duration{
		137 * time.Millisecond,
		42 * time.Second,
		1 * time.Millisecond,
		199 * time.Second,
		18*time.Second + 863*time.Millisecond,
	}
	var total time.Duration
	for _, step := range jittered {
		total += step
	}

	clockA := newFakeClock()
	engineA := New(nil, quiet(clockA), nil)
	defer engineA.Stop()
	engineA.Toggle()
	for _, step := range jittered {
		clockA.Advance(step)
		engineA.tick(clockA.Now())
	}

	clockB := newFakeClock()
	engineB := New(nil, quiet(clockB), nil)
	defer engineB.Stop()
	engineB.Toggle()
	clockB.Advance(total)
	engineB.tick(clockB.Now())

	assert.Equal(t, engineB.State().TimeLeft, engineA.State().TimeLeft,
		"remaining time must depend only on cumulative wall-clock time")
}

func TestCountdownEntersOvertime(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(1, model.ModeTimer, 25, 5))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(1)
	require.Equal(t, 1500, eng.State().TimerDuration)

	clock.Advance(1500 * time.Second)
	eng.tick(clock.Now())

	state := eng.State()
	assert.True(t, state.IsOvertime)
	assert.Equal(t, 0, state.TimeLeft)
	assert.Equal(t, 0, state.OvertimeSeconds)
	assert.True(t, state.IsRunning)

	clock.Advance(37 * time.Second)
	eng.tick(clock.Now())
	assert.Equal(t, 37, eng.State().OvertimeSeconds)
}

func TestOvertimeExitsOnlyByUserAction(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(1, model.ModeTimer, 1, 5))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(1)
	clock.Advance(10 * time.Minute)
	eng.tick(clock.Now())
	require.True(t, eng.State().IsOvertime)

	// Ticks alone never leave overtime.
	clock.Advance(time.Hour)
	eng.tick(clock.Now())
	assert.True(t, eng.State().IsOvertime)

	eng.ResetTimer()
	state := eng.State()
	assert.False(t, state.IsOvertime)
	assert.Equal(t, 0, state.OvertimeSeconds)
	assert.Equal(t, 60, state.TimeLeft)
	assert.False(t, state.IsRunning)
}

func TestStartFocusIdempotent(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(1, model.ModeTimer, 25, 5))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(1)
	clock.Advance(100 * time.Second)
	eng.tick(clock.Now())
	require.Equal(t, 1400, eng.State().TimeLeft)

	// Re-requesting the active task only switches the view, never restarts.
	eng.StartFocus(1)
	assert.Equal(t, 1400, eng.State().TimeLeft)

	clock.Advance(50 * time.Second)
	eng.tick(clock.Now())
	assert.Equal(t, 1350, eng.State().TimeLeft)
}

func TestStartBreakUsesTaskBreakLength(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(1, model.ModeTimer, 25, 5))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(1)
	eng.StartBreak()

	state := eng.State()
	assert.Equal(t, model.ModeBreak, state.Mode)
	assert.Equal(t, 300, state.TimerDuration)
	assert.Equal(t, 300, state.TimeLeft)
	assert.True(t, state.IsRunning)
}

func TestBreakExpiryRestoresTaskMode(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(7, model.ModeStopwatch, 30, 2))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(7)
	eng.StartBreak()
	clock.Advance(121 * time.Second)
	eng.tick(clock.Now())

	state := eng.State()
	assert.Equal(t, model.ModeStopwatch, state.Mode)
	assert.True(t, state.IsRunning, "break expiry auto-starts the task session")
	assert.Equal(t, 0, state.TimeElapsed)

	clock.Advance(9 * time.Second)
	eng.tick(clock.Now())
	assert.Equal(t, 9, eng.State().TimeElapsed)
}

func TestEndBreakWithoutTaskRestoresDefault(t *testing.T) {
	clock := newFakeClock()
	eng := New(newTaskSourceStub(), quiet(clock), nil)
	defer eng.Stop()

	eng.StartBreak()
	require.Equal(t, model.ModeBreak, eng.State().Mode)

	eng.EndBreak()
	state := eng.State()
	assert.Equal(t, model.ModeTimer, state.Mode)
	assert.Equal(t, 1500, state.TimerDuration)
	assert.True(t, state.IsRunning)
}

func TestPauseRetainsBaselineAcrossGaps(t *testing.T) {
	clock := newFakeClock()
	eng := New(nil, quiet(clock), nil)
	defer eng.Stop()

	eng.Toggle()
	clock.Advance(10 * time.Second)
	eng.tick(clock.Now())
	eng.Toggle() // pause
	require.False(t, eng.State().IsRunning)

	// A long idle gap while paused must not consume countdown time.
	clock.Advance(1000 * time.Second)
	eng.Toggle() // resume
	clock.Advance(5 * time.Second)
	eng.tick(clock.Now())

	assert.Equal(t, 1485, eng.State().TimeLeft)
}

func TestCompleteAdvancesToNextIncomplete(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(
		focusTask(1, model.ModeTimer, 25, 5),
		focusTask(2, model.ModeTimer, 10, 3),
	)
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(1)
	eng.CompleteCurrentTask()

	state := eng.State()
	assert.Equal(t, 2, state.TaskID)
	assert.Equal(t, 600, state.TimerDuration)
	assert.True(t, state.IsRunning)

	done, ok := tasks.Get(1)
	require.True(t, ok)
	assert.True(t, done.IsCompleted)

	eng.CompleteCurrentTask()
	state = eng.State()
	assert.Equal(t, 0, state.TaskID)
	assert.Equal(t, model.ModeTimer, state.Mode)
	assert.Equal(t, 1500, state.TimerDuration)
	assert.False(t, state.IsRunning)
}

func TestDeleteActiveTaskResetsToDefault(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(3, model.ModeTimer, 50, 10))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(3)
	clock.Advance(time.Minute)
	eng.tick(clock.Now())

	eng.DeleteTask(3)
	state := eng.State()
	assert.Equal(t, 0, state.TaskID)
	assert.Equal(t, model.ModeTimer, state.Mode)
	assert.Equal(t, 1500, state.TimerDuration)
	assert.Equal(t, 1500, state.TimeLeft)
	assert.False(t, state.IsRunning)

	_, ok := tasks.Get(3)
	assert.False(t, ok)
}

func TestSwitchModeGuards(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(1, model.ModeTimer, 25, 5))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	// Free session: switching is allowed.
	eng.SwitchMode(model.ModeStopwatch)
	assert.Equal(t, model.ModeStopwatch, eng.State().Mode)
	eng.SwitchMode(model.ModeTimer)
	assert.Equal(t, model.ModeTimer, eng.State().Mode)

	// Bound task: ignored.
	eng.StartFocus(1)
	eng.SwitchMode(model.ModeStopwatch)
	assert.Equal(t, model.ModeTimer, eng.State().Mode)

	// Break: ignored.
	eng.StartBreak()
	eng.SwitchMode(model.ModeStopwatch)
	assert.Equal(t, model.ModeBreak, eng.State().Mode)
}

func TestStopwatchElapsedFloors(t *testing.T) {
	clock := newFakeClock()
	eng := New(nil, quiet(clock), nil)
	defer eng.Stop()

	eng.SwitchMode(model.ModeStopwatch)
	eng.Toggle()

	clock.Advance(2500 * time.Millisecond)
	eng.tick(clock.Now())
	assert.Equal(t, 2, eng.State().TimeElapsed)

	clock.Advance(500 * time.Millisecond)
	eng.tick(clock.Now())
	assert.Equal(t, 3, eng.State().TimeElapsed)
}

func TestRefreshActiveTaskRestartsSession(t *testing.T) {
	clock := newFakeClock()
	tasks := newTaskSourceStub(focusTask(1, model.ModeTimer, 25, 5))
	eng := New(tasks, quiet(clock), nil)
	defer eng.Stop()

	eng.StartFocus(1)
	clock.Advance(200 * time.Second)
	eng.tick(clock.Now())
	require.Equal(t, 1300, eng.State().TimeLeft)

	edited := focusTask(1, model.ModeTimer, 40, 5)
	tasks.tasks[1] = edited
	eng.RefreshActiveTask(edited)

	state := eng.State()
	assert.Equal(t, 2400, state.TimerDuration)
	assert.Equal(t, 2400, state.TimeLeft)
	assert.True(t, state.IsRunning)
}

func TestListenersSeeEveryMutation(t *testing.T) {
	clock := newFakeClock()
	eng := New(nil, quiet(clock), nil)
	defer eng.Stop()

	var seen []State
	eng.AddListener(func(state State) {
		seen = append(seen, state)
	})

	eng.Toggle()
	clock.Advance(time.Second)
	eng.tick(clock.Now())
	eng.Toggle()

	require.Len(t, seen, 3)
	assert.True(t, seen[0].IsRunning)
	assert.Equal(t, 1499, seen[1].TimeLeft)
	assert.False(t, seen[2].IsRunning)
}

func TestSubSecondTicksStayQuiet(t *testing.T) {
	clock := newFakeClock()
	eng := New(nil, quiet(clock), nil)
	defer eng.Stop()

	notifications := 0
	eng.AddListener(func(State) {
		notifications++
	})

	eng.Toggle()
	require.Equal(t, 1, notifications)

	// Five ticks inside the same displayed second: nothing visible changes,
	// so nothing is published downstream.
	for i := 0; i < 5; i++ {
		clock.Advance(150 * time.Millisecond)
		eng.tick(clock.Now())
	}
	assert.Equal(t, 1, notifications, "unchanged ticks must not notify")

	clock.Advance(300 * time.Millisecond)
	eng.tick(clock.Now())
	assert.Equal(t, 2, notifications)
	assert.Equal(t, 1499, eng.State().TimeLeft)
}
