package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/bus"
	"focusdeck/internal/core/engine"
	"focusdeck/internal/core/model"
	"focusdeck/internal/storage"
)

type titleStub map[int]string

func (stub titleStub) Get(id int) (model.FocusTask, bool) {
	title, ok := stub[id]
	return model.FocusTask{ID: id, Title: title}, ok
}

type failingSink struct{}

func (failingSink) SendState(model.RuntimeSnapshot) error {
	return errors.New("channel not ready")
}

type failingStore struct{}

func (failingStore) Get(string, any) error { return errors.New("disk gone") }
func (failingStore) Set(string, any) error { return errors.New("disk gone") }

func TestDeriveCountdown(t *testing.T) {
	state := engine.State{
		Mode:          model.ModeTimer,
		IsRunning:     true,
		TimeLeft:      754,
		TimerDuration: 1500,
		TaskID:        3,
	}
	snap := Derive(state, titleStub{3: "Write report"})

	assert.Equal(t, "12:34", snap.TimeText)
	assert.Equal(t, "Focus", snap.StatusText)
	assert.Equal(t, model.ThemeFocus, snap.Theme)
	assert.InDelta(t, 49.73, snap.Progress, 0.01)
	assert.Equal(t, "Write report", snap.TaskTitle)
	assert.True(t, snap.HasActiveTask)
}

func TestDeriveOvertime(t *testing.T) {
	state := engine.State{
		Mode:            model.ModeTimer,
		IsRunning:       true,
		IsOvertime:      true,
		OvertimeSeconds: 61,
		TimerDuration:   1500,
	}
	snap := Derive(state, nil)

	assert.Equal(t, "+01:01", snap.TimeText)
	assert.Equal(t, "Overtime", snap.StatusText)
	assert.Equal(t, model.ThemeOvertime, snap.Theme)
	assert.Equal(t, float64(100), snap.Progress)
	assert.False(t, snap.HasActiveTask)
}

func TestDeriveStopwatchAndPaused(t *testing.T) {
	running := engine.State{Mode: model.ModeStopwatch, IsRunning: true, TimeElapsed: 3725}
	snap := Derive(running, nil)
	assert.Equal(t, "62:05", snap.TimeText)
	assert.Equal(t, "Stopwatch", snap.StatusText)
	assert.Equal(t, float64(0), snap.Progress)

	paused := engine.State{Mode: model.ModeTimer, TimeLeft: 1500, TimerDuration: 1500}
	assert.Equal(t, "Paused", Derive(paused, nil).StatusText)
}

func TestPublishWritesFallbackAndChannel(t *testing.T) {
	kv := storage.NewMemoryStore()
	conduit := bus.NewConduit(bus.NewInProc(), nil)

	var live model.RuntimeSnapshot
	conduit.OnState(func(snap model.RuntimeSnapshot) {
		live = snap
	})

	publisher := NewPublisher(kv, conduit, titleStub{1: "Task"}, nil)
	publisher.Publish(engine.State{Mode: model.ModeBreak, IsRunning: true, TimeLeft: 300, TimerDuration: 300, TaskID: 1})

	assert.Equal(t, "05:00", live.TimeText)
	assert.Equal(t, model.ThemeBreak, live.Theme)

	var persisted model.RuntimeSnapshot
	require.NoError(t, kv.Get(StorageKey, &persisted))
	assert.Equal(t, live, persisted)
}

func TestSinkFailuresAreIndependent(t *testing.T) {
	// Dead channel: persisted copy still written.
	kv := storage.NewMemoryStore()
	publisher := NewPublisher(kv, failingSink{}, nil, nil)
	publisher.Publish(engine.State{Mode: model.ModeTimer, TimeLeft: 60, TimerDuration: 60})

	var persisted model.RuntimeSnapshot
	require.NoError(t, kv.Get(StorageKey, &persisted))
	assert.Equal(t, "01:00", persisted.TimeText)

	// Dead storage: live channel still delivers.
	conduit := bus.NewConduit(bus.NewInProc(), nil)
	delivered := false
	conduit.OnState(func(model.RuntimeSnapshot) {
		delivered = true
	})
	publisher = NewPublisher(failingStore{}, conduit, nil, nil)
	publisher.Publish(engine.State{Mode: model.ModeTimer, TimeLeft: 60, TimerDuration: 60})
	assert.True(t, delivered)
}

func TestRoundTripRendersIdentically(t *testing.T) {
	kv := storage.NewMemoryStore()
	publisher := NewPublisher(kv, nil, titleStub{2: "Deep work"}, nil)

	state := engine.State{
		Mode:          model.ModeTimer,
		IsRunning:     true,
		TimeLeft:      901,
		TimerDuration: 1500,
		TaskID:        2,
	}
	publisher.Publish(state)

	// A freshly constructed companion-side publisher reads the same display.
	companion := NewPublisher(kv, nil, nil, nil)
	loaded := companion.Load()
	original := Derive(state, titleStub{2: "Deep work"})

	assert.Equal(t, original.TimeText, loaded.TimeText)
	assert.Equal(t, original.StatusText, loaded.StatusText)
	assert.Equal(t, original.Progress, loaded.Progress)
	assert.Equal(t, original, loaded)
}

func TestLoadFallsBackToDefault(t *testing.T) {
	publisher := NewPublisher(storage.NewMemoryStore(), nil, nil, nil)
	snap := publisher.Load()
	assert.Equal(t, "25:00", snap.TimeText)
	assert.Equal(t, "Paused", snap.StatusText)

	corrupt := storage.NewMemoryStore()
	require.NoError(t, corrupt.Set(StorageKey, []int{1, 2, 3}))
	publisher = NewPublisher(corrupt, nil, nil, nil)
	assert.Equal(t, Default(), publisher.Load())
}
