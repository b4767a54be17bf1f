package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/core/model"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	channel := NewInProc()
	err := channel.Publish(EventState, []byte(`{}`))
	assert.ErrorIs(t, err, ErrNoSubscribers)
}

func TestConduitRoundTrip(t *testing.T) {
	conduit := NewConduit(NewInProc(), nil)

	var gotState model.RuntimeSnapshot
	conduit.OnState(func(snap model.RuntimeSnapshot) {
		gotState = snap
	})
	var gotActions []model.Action
	conduit.OnAction(func(action model.Action) {
		gotActions = append(gotActions, action)
	})

	require.NoError(t, conduit.SendState(model.RuntimeSnapshot{TimeText: "12:34", StatusText: "Focus"}))
	assert.Equal(t, "12:34", gotState.TimeText)

	require.NoError(t, conduit.SendAction(model.ActionStartBreak))
	require.NoError(t, conduit.SendAction(model.ActionToggleTimer))
	assert.Equal(t, []model.Action{model.ActionStartBreak, model.ActionToggleTimer}, gotActions)
}

func TestChannelsFailIndependently(t *testing.T) {
	conduit := NewConduit(NewInProc(), nil)

	delivered := 0
	conduit.OnAction(func(model.Action) {
		delivered++
	})

	// State has no subscriber, actions still flow.
	assert.Error(t, conduit.SendState(model.RuntimeSnapshot{}))
	require.NoError(t, conduit.SendAction(model.ActionCompleteTask))
	assert.Equal(t, 1, delivered)
}

func TestMalformedAndUnknownPayloadsIgnored(t *testing.T) {
	channel := NewInProc()
	conduit := NewConduit(channel, nil)

	calls := 0
	conduit.OnAction(func(model.Action) {
		calls++
	})

	require.NoError(t, channel.Publish(EventAction, []byte(`not json`)))
	require.NoError(t, channel.Publish(EventAction, []byte(`{"action":"selfDestruct"}`)))
	require.NoError(t, channel.Publish(EventAction, []byte(`{"action":"resetTimer"}`)))
	assert.Equal(t, 1, calls)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	conduit := NewConduit(NewInProc(), nil)

	calls := 0
	unsubscribe := conduit.OnAction(func(model.Action) {
		calls++
	})
	require.NoError(t, conduit.SendAction(model.ActionResetTimer))
	unsubscribe()
	unsubscribe() // second call is a no-op

	err := conduit.SendAction(model.ActionResetTimer)
	assert.ErrorIs(t, err, ErrNoSubscribers)
	assert.Equal(t, 1, calls)
}
