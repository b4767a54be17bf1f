// Package bus carries messages between the controller and the companion
// window. Two logical channels share one transport: "state" snapshots travel
// controller to companion, "action" commands travel the other way. Each
// channel can fail independently; delivery is best effort and losses are
// tolerated via the persisted-snapshot fallback.
package bus

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/hashicorp/go-hclog"

	"focusdeck/internal/core/model"
)

// Channel event names.
const (
	EventState  = "state"
	EventAction = "action"
)

// ErrNoSubscribers indicates nobody is listening on the event, typically
// because the companion window has not been created yet.
var ErrNoSubscribers = errors.New("bus: no subscribers")

// Unsubscribe removes a registration. Safe to call more than once.
type Unsubscribe func()

// Channel is the named-event publish/subscribe collaborator.
type Channel interface {
	Publish(event string, payload []byte) error
	Subscribe(event string, handler func(payload []byte)) Unsubscribe
}

type subscription struct {
	event   string
	handler func([]byte)
}

// InProc is the in-process Channel implementation used when both windows run
// inside one process. Dispatch is synchronous, in registration order.
type InProc struct {
	mu   sync.Mutex
	subs map[string][]*subscription
}

// NewInProc returns an empty in-process channel.
func NewInProc() *InProc {
	return &InProc{subs: make(map[string][]*subscription)}
}

// Publish implements Channel.
func (channel *InProc) Publish(event string, payload []byte) error {
	channel.mu.Lock()
	handlers := append([]*subscription(nil), channel.subs[event]...)
	channel.mu.Unlock()

	if len(handlers) == 0 {
		return ErrNoSubscribers
	}
	for _, sub := range handlers {
		sub.handler(payload)
	}
	return nil
}

// Subscribe implements Channel.
func (channel *InProc) Subscribe(event string, handler func(payload []byte)) Unsubscribe {
	sub := &subscription{event: event, handler: handler}
	channel.mu.Lock()
	channel.subs[event] = append(channel.subs[event], sub)
	channel.mu.Unlock()

	return func() {
		channel.mu.Lock()
		defer channel.mu.Unlock()
		remaining := channel.subs[sub.event][:0]
		for _, existing := range channel.subs[sub.event] {
			if existing != sub {
				remaining = append(remaining, existing)
			}
		}
		channel.subs[sub.event] = remaining
	}
}

type actionEnvelope struct {
	Action string `json:"action"`
}

// Conduit is the typed endpoint pair over a Channel. Malformed payloads and
// unknown action tags are ignored, never surfaced.
type Conduit struct {
	channel Channel
	log     hclog.Logger
}

// NewConduit wraps a channel with typed state/action endpoints.
func NewConduit(channel Channel, log hclog.Logger) *Conduit {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Conduit{channel: channel, log: log}
}

// SendState pushes a snapshot toward the companion window.
func (conduit *Conduit) SendState(snap model.RuntimeSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return conduit.channel.Publish(EventState, payload)
}

// OnState registers a snapshot handler on the companion side.
func (conduit *Conduit) OnState(handler func(model.RuntimeSnapshot)) Unsubscribe {
	return conduit.channel.Subscribe(EventState, func(payload []byte) {
		var snap model.RuntimeSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			conduit.log.Debug("drop malformed state payload", "error", err)
			return
		}
		handler(snap)
	})
}

// SendAction relays a user command back to the controller.
func (conduit *Conduit) SendAction(action model.Action) error {
	payload, err := json.Marshal(actionEnvelope{Action: string(action)})
	if err != nil {
		return err
	}
	return conduit.channel.Publish(EventAction, payload)
}

// OnAction registers an action handler on the controller side.
func (conduit *Conduit) OnAction(handler func(model.Action)) Unsubscribe {
	return conduit.channel.Subscribe(EventAction, func(payload []byte) {
		var envelope actionEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			conduit.log.Debug("drop malformed action payload", "error", err)
			return
		}
		action, ok := model.ParseAction(envelope.Action)
		if !ok {
			conduit.log.Debug("drop unknown action", "tag", envelope.Action)
			return
		}
		handler(action)
	})
}
