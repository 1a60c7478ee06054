package controller

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signalhand/internal/gesture"
	"github.com/ayusman/signalhand/internal/protocol"
	"github.com/ayusman/signalhand/internal/timing"
)

// EventKind classifies controller events.
type EventKind string

const (
	// EventTiming is emitted after a duration was set, by slider or gesture.
	EventTiming EventKind = "timing"
	// EventGesture is emitted when a mode gesture fires.
	EventGesture EventKind = "gesture"
	// EventStatus is emitted for every status line that changed at least one field.
	EventStatus EventKind = "status"
)

// Event describes something the control loop did.
type Event struct {
	ID       string
	Kind     EventKind
	At       time.Time
	Label    gesture.Label
	Channel  timing.Channel
	Value    int
	Source   string // "gesture", "slider" or "startup" for timing events
	Commands []string
	Line     string
	Timing   timing.Params
	Device   protocol.DeviceState
}

// Subscriber receives events on the control loop goroutine. It must return quickly.
type Subscriber func(Event)

func newEvent(kind EventKind, at time.Time) Event {
	return Event{
		ID:   uuid.New().String(),
		Kind: kind,
		At:   at,
	}
}
