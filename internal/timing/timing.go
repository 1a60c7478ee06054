// Package timing holds the three phase durations of the traffic light.
package timing

import (
	"fmt"
	"strings"
)

// Duration bounds and defaults in milliseconds.
const (
	MinDuration = 100
	MaxDuration = 5000

	DefaultRed    = 2000
	DefaultYellow = 500
	DefaultGreen  = 2000
)

// Channel names one light phase.
type Channel string

const (
	Red    Channel = "red"
	Yellow Channel = "yellow"
	Green  Channel = "green"
)

// Channels lists the phases in display order.
var Channels = []Channel{Red, Yellow, Green}

// ParseChannel parses a channel name, case-insensitively.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case Red:
		return Red, nil
	case Yellow:
		return Yellow, nil
	case Green:
		return Green, nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Params is a copy of the three durations.
type Params struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

// Defaults returns the power-on durations.
func Defaults() Params {
	return Params{Red: DefaultRed, Yellow: DefaultYellow, Green: DefaultGreen}
}

// Get returns the duration of a channel, or 0 for an unknown channel.
func (p Params) Get(ch Channel) int {
	switch ch {
	case Red:
		return p.Red
	case Yellow:
		return p.Yellow
	case Green:
		return p.Green
	}
	return 0
}

// Clamp limits v to [MinDuration, MaxDuration].
func Clamp(v int) int {
	if v < MinDuration {
		return MinDuration
	}
	if v > MaxDuration {
		return MaxDuration
	}
	return v
}

// Store holds the current durations. Every value it stores is clamped.
// A Store is not safe for concurrent use; it belongs to the control loop.
type Store struct {
	params Params
}

// NewStore creates a store seeded with p, clamping each value.
func NewStore(p Params) *Store {
	return &Store{params: Params{
		Red:    Clamp(p.Red),
		Yellow: Clamp(p.Yellow),
		Green:  Clamp(p.Green),
	}}
}

// Set stores v for the channel after clamping and returns the stored value.
// Unknown channels are ignored and return 0.
func (s *Store) Set(ch Channel, v int) int {
	v = Clamp(v)
	switch ch {
	case Red:
		s.params.Red = v
	case Yellow:
		s.params.Yellow = v
	case Green:
		s.params.Green = v
	default:
		return 0
	}
	return v
}

// Adjust adds delta to the channel and returns the clamped result.
func (s *Store) Adjust(ch Channel, delta int) int {
	return s.Set(ch, s.params.Get(ch)+delta)
}

// Get returns the current duration of a channel.
func (s *Store) Get(ch Channel) int {
	return s.params.Get(ch)
}

// Params returns a copy of all durations.
func (s *Store) Params() Params {
	return s.params
}
