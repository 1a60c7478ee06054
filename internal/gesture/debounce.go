package gesture

import "time"

// DefaultCooldown is the minimum time between two mode gesture firings.
const DefaultCooldown = 700 * time.Millisecond

// DebounceState remembers the last fired mode label and when it fired.
// The zero value is the startup state.
type DebounceState struct {
	Last    Label
	FiredAt time.Time
}

// Debounce is the transition function for mode labels. It returns the next
// state and whether label fires.
//
// A label fires when it is a mode label, differs from the last fired label,
// and at least cooldown has elapsed since the last firing. Any other input,
// None included, leaves the state unchanged, so a hand that disappears
// briefly does not reset the memory.
func Debounce(s DebounceState, label Label, now time.Time, cooldown time.Duration) (DebounceState, bool) {
	if !label.IsMode() || label == s.Last {
		return s, false
	}
	if !s.FiredAt.IsZero() && now.Sub(s.FiredAt) < cooldown {
		return s, false
	}
	return DebounceState{Last: label, FiredAt: now}, true
}
