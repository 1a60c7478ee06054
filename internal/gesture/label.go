package gesture

import (
	"fmt"

	"github.com/ayusman/signalhand/internal/timing"
)

// Label is the discrete classification of one frame.
type Label string

const (
	None       Label = ""
	RedUp      Label = "redUp"
	RedDown    Label = "redDown"
	YellowUp   Label = "yellowUp"
	YellowDown Label = "yellowDown"
	GreenUp    Label = "greenUp"
	GreenDown  Label = "greenDown"
	Emergency  Label = "emergency"
	Normal     Label = "normal"
	Blink      Label = "blink"
	OnOff      Label = "onoff"
)

// Labels lists every label except None.
var Labels = []Label{
	RedUp, RedDown, YellowUp, YellowDown, GreenUp, GreenDown,
	Emergency, Normal, Blink, OnOff,
}

// ParseLabel parses a label name.
func ParseLabel(s string) (Label, error) {
	if s == "" || s == "none" {
		return None, nil
	}
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return None, fmt.Errorf("unknown gesture label %q", s)
}

// String returns the label name, "none" for None.
func (l Label) String() string {
	if l == None {
		return "none"
	}
	return string(l)
}

// IsMode reports whether the label switches the controller mode.
// Mode labels are debounced; adjust labels are not.
func (l Label) IsMode() bool {
	switch l {
	case Emergency, Normal, Blink, OnOff:
		return true
	}
	return false
}

// IsAdjust reports whether the label changes a phase duration.
func (l Label) IsAdjust() bool {
	_, ok := adjustChannel[l]
	return ok
}

// Channel returns the timing channel an adjust label acts on.
func (l Label) Channel() (timing.Channel, bool) {
	ch, ok := adjustChannel[l]
	return ch, ok
}

var adjustChannel = map[Label]timing.Channel{
	RedUp:      timing.Red,
	RedDown:    timing.Red,
	YellowUp:   timing.Yellow,
	YellowDown: timing.Yellow,
	GreenUp:    timing.Green,
	GreenDown:  timing.Green,
}

// Adjust is an immediate change to one phase duration.
type Adjust struct {
	Channel timing.Channel
	Delta   int
}

// Resolution is the outcome of resolving one frame.
type Resolution struct {
	Label  Label
	Adjust *Adjust
}
