package gesture

import (
	"testing"

	"github.com/ayusman/signalhand/internal/timing"
)

func TestLabel_Kinds(t *testing.T) {
	for _, l := range Labels {
		if l.IsMode() == l.IsAdjust() {
			t.Errorf("%s must be exactly one of mode or adjust", l)
		}
	}
	if None.IsMode() || None.IsAdjust() {
		t.Error("None is neither mode nor adjust")
	}
}

func TestLabel_Channel(t *testing.T) {
	if ch, ok := YellowDown.Channel(); !ok || ch != timing.Yellow {
		t.Errorf("expected yellow, got %q %v", ch, ok)
	}
	if _, ok := Blink.Channel(); ok {
		t.Error("mode labels have no channel")
	}
}

func TestParseLabel(t *testing.T) {
	for _, l := range Labels {
		got, err := ParseLabel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLabel(%q) = %q, %v", l.String(), got, err)
		}
	}
	if got, err := ParseLabel("none"); err != nil || got != None {
		t.Errorf("expected None, got %q %v", got, err)
	}
	if _, err := ParseLabel("wave"); err == nil {
		t.Error("expected error for unknown label")
	}
}
