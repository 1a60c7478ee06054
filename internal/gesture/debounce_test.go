package gesture

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestDebounce_FirstModeLabelFires(t *testing.T) {
	s, fired := Debounce(DebounceState{}, Emergency, t0, DefaultCooldown)

	if !fired {
		t.Fatal("expected first mode label to fire")
	}
	if s.Last != Emergency || !s.FiredAt.Equal(t0) {
		t.Errorf("expected state {emergency %v}, got %+v", t0, s)
	}
}

func TestDebounce_IgnoresNonModeLabels(t *testing.T) {
	start := DebounceState{Last: Blink, FiredAt: t0}

	for _, l := range []Label{None, RedUp, RedDown, YellowUp, YellowDown, GreenUp, GreenDown} {
		s, fired := Debounce(start, l, t0.Add(time.Hour), DefaultCooldown)
		if fired {
			t.Errorf("%s: expected no fire", l)
		}
		if s != start {
			t.Errorf("%s: expected state unchanged, got %+v", l, s)
		}
	}
}

func TestDebounce_SameLabelNeverRefires(t *testing.T) {
	s := DebounceState{}
	fires := 0

	// 60 frames per second for 5 seconds of the same pose.
	for i := 0; i < 300; i++ {
		now := t0.Add(time.Duration(i) * time.Second / 60)
		var fired bool
		s, fired = Debounce(s, Emergency, now, DefaultCooldown)
		if fired {
			fires++
		}
	}

	if fires != 1 {
		t.Errorf("expected exactly 1 fire, got %d", fires)
	}
}

func TestDebounce_CooldownBoundary(t *testing.T) {
	start := DebounceState{Last: Blink, FiredAt: t0}

	t.Run("change at exactly cooldown is accepted", func(t *testing.T) {
		_, fired := Debounce(start, Normal, t0.Add(DefaultCooldown), DefaultCooldown)
		if !fired {
			t.Error("expected fire at exactly the cooldown")
		}
	})

	t.Run("change just before cooldown is suppressed", func(t *testing.T) {
		s, fired := Debounce(start, Normal, t0.Add(DefaultCooldown-time.Nanosecond), DefaultCooldown)
		if fired {
			t.Error("expected suppression before the cooldown")
		}
		if s != start {
			t.Errorf("expected state unchanged, got %+v", s)
		}
	})
}

func TestDebounce_HandLossKeepsMemory(t *testing.T) {
	s, fired := Debounce(DebounceState{}, Blink, t0, DefaultCooldown)
	if !fired {
		t.Fatal("expected blink to fire")
	}

	for i := 1; i <= 5; i++ {
		s, fired = Debounce(s, None, t0.Add(time.Duration(i)*16*time.Millisecond), DefaultCooldown)
		if fired {
			t.Fatalf("tick %d: None must not fire", i)
		}
	}
	if s.Last != Blink {
		t.Fatalf("expected last label blink after hand loss, got %s", s.Last)
	}

	_, fired = Debounce(s, Blink, t0.Add(200*time.Millisecond), DefaultCooldown)
	if fired {
		t.Error("expected reappearing blink to stay suppressed")
	}
}

func TestDebounce_AtMostOnePerWindow(t *testing.T) {
	seq := []Label{Emergency, Emergency, Blink, Emergency, Normal, OnOff, Blink, Blink}
	s := DebounceState{}
	var fireTimes []time.Time

	for i, l := range seq {
		now := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		var fired bool
		s, fired = Debounce(s, l, now, DefaultCooldown)
		if fired {
			fireTimes = append(fireTimes, now)
		}
	}

	for i := 1; i < len(fireTimes); i++ {
		if fireTimes[i].Sub(fireTimes[i-1]) < DefaultCooldown {
			t.Errorf("fires %d and %d are %v apart, less than the cooldown", i-1, i, fireTimes[i].Sub(fireTimes[i-1]))
		}
	}
	if len(fireTimes) != 2 {
		t.Errorf("expected 2 fires, got %d", len(fireTimes))
	}
}

func TestDebounce_TimestampMonotonic(t *testing.T) {
	s := DebounceState{Last: Blink, FiredAt: t0}

	next, fired := Debounce(s, Normal, t0.Add(-time.Second), DefaultCooldown)
	if fired || next.FiredAt.Before(s.FiredAt) {
		t.Errorf("expected no fire for a time before the last firing, got %+v", next)
	}
}
