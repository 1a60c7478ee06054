package protocol

import (
	"errors"
	"testing"

	"github.com/ayusman/signalhand/internal/timing"
)

func TestCommand_Encode(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Duration(timing.Red, 3200), "cmd:redTime=3200;\n"},
		{Duration(timing.Yellow, 500), "cmd:yellowTime=500;\n"},
		{Duration(timing.Green, 100), "cmd:greenTime=100;\n"},
		{Apply(timing.Green), "cmd:apply=green;\n"},
		{Press(ButtonEmergency), "cmd:button=1;\n"},
		{Press(ButtonBlink), "cmd:button=2;\n"},
		{Press(ButtonOnOff), "cmd:button=3;\n"},
	}

	for _, tt := range tests {
		if got := tt.cmd.Encode(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestParseCommand(t *testing.T) {
	t.Run("valid lines", func(t *testing.T) {
		for _, line := range []string{"cmd:redTime=3200;\n", "  cmd:apply=yellow;", "cmd:button=3;"} {
			if _, err := ParseCommand(line); err != nil {
				t.Errorf("ParseCommand(%q) unexpected error: %v", line, err)
			}
		}
	})

	t.Run("malformed lines", func(t *testing.T) {
		lines := []string{
			"",
			"redTime=3200;",
			"cmd:redTime=3200",
			"cmd:redTime;",
			"cmd:=5;",
			"cmd:redTime=fast;",
			"cmd:apply=blue;",
			"cmd:button=4;",
			"cmd:volume=3;",
		}
		for _, line := range lines {
			_, err := ParseCommand(line)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("ParseCommand(%q): expected ErrMalformed, got %v", line, err)
			}
		}
	})
}

func TestCommand_RoundTrip(t *testing.T) {
	store := timing.NewStore(timing.Defaults())
	value := store.Set(timing.Red, 3200)
	wire := Duration(timing.Red, value).Encode()

	cmd, err := ParseCommand(wire)
	if err != nil {
		t.Fatalf("ParseCommand(%q) error = %v", wire, err)
	}
	ch, v, ok := cmd.DurationChannel()
	if !ok {
		t.Fatalf("expected a duration command, got %+v", cmd)
	}

	fresh := timing.NewStore(timing.Defaults())
	fresh.Set(ch, v)
	if fresh.Get(timing.Red) != 3200 {
		t.Errorf("expected red 3200 after round trip, got %d", fresh.Get(timing.Red))
	}
}

func TestDecodeStatus(t *testing.T) {
	t.Run("partial line keeps other fields", func(t *testing.T) {
		d := DefaultDeviceState()
		d.Yellow = 1

		n := DecodeStatus("mode: normal, red:1, brightness: 80", &d)

		want := DeviceState{Mode: "normal", Brightness: 80, Red: 1, Yellow: 1, Green: 0}
		if d != want {
			t.Errorf("expected %+v, got %+v", want, d)
		}
		if n != 3 {
			t.Errorf("expected 3 fields applied, got %d", n)
		}
	})

	t.Run("full line", func(t *testing.T) {
		d := DefaultDeviceState()
		DecodeStatus("mode:blink,brightness:12,red:0,yellow:1,green:1", &d)

		want := DeviceState{Mode: "blink", Brightness: 12, Yellow: 1, Green: 1}
		if d != want {
			t.Errorf("expected %+v, got %+v", want, d)
		}
	})

	t.Run("ignores unknown keys and malformed pairs", func(t *testing.T) {
		d := DefaultDeviceState()
		n := DecodeStatus("temp:31, garbage, green:1, brightness:high, red:7, mode:", &d)

		if n != 1 {
			t.Errorf("expected 1 field applied, got %d", n)
		}
		want := DeviceState{Mode: "unknown", Green: 1}
		if d != want {
			t.Errorf("expected %+v, got %+v", want, d)
		}
	})

	t.Run("empty line changes nothing", func(t *testing.T) {
		d := DefaultDeviceState()
		if n := DecodeStatus("", &d); n != 0 {
			t.Errorf("expected 0 fields, got %d", n)
		}
		if d != DefaultDeviceState() {
			t.Errorf("expected default state, got %+v", d)
		}
	})

	t.Run("encode then decode", func(t *testing.T) {
		src := DeviceState{Mode: "normal", Brightness: 55, Red: 1}
		var got DeviceState
		DecodeStatus(EncodeStatus(src), &got)
		if got != src {
			t.Errorf("expected %+v, got %+v", src, got)
		}
	})
}

func TestDeviceState_LEDOn(t *testing.T) {
	d := DeviceState{Red: 1}
	if !d.LEDOn(timing.Red) || d.LEDOn(timing.Yellow) || d.LEDOn(timing.Green) {
		t.Errorf("unexpected LED state for %+v", d)
	}
}

type queue struct {
	lines []string
}

func (q *queue) Available() int { return len(q.lines) }

func (q *queue) ReadLine() (string, bool) {
	if len(q.lines) == 0 {
		return "", false
	}
	line := q.lines[0]
	q.lines = q.lines[1:]
	return line, true
}

func TestDrain(t *testing.T) {
	t.Run("bounded per call", func(t *testing.T) {
		q := &queue{}
		for i := 0; i < 25; i++ {
			q.lines = append(q.lines, "red:1")
		}

		var seen int
		n := Drain(q, MaxLinesPerTick, func(string) { seen++ })

		if n != 10 || seen != 10 {
			t.Errorf("expected 10 lines, got n=%d seen=%d", n, seen)
		}
		if q.Available() != 15 {
			t.Errorf("expected 15 lines left queued, got %d", q.Available())
		}
	})

	t.Run("skips blank lines and trims", func(t *testing.T) {
		q := &queue{lines: []string{"  \r", "mode:normal\r", ""}}

		var got []string
		n := Drain(q, MaxLinesPerTick, func(l string) { got = append(got, l) })

		if n != 3 {
			t.Errorf("expected 3 lines read, got %d", n)
		}
		if len(got) != 1 || got[0] != "mode:normal" {
			t.Errorf("expected [mode:normal], got %q", got)
		}
	})
}
