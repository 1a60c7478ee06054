package controller

import (
	"testing"
	"time"

	"github.com/ayusman/signalhand/internal/detector"
	"github.com/ayusman/signalhand/internal/gesture"
	"github.com/ayusman/signalhand/internal/protocol"
	"github.com/ayusman/signalhand/internal/timing"
	"github.com/ayusman/signalhand/internal/transport"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const frame = time.Second / 60

// Hand fixtures named by the label the poses table resolves them to.
var (
	redUpHand     = detector.PoseHand(false, true, true, false, false)
	emergencyHand = detector.PoseHand(true, true, true, true, true)
	blinkHand     = detector.PoseHand(true, false, false, false, true)
	normalHand    = detector.PoseHand(false, true, true, true, false)
	onOffHand     = detector.PoseHand(false, true, true, true, true)
)

func newTestContext(t *testing.T) (*Context, *transport.Memory, *[]Event) {
	t.Helper()
	resolver, err := gesture.NewResolver(gesture.VariantPoses)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	mem := transport.NewMemory()
	ctx := NewContext(mem, resolver, timing.Defaults(), Options{
		Clock: func() time.Time { return t0 },
	})
	var events []Event
	ctx.Subscribe(func(ev Event) { events = append(events, ev) })
	return ctx, mem, &events
}

func count(lines []string, want string) int {
	n := 0
	for _, l := range lines {
		if l == want {
			n++
		}
	}
	return n
}

func TestContext_AdjustGesture(t *testing.T) {
	ctx, mem, events := newTestContext(t)

	ctx.Observe(detector.Observation{redUpHand})
	r := ctx.Tick(t0)

	if r.Label != gesture.RedUp || r.Adjust == nil || r.Fired {
		t.Fatalf("unexpected tick report %+v", r)
	}
	written := mem.Written()
	if len(written) != 1 || written[0] != "cmd:redTime=2300;" {
		t.Fatalf("expected cmd:redTime=2300;, got %q", written)
	}
	if ctx.Timing().Red != 2300 {
		t.Errorf("expected red 2300, got %d", ctx.Timing().Red)
	}

	if len(*events) != 1 {
		t.Fatalf("expected one event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Kind != EventTiming || ev.Source != SourceGesture || ev.Label != gesture.RedUp || ev.Value != 2300 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.ID == "" {
		t.Error("expected event id")
	}

	t.Run("repeats every tick without debounce", func(t *testing.T) {
		ctx.Tick(t0.Add(frame))
		ctx.Tick(t0.Add(2 * frame))
		if ctx.Timing().Red != 2900 {
			t.Errorf("expected red 2900 after three ticks, got %d", ctx.Timing().Red)
		}
		if ctx.Debounce().Last != gesture.None {
			t.Errorf("adjusts must not touch debounce state, got %v", ctx.Debounce().Last)
		}
	})

	t.Run("clamps at the maximum", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			ctx.Tick(t0.Add(time.Duration(3+i) * frame))
		}
		if ctx.Timing().Red != timing.MaxDuration {
			t.Errorf("expected red clamped to %d, got %d", timing.MaxDuration, ctx.Timing().Red)
		}
		last := mem.Written()[len(mem.Written())-1]
		if last != "cmd:redTime=5000;" {
			t.Errorf("expected clamped command, got %q", last)
		}
	})
}

func TestContext_ApplyWhenLit(t *testing.T) {
	t.Run("normal mode and red lit", func(t *testing.T) {
		ctx, mem, _ := newTestContext(t)
		mem.Feed("mode:normal,red:1,yellow:0,green:0")
		ctx.Observe(detector.Observation{redUpHand})
		ctx.Tick(t0)

		want := []string{"cmd:redTime=2300;", "cmd:apply=red;"}
		got := mem.Written()
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("other channel lit", func(t *testing.T) {
		ctx, mem, _ := newTestContext(t)
		mem.Feed("mode:normal,red:0,green:1")
		ctx.Tick(t0)

		if v := ctx.SetDuration(timing.Red, 1500); v != 1500 {
			t.Errorf("expected 1500, got %d", v)
		}
		if got := mem.Written(); len(got) != 1 || got[0] != "cmd:redTime=1500;" {
			t.Errorf("expected duration only, got %q", got)
		}
	})

	t.Run("blink mode", func(t *testing.T) {
		ctx, mem, _ := newTestContext(t)
		mem.Feed("mode:blink,red:1")
		ctx.Tick(t0)

		ctx.SetDuration(timing.Red, 1500)
		if got := mem.Written(); count(got, "cmd:apply=red;") != 0 {
			t.Errorf("expected no apply outside normal mode, got %q", got)
		}
	})
}

func TestContext_SetDuration(t *testing.T) {
	ctx, mem, events := newTestContext(t)

	if v := ctx.SetDuration(timing.Yellow, 20); v != timing.MinDuration {
		t.Errorf("expected clamp to %d, got %d", timing.MinDuration, v)
	}
	if got := mem.Written(); len(got) != 1 || got[0] != "cmd:yellowTime=100;" {
		t.Errorf("expected cmd:yellowTime=100;, got %q", got)
	}
	if ev := (*events)[0]; ev.Source != SourceSlider || !ev.At.Equal(t0) {
		t.Errorf("expected slider event at t0, got %+v", ev)
	}

	if v := ctx.SetDuration(timing.Channel("blue"), 900); v != 0 {
		t.Errorf("expected 0 for unknown channel, got %d", v)
	}
	if len(mem.Written()) != 1 {
		t.Error("unknown channel must not write")
	}
}

func TestContext_SyncTiming(t *testing.T) {
	ctx, mem, _ := newTestContext(t)
	ctx.SyncTiming()

	want := []string{"cmd:redTime=2000;", "cmd:yellowTime=500;", "cmd:greenTime=2000;"}
	got := mem.Written()
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestContext_EmergencyOncePerWindow(t *testing.T) {
	ctx, mem, _ := newTestContext(t)
	ctx.Observe(detector.Observation{emergencyHand})

	fired := 0
	for i := 0; i < 300; i++ {
		if ctx.Tick(t0.Add(time.Duration(i) * frame)).Fired {
			fired++
		}
	}

	if fired != 1 {
		t.Errorf("expected one fire over 300 frames, got %d", fired)
	}
	if n := count(mem.Written(), "cmd:button=1;"); n != 1 {
		t.Errorf("expected one emergency press, got %d", n)
	}
}

func TestContext_CooldownBetweenModes(t *testing.T) {
	ctx, mem, _ := newTestContext(t)

	ctx.Observe(detector.Observation{emergencyHand})
	ctx.Tick(t0)

	ctx.Observe(detector.Observation{blinkHand})
	if ctx.Tick(t0.Add(300 * time.Millisecond)).Fired {
		t.Error("blink inside cooldown must not fire")
	}
	if !ctx.Tick(t0.Add(gesture.DefaultCooldown)).Fired {
		t.Error("blink at cooldown must fire")
	}

	got := mem.Written()
	if len(got) != 2 || got[0] != "cmd:button=1;" || got[1] != "cmd:button=2;" {
		t.Errorf("expected emergency then blink, got %q", got)
	}
}

func TestContext_ModeSurvivesHandLoss(t *testing.T) {
	ctx, mem, _ := newTestContext(t)

	ctx.Observe(detector.Observation{blinkHand})
	ctx.Tick(t0)

	ctx.Observe(nil)
	for i := 1; i <= 60; i++ {
		ctx.Tick(t0.Add(time.Duration(i) * frame))
	}

	ctx.Observe(detector.Observation{blinkHand})
	if ctx.Tick(t0.Add(2 * time.Second)).Fired {
		t.Error("showing the same mode again must not re-fire")
	}
	if n := count(mem.Written(), "cmd:button=2;"); n != 1 {
		t.Errorf("expected one blink press, got %d", n)
	}
	if ctx.Debounce().Last != gesture.Blink {
		t.Errorf("expected debounce to remember blink, got %v", ctx.Debounce().Last)
	}
}

func TestContext_NormalSentTwice(t *testing.T) {
	ctx, mem, events := newTestContext(t)

	ctx.Observe(detector.Observation{normalHand})
	ctx.Tick(t0)

	if n := count(mem.Written(), "cmd:button=3;"); n != 1 {
		t.Fatalf("expected first press immediately, got %d", n)
	}
	if ctx.Tasks().Len() != 1 {
		t.Fatalf("expected pending resend, got %d tasks", ctx.Tasks().Len())
	}

	ctx.Observe(nil)
	ctx.Tick(t0.Add(50 * time.Millisecond))
	if n := count(mem.Written(), "cmd:button=3;"); n != 1 {
		t.Errorf("resend must wait for its delay, got %d presses", n)
	}

	r := ctx.Tick(t0.Add(DefaultResendDelay))
	if r.TasksRun != 1 {
		t.Errorf("expected one task run, got %d", r.TasksRun)
	}
	if n := count(mem.Written(), "cmd:button=3;"); n != 2 {
		t.Errorf("expected two presses, got %d", n)
	}
	if ctx.Tasks().Len() != 0 {
		t.Errorf("expected no pending tasks, got %d", ctx.Tasks().Len())
	}

	gestures := 0
	for _, ev := range *events {
		if ev.Kind == EventGesture {
			gestures++
		}
	}
	if gestures != 1 {
		t.Errorf("expected one gesture event, got %d", gestures)
	}
}

func TestContext_OnOff(t *testing.T) {
	ctx, mem, _ := newTestContext(t)

	ctx.Observe(detector.Observation{onOffHand})
	ctx.Tick(t0)

	if got := mem.Written(); len(got) != 1 || got[0] != "cmd:button=3;" {
		t.Errorf("expected a single onoff press, got %q", got)
	}
	if ctx.Tasks().Len() != 0 {
		t.Error("onoff must not schedule a resend")
	}
}

func TestContext_StatusLines(t *testing.T) {
	ctx, mem, events := newTestContext(t)

	for i := 0; i < 25; i++ {
		mem.Feed("brightness:50")
	}

	r := ctx.Tick(t0)
	if r.LinesRead != protocol.MaxLinesPerTick {
		t.Errorf("expected %d lines read, got %d", protocol.MaxLinesPerTick, r.LinesRead)
	}
	if mem.Available() != 15 {
		t.Errorf("expected 15 lines left, got %d", mem.Available())
	}
	if ctx.Device().Brightness != 50 {
		t.Errorf("expected brightness 50, got %d", ctx.Device().Brightness)
	}
	if len(*events) != 10 {
		t.Errorf("expected 10 status events, got %d", len(*events))
	}

	t.Run("garbage is ignored", func(t *testing.T) {
		ctx, mem, events := newTestContext(t)
		mem.Feed("hello world", "red:7")
		ctx.Tick(t0)
		if len(*events) != 0 {
			t.Errorf("expected no events, got %d", len(*events))
		}
		if ctx.Device() != protocol.DefaultDeviceState() {
			t.Errorf("expected default device state, got %+v", ctx.Device())
		}
	})
}

func TestContext_Disabled(t *testing.T) {
	ctx, mem, _ := newTestContext(t)
	ctx.SetEnabled(false)

	mem.Feed("mode:normal")
	ctx.Observe(detector.Observation{emergencyHand})
	r := ctx.Tick(t0)

	if r.Fired || r.Label != gesture.None {
		t.Errorf("disabled context must not resolve, got %+v", r)
	}
	if len(mem.Written()) != 0 {
		t.Errorf("expected no writes, got %q", mem.Written())
	}
	if ctx.Device().Mode != protocol.ModeNormal {
		t.Error("status lines must still be decoded while disabled")
	}

	ctx.SetEnabled(true)
	if !ctx.Tick(t0.Add(frame)).Fired {
		t.Error("expected emergency to fire after re-enabling")
	}
}

func TestContext_ClosedTransport(t *testing.T) {
	ctx, mem, events := newTestContext(t)
	mem.SetOpen(false)

	ctx.Observe(detector.Observation{redUpHand})
	ctx.Tick(t0)

	if len(mem.Written()) != 0 {
		t.Error("closed transport must not record writes")
	}
	if ctx.Timing().Red != 2300 {
		t.Errorf("timing still updates while closed, got %d", ctx.Timing().Red)
	}
	if ev := (*events)[0]; len(ev.Commands) != 0 {
		t.Errorf("expected no commands on the event, got %q", ev.Commands)
	}
	if ctx.TransportOpen() {
		t.Error("expected TransportOpen() false")
	}
}

func TestNewContext_NilTransport(t *testing.T) {
	resolver, _ := gesture.NewResolver(gesture.VariantPoses)
	ctx := NewContext(nil, resolver, timing.Defaults(), Options{})

	ctx.Observe(detector.Observation{emergencyHand})
	if !ctx.Tick(t0).Fired {
		t.Error("expected fire without a transport")
	}
}
