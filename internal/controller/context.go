// Package controller runs the traffic-light control loop.
//
// All control state lives in a Context that is mutated only by its owner,
// the loop goroutine of App. Tests drive a Context directly with explicit
// timestamps.
package controller

import (
	"log"
	"time"

	"github.com/ayusman/signalhand/internal/detector"
	"github.com/ayusman/signalhand/internal/gesture"
	"github.com/ayusman/signalhand/internal/protocol"
	"github.com/ayusman/signalhand/internal/timing"
	"github.com/ayusman/signalhand/internal/transport"
)

// Control loop defaults.
const (
	// DefaultResendDelay separates the two button presses sent for Normal.
	DefaultResendDelay = 100 * time.Millisecond
	// normalResendTask names the deferred second Normal press.
	normalResendTask = "normal-resend"
)

// Timing sources.
const (
	SourceGesture = "gesture"
	SourceSlider  = "slider"
	SourceStartup = "startup"
)

// Options tunes a Context.
type Options struct {
	Cooldown        time.Duration
	ResendDelay     time.Duration
	MaxLinesPerTick int
	Clock           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Cooldown <= 0 {
		o.Cooldown = gesture.DefaultCooldown
	}
	if o.ResendDelay <= 0 {
		o.ResendDelay = DefaultResendDelay
	}
	if o.MaxLinesPerTick <= 0 {
		o.MaxLinesPerTick = protocol.MaxLinesPerTick
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// TickReport summarizes one tick.
type TickReport struct {
	TasksRun  int
	LinesRead int
	Label     gesture.Label
	Adjust    *gesture.Adjust
	Fired     bool
}

// Context is the mutable state of the control loop: timing parameters,
// device state, debounce memory, deferred tasks and the current observation.
type Context struct {
	opts        Options
	transport   transport.Transport
	resolver    *gesture.Resolver
	timing      *timing.Store
	device      protocol.DeviceState
	debounce    gesture.DebounceState
	tasks       Tasks
	observation detector.Observation
	enabled     bool
	lastLabel   gesture.Label
	subscribers []Subscriber
	sent        []string
}

// NewContext creates a context with gesture control enabled.
func NewContext(tr transport.Transport, resolver *gesture.Resolver, params timing.Params, opts Options) *Context {
	if tr == nil {
		tr = transport.Closed{}
	}
	return &Context{
		opts:      opts.withDefaults(),
		transport: tr,
		resolver:  resolver,
		timing:    timing.NewStore(params),
		device:    protocol.DefaultDeviceState(),
		enabled:   true,
	}
}

// Subscribe registers fn for all future events.
func (c *Context) Subscribe(fn Subscriber) {
	c.subscribers = append(c.subscribers, fn)
}

// Observe replaces the current observation.
func (c *Context) Observe(obs detector.Observation) {
	c.observation = obs
}

// Observation returns the current observation.
func (c *Context) Observation() detector.Observation {
	return c.observation
}

// SetEnabled turns gesture evaluation on or off. Status decoding and
// deferred tasks keep running while disabled.
func (c *Context) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// Enabled reports whether gestures are evaluated.
func (c *Context) Enabled() bool {
	return c.enabled
}

// Timing returns the current durations.
func (c *Context) Timing() timing.Params {
	return c.timing.Params()
}

// Device returns the cached controller status.
func (c *Context) Device() protocol.DeviceState {
	return c.device
}

// Debounce returns the debounce memory.
func (c *Context) Debounce() gesture.DebounceState {
	return c.debounce
}

// LastLabel returns the label resolved by the most recent tick.
func (c *Context) LastLabel() gesture.Label {
	return c.lastLabel
}

// Tasks returns the deferred task queue.
func (c *Context) Tasks() *Tasks {
	return &c.tasks
}

// TransportOpen reports whether the transport accepts writes.
func (c *Context) TransportOpen() bool {
	return c.transport.IsOpen()
}

// Tick runs one control step: due deferred tasks, up to MaxLinesPerTick
// status lines, then gesture resolution for the current observation.
func (c *Context) Tick(now time.Time) TickReport {
	var r TickReport

	r.TasksRun = c.tasks.RunDue(now)
	r.LinesRead = protocol.Drain(c.transport, c.opts.MaxLinesPerTick, func(line string) {
		c.applyStatus(line, now)
	})

	if !c.enabled {
		c.lastLabel = gesture.None
		return r
	}

	res := c.resolver.Resolve(c.observation)
	c.lastLabel = res.Label
	r.Label = res.Label

	if res.Adjust != nil {
		// Adjusts repeat every tick the pose holds; they bypass debounce.
		c.setDuration(res.Adjust.Channel, c.timing.Get(res.Adjust.Channel)+res.Adjust.Delta, SourceGesture, now)
		r.Adjust = res.Adjust
		return r
	}

	next, fired := gesture.Debounce(c.debounce, res.Label, now, c.opts.Cooldown)
	if fired {
		c.debounce = next
		c.fire(res.Label, now)
		r.Fired = true
	}
	return r
}

// SetDuration stores a clamped duration, announces it to the controller and,
// when that phase is currently lit in normal mode, asks the controller to
// apply it right away. It returns the stored value.
func (c *Context) SetDuration(ch timing.Channel, v int) int {
	return c.setDuration(ch, v, SourceSlider, c.opts.Clock())
}

// SyncTiming announces all three durations, used once at startup.
func (c *Context) SyncTiming() {
	now := c.opts.Clock()
	for _, ch := range timing.Channels {
		c.setDuration(ch, c.timing.Get(ch), SourceStartup, now)
	}
}

func (c *Context) setDuration(ch timing.Channel, v int, source string, now time.Time) int {
	v = c.timing.Set(ch, v)
	if v == 0 {
		return 0
	}

	c.sent = c.sent[:0]
	c.send(protocol.Duration(ch, v))
	if c.device.LEDOn(ch) && c.device.Mode == protocol.ModeNormal {
		c.send(protocol.Apply(ch))
	}

	ev := newEvent(EventTiming, now)
	ev.Channel = ch
	ev.Value = v
	ev.Source = source
	if source == SourceGesture {
		ev.Label = c.lastLabel
	}
	ev.Commands = append([]string(nil), c.sent...)
	ev.Timing = c.timing.Params()
	ev.Device = c.device
	c.emit(ev)
	return v
}

// buttonFor maps mode labels to controller buttons.
var buttonFor = map[gesture.Label]protocol.Button{
	gesture.Emergency: protocol.ButtonEmergency,
	gesture.Blink:     protocol.ButtonBlink,
	gesture.OnOff:     protocol.ButtonOnOff,
	gesture.Normal:    protocol.ButtonOnOff,
}

// fire sends the command for a mode label that passed debounce.
//
// Normal is sent twice, the second press after ResendDelay. The controller
// only reacts to the press edge when leaving some modes. The pending resend
// is a Task and stays cancellable.
func (c *Context) fire(l gesture.Label, now time.Time) {
	b, ok := buttonFor[l]
	if !ok {
		return
	}

	c.sent = c.sent[:0]
	cmd := protocol.Press(b)
	c.send(cmd)
	if l == gesture.Normal {
		c.tasks.Schedule(now.Add(c.opts.ResendDelay), normalResendTask, func(time.Time) {
			c.send(cmd)
		})
	}

	ev := newEvent(EventGesture, now)
	ev.Label = l
	ev.Commands = append([]string(nil), c.sent...)
	ev.Timing = c.timing.Params()
	ev.Device = c.device
	c.emit(ev)
}

func (c *Context) applyStatus(line string, now time.Time) {
	if protocol.DecodeStatus(line, &c.device) == 0 {
		log.Printf("ignored status line: %q", line)
		return
	}

	ev := newEvent(EventStatus, now)
	ev.Line = line
	ev.Device = c.device
	ev.Timing = c.timing.Params()
	c.emit(ev)
}

// send writes a command to the transport. Writes on a closed transport are dropped.
func (c *Context) send(cmd protocol.Command) {
	if !c.transport.IsOpen() {
		return
	}
	line := cmd.Encode()
	c.transport.WriteLine(line)
	c.sent = append(c.sent, cmd.String())
}

func (c *Context) emit(ev Event) {
	for _, fn := range c.subscribers {
		fn(ev)
	}
}
