package controller

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/signalhand/internal/capture"
	"github.com/ayusman/signalhand/internal/detector"
	"github.com/ayusman/signalhand/internal/gesture"
	"github.com/ayusman/signalhand/internal/protocol"
	"github.com/ayusman/signalhand/internal/store"
	"github.com/ayusman/signalhand/internal/timing"
	"github.com/ayusman/signalhand/internal/transport"
)

// Loop timing constants.
const (
	// DefaultTickRate is the control loop frequency in Hz.
	DefaultTickRate = 60
	// DefaultInferenceFPS is the camera and detector rate.
	DefaultInferenceFPS = 15
	// DefaultRetention is how long history rows are kept.
	DefaultRetention = 7 * 24 * time.Hour
	// eventBuffer bounds events waiting for the dispatcher.
	eventBuffer = 1024
	// requestBuffer bounds pending edits and toggles.
	requestBuffer = 16
	// persistInterval coalesces timing writes to the store.
	persistInterval = time.Second
	// pruneInterval is how often old history is removed.
	pruneInterval = time.Hour
)

// ErrStopped is returned by operations that need the running loop.
var ErrStopped = errors.New("controller is not running")

// Config holds configuration options for the App.
type Config struct {
	Transport       transport.Transport
	Camera          capture.Camera
	Detector        detector.Detector
	Store           *store.Store
	Variant         gesture.Variant
	Timing          timing.Params
	Cooldown        time.Duration
	ResendDelay     time.Duration
	TickRate        int
	MaxLinesPerTick int
	InferenceFPS    int
	Retention       time.Duration
}

// Snapshot is a read-only copy of the control state, refreshed after every tick.
type Snapshot struct {
	Timing        timing.Params        `json:"timing"`
	Device        protocol.DeviceState `json:"device"`
	Label         string               `json:"label"`
	LastFired     string               `json:"lastFired"`
	LastFiredAt   time.Time            `json:"lastFiredAt"`
	Enabled       bool                 `json:"enabled"`
	TransportOpen bool                 `json:"transportOpen"`
	Hands         int                  `json:"hands"`
	Keypoints     detector.Observation `json:"keypoints,omitempty"`
	PendingTasks  int                  `json:"pendingTasks"`
	Variant       string               `json:"variant"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// App owns the control context and drives it from a single goroutine.
// Every other goroutine talks to the context through channels.
type App struct {
	config Config
	ctx    *Context
	frames *capture.FrameBuffer

	observations chan detector.Observation
	requests     chan func(*Context)
	events       chan Event

	snapMu   sync.RWMutex
	snapshot Snapshot

	listenMu  sync.RWMutex
	listeners []Subscriber

	mu       sync.Mutex
	stopCh   chan struct{}
	loopDone chan struct{}
	wg       sync.WaitGroup
}

// New creates an App. Timing and the gesture toggle are loaded from the
// store when one is configured.
func New(config Config) (*App, error) {
	if config.TickRate <= 0 {
		config.TickRate = DefaultTickRate
	}
	if config.InferenceFPS <= 0 {
		config.InferenceFPS = DefaultInferenceFPS
	}
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.Timing == (timing.Params{}) {
		config.Timing = timing.Defaults()
	}

	resolver, err := gesture.NewResolver(config.Variant)
	if err != nil {
		return nil, err
	}

	params := config.Timing
	enabled := true
	if config.Store != nil {
		if params, err = config.Store.Settings().LoadTiming(config.Timing); err != nil {
			return nil, fmt.Errorf("failed to load timing: %w", err)
		}
		if enabled, err = config.Store.Settings().LoadEnabled(true); err != nil {
			return nil, fmt.Errorf("failed to load gesture toggle: %w", err)
		}
	}

	ctx := NewContext(config.Transport, resolver, params, Options{
		Cooldown:        config.Cooldown,
		ResendDelay:     config.ResendDelay,
		MaxLinesPerTick: config.MaxLinesPerTick,
	})
	ctx.SetEnabled(enabled)

	a := &App{
		config:       config,
		ctx:          ctx,
		frames:       capture.NewFrameBuffer(),
		observations: make(chan detector.Observation, 1),
		requests:     make(chan func(*Context), requestBuffer),
		events:       make(chan Event, eventBuffer),
	}
	ctx.Subscribe(a.enqueue)
	a.updateSnapshot(time.Now())

	return a, nil
}

// Start begins the control loop, the event dispatcher and, when a camera
// and detector are configured, the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if a.config.Camera != nil {
		if err := a.config.Camera.Open(); err != nil {
			return fmt.Errorf("failed to open camera: %w", err)
		}
		a.config.Camera.SetFPS(a.config.InferenceFPS)
	}

	a.stopCh = make(chan struct{})
	a.loopDone = make(chan struct{})

	a.wg.Add(2)
	go a.run(a.stopCh, a.loopDone)
	go a.dispatch(a.loopDone)

	if a.config.Camera != nil && a.config.Detector != nil {
		a.wg.Add(1)
		go a.runPipeline(a.stopCh)
	}

	log.Printf("Control loop started at %d Hz (variant %s)", a.config.TickRate, a.ctx.resolver.Variant())
	return nil
}

// Stop halts all goroutines and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()

	if a.config.Camera != nil {
		if err := a.config.Camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Control loop stopped")
}

// Running reports whether the loop is running.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// run is the only goroutine that touches the context.
func (a *App) run(stop <-chan struct{}, done chan<- struct{}) {
	defer a.wg.Done()
	defer close(done)

	a.ctx.SyncTiming()
	a.updateSnapshot(time.Now())

	ticker := time.NewTicker(time.Second / time.Duration(a.config.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case obs := <-a.observations:
			a.ctx.Observe(obs)
		case fn := <-a.requests:
			fn(a.ctx)
			a.updateSnapshot(time.Now())
		case now := <-ticker.C:
			a.ctx.Tick(now)
			a.updateSnapshot(now)
		}
	}
}

// Observe hands a new observation to the loop. An observation the loop has
// not picked up yet is replaced.
func (a *App) Observe(obs detector.Observation) {
	for {
		select {
		case a.observations <- obs:
			return
		default:
		}
		select {
		case <-a.observations:
		default:
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (a *App) do(fn func(*Context)) error {
	a.mu.Lock()
	stop := a.stopCh
	a.mu.Unlock()
	if stop == nil {
		return ErrStopped
	}

	done := make(chan struct{})
	select {
	case a.requests <- func(c *Context) {
		fn(c)
		close(done)
	}:
	case <-stop:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-stop:
		return ErrStopped
	}
}

// SetDuration applies a slider edit and returns the clamped value.
func (a *App) SetDuration(ch timing.Channel, value int) (int, error) {
	var stored int
	err := a.do(func(c *Context) {
		stored = c.SetDuration(ch, value)
	})
	if err != nil {
		return 0, err
	}
	if stored == 0 {
		return 0, fmt.Errorf("unknown channel %q", ch)
	}
	return stored, nil
}

// SetEnabled turns gesture control on or off and persists the choice.
func (a *App) SetEnabled(enabled bool) error {
	err := a.do(func(c *Context) {
		c.SetEnabled(enabled)
	})
	if err != nil {
		return err
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SaveEnabled(enabled); err != nil {
			log.Printf("Failed to persist gesture toggle: %v", err)
		}
	}
	log.Printf("Gesture control enabled: %v", enabled)
	return nil
}

// IsEnabled returns whether gesture control is on.
func (a *App) IsEnabled() bool {
	return a.Snapshot().Enabled
}

// Snapshot returns the latest published state.
func (a *App) Snapshot() Snapshot {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.snapshot
}

// Frames returns the preview frame buffer.
func (a *App) Frames() *capture.FrameBuffer {
	return a.frames
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Subscribe registers fn for events. Listeners run on the dispatcher
// goroutine, never on the control loop.
func (a *App) Subscribe(fn Subscriber) {
	a.listenMu.Lock()
	defer a.listenMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *App) updateSnapshot(now time.Time) {
	c := a.ctx
	deb := c.Debounce()
	snap := Snapshot{
		Timing:        c.Timing(),
		Device:        c.Device(),
		Label:         c.LastLabel().String(),
		LastFired:     deb.Last.String(),
		LastFiredAt:   deb.FiredAt,
		Enabled:       c.Enabled(),
		TransportOpen: c.TransportOpen(),
		Hands:         c.Observation().Len(),
		Keypoints:     c.Observation(),
		PendingTasks:  c.Tasks().Len(),
		Variant:       string(c.resolver.Variant()),
		UpdatedAt:     now,
	}

	a.snapMu.Lock()
	a.snapshot = snap
	a.snapMu.Unlock()
}

// enqueue is the context subscriber. It never blocks the loop.
func (a *App) enqueue(ev Event) {
	select {
	case a.events <- ev:
	default:
		log.Printf("Event queue full, dropping %s event", ev.Kind)
	}
}
