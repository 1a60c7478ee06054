package controller

import (
	"log"
	"time"

	"github.com/ayusman/signalhand/internal/detector"
	"github.com/ayusman/signalhand/internal/store"
	"github.com/ayusman/signalhand/internal/timing"
)

// runPipeline reads frames at InferenceFPS, keeps the latest one for the
// preview stream and hands detected hands to the control loop.
//
// A failed detection publishes an empty observation so a hand that left
// the frame can never stay latched.
func (a *App) runPipeline(stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.InferenceFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := a.config.Camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				a.Observe(nil)
				continue
			}

			if err := a.frames.Update(frame); err != nil {
				log.Printf("Error encoding preview frame: %v", err)
			}

			if !a.IsEnabled() {
				frame.Close()
				a.Observe(nil)
				continue
			}

			hands, err := a.config.Detector.Detect(frame)
			frame.Close()
			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				a.Observe(nil)
				continue
			}

			a.Observe(detector.Observation(hands))
		}
	}
}

// dispatch delivers events to the store and to listeners off the control
// loop. It drains what is left after the loop exits.
func (a *App) dispatch(loopDone <-chan struct{}) {
	defer a.wg.Done()

	r := newRecorder(a.config.Store, a.ctx.Timing())

	persist := time.NewTicker(persistInterval)
	defer persist.Stop()
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	r.prune(time.Now().Add(-a.config.Retention))

	for {
		select {
		case ev := <-a.events:
			a.deliver(r, ev)
		case <-persist.C:
			r.flush()
		case now := <-prune.C:
			r.prune(now.Add(-a.config.Retention))
		case <-loopDone:
			for {
				select {
				case ev := <-a.events:
					a.deliver(r, ev)
				default:
					r.flush()
					return
				}
			}
		}
	}
}

func (a *App) deliver(r *recorder, ev Event) {
	r.record(ev)

	a.listenMu.RLock()
	listeners := a.listeners
	a.listenMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// recorder writes events to the store. Timing is written at most once per
// persistInterval; an adjust pose held for a second would otherwise write
// sixty rows.
type recorder struct {
	store  *store.Store
	saved  timing.Params
	latest timing.Params
}

func newRecorder(s *store.Store, params timing.Params) *recorder {
	return &recorder{store: s, saved: params, latest: params}
}

func (r *recorder) record(ev Event) {
	if r.store == nil {
		return
	}

	switch ev.Kind {
	case EventStatus:
		err := r.store.Status().Create(&store.StatusReport{
			Line:      ev.Line,
			Device:    ev.Device,
			CreatedAt: ev.At,
		})
		if err != nil {
			log.Printf("Failed to record status: %v", err)
		}

	case EventGesture:
		r.create(ev, store.EventKindGesture)

	case EventTiming:
		changed := ev.Value != r.latest.Get(ev.Channel)
		r.latest = ev.Timing
		if ev.Source == SourceStartup || (ev.Source == SourceGesture && !changed) {
			return
		}
		r.create(ev, store.EventKindTiming)
	}
}

func (r *recorder) create(ev Event, kind store.EventKind) {
	err := r.store.Events().Create(&store.Event{
		ID:        ev.ID,
		Kind:      kind,
		Label:     labelString(ev),
		Channel:   string(ev.Channel),
		Value:     ev.Value,
		Source:    ev.Source,
		Commands:  ev.Commands,
		CreatedAt: ev.At,
	})
	if err != nil {
		log.Printf("Failed to record %s event: %v", kind, err)
	}
}

func labelString(ev Event) string {
	if ev.Label == "" {
		return ""
	}
	return ev.Label.String()
}

func (r *recorder) flush() {
	if r.store == nil || r.latest == r.saved {
		return
	}
	if err := r.store.Settings().SaveTiming(r.latest); err != nil {
		log.Printf("Failed to persist timing: %v", err)
		return
	}
	r.saved = r.latest
}

func (r *recorder) prune(cutoff time.Time) {
	if r.store == nil {
		return
	}
	if n, err := r.store.Events().Prune(cutoff); err != nil {
		log.Printf("Failed to prune events: %v", err)
	} else if n > 0 {
		log.Printf("Pruned %d events", n)
	}
	if _, err := r.store.Status().Prune(cutoff); err != nil {
		log.Printf("Failed to prune status reports: %v", err)
	}
}
