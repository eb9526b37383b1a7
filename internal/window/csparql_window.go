// Package window implements the S2R operator: CSPARQLWindow, the state
// machine that partitions a stream of (quad, timestamp) pairs into window
// instances, tracks their open/closed lifecycle, and emits window-content
// snapshots as the event-time frontier advances past each window's close.
package window

import (
	"fmt"
	"log"
	"sync"

	"rspengine/internal/rdf"
)

// Emission is one closed window's content, delivered to subscribers.
type Emission struct {
	Instance Instance
	Content  *Container
}

// ingressEvent is one (quad, timestamp) pair queued for a window's worker.
type ingressEvent struct {
	quad rdf.Quad
	t    int64
}

// CSPARQLWindow owns one window declaration's state exclusively: its
// mapping from Instance to Container, its ingress channel, and its
// subscriber fanout. Every field below this point in the struct is only
// ever touched by the single goroutine running Run, so no lock is needed
// on the hot path.
type CSPARQLWindow struct {
	Name  string
	Range int64
	Slide int64

	ingress chan ingressEvent
	done    chan struct{}

	mu          sync.Mutex // guards subscribers only; Run never blocks holding it
	subscribers []chan Emission

	debug bool

	// state owned exclusively by Run's goroutine
	t0               *int64
	maxSeenTimestamp int64
	maxSeenSet       bool
	active           map[Instance]*Container
}

// New creates a window declaration with the given name, range and slide.
// Range and slide must be positive; New does not check this (the parser
// rejects non-positive RANGE and STEP before this is reached).
func New(name string, rng, slide int64) *CSPARQLWindow {
	return &CSPARQLWindow{
		Name:    name,
		Range:   rng,
		Slide:   slide,
		ingress: make(chan ingressEvent, 256),
		done:    make(chan struct{}),
		active:  make(map[Instance]*Container),
	}
}

// SetDebugMode toggles diagnostic logging of ingestion and eviction.
func (w *CSPARQLWindow) SetDebugMode(on bool) { w.debug = on }

// Subscribe registers a channel to receive emissions. Subscribe may be
// called before or after Run starts.
func (w *CSPARQLWindow) Subscribe(ch chan Emission) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, ch)
}

// Add queues one quad at the given event timestamp for ingestion. Add is
// safe to call from any goroutine; it is the producer side of the
// single-consumer ingress channel.
func (w *CSPARQLWindow) Add(q rdf.Quad, t int64) {
	w.ingress <- ingressEvent{quad: q, t: t}
}

// Close closes the ingress channel, causing Run to drain and return once
// all queued events are processed.
func (w *CSPARQLWindow) Close() { close(w.ingress) }

// GetActiveWindowCount reports how many window instances currently overlap
// the event-time frontier. It is intended for diagnostics called from the
// same goroutine as Run, or after Run has returned.
func (w *CSPARQLWindow) GetActiveWindowCount() int { return len(w.active) }

// GetActiveWindowRanges returns the open/close pairs of every active
// window instance.
func (w *CSPARQLWindow) GetActiveWindowRanges() []Instance {
	out := make([]Instance, 0, len(w.active))
	for inst := range w.active {
		out = append(out, inst)
	}
	return out
}

// Run drains the ingress channel until it is closed, applying the window's
// ingestion algorithm to each event in turn. Run owns all of
// CSPARQLWindow's windowing state; callers must not read
// GetActiveWindowCount/GetActiveWindowRanges concurrently with Run except
// through the exported thread-safe operations.
func (w *CSPARQLWindow) Run() {
	for evt := range w.ingress {
		w.add(evt.quad, evt.t)
	}
}

func (w *CSPARQLWindow) add(q rdf.Quad, t int64) {
	if w.maxSeenSet && t < w.maxSeenTimestamp {
		if w.debug {
			log.Printf("[window %s] out-of-order event dropped: t=%d < frontier=%d", w.Name, t, w.maxSeenTimestamp)
		}
		return
	}
	if !w.maxSeenSet || t > w.maxSeenTimestamp {
		w.maxSeenTimestamp = t
		w.maxSeenSet = true
	}
	if w.t0 == nil {
		anchor := t
		w.t0 = &anchor
	}

	rewritten := q.WithGraph(rdf.NamedWindowGraph(w.Name))

	for _, inst := range Scope(*w.t0, t, w.Range, w.Slide) {
		container, ok := w.active[inst]
		if !ok {
			container = NewContainer()
			w.active[inst] = container
		}
		container.Add(rewritten, t)
	}
	if w.debug {
		log.Printf("[window %s] ingested (%v,%d), active=%d", w.Name, rewritten, t, len(w.active))
	}

	w.evict(t)
}

// evict removes and emits every window whose close has passed the current
// frontier, in strictly increasing order of close.
func (w *CSPARQLWindow) evict(t int64) {
	var closing []Instance
	for inst := range w.active {
		if inst.Close <= w.maxSeenTimestamp {
			closing = append(closing, inst)
		}
	}
	sortByClose(closing)

	for _, inst := range closing {
		content := w.active[inst]
		delete(w.active, inst)
		// Snapshot before handing off: a subscriber may hold Content past
		// the point where this window instance's slot would otherwise be
		// reused, and the container must not be mutated under it.
		w.emit(Emission{Instance: inst, Content: content.Snapshot()})
	}
}

func sortByClose(xs []Instance) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1].Close > xs[j].Close; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func (w *CSPARQLWindow) emit(e Emission) {
	w.mu.Lock()
	subs := append([]chan Emission(nil), w.subscribers...)
	w.mu.Unlock()

	// Sends block on a full subscriber (the dispatcher is expected to keep
	// draining), preserving the per-window increasing-close delivery order.
	// A subscriber that has closed its channel would make this send panic;
	// sendOrDrop recovers from that and drops the emission instead.
	for _, sub := range subs {
		sendOrDrop(sub, e)
	}
}

func sendOrDrop(sub chan Emission, e Emission) {
	defer func() { recover() }()
	sub <- e
}

func (e Emission) String() string {
	return fmt.Sprintf("[%d,%d) x%d", e.Instance.Open, e.Instance.Close, e.Content.Len())
}
