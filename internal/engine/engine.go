// Package engine composes the RSP-QL parser, the windowing operator and
// the R2R operator into the top-level RSPEngine: the single object a
// caller constructs, feeds quads into, and reads solution bindings out of.
package engine

import (
	"fmt"
	"sync"

	"rspengine/internal/r2r"
	"rspengine/internal/rdf"
	"rspengine/internal/rspql"
	"rspengine/internal/sparql"
	"rspengine/internal/window"
)

// EvaluationError wraps a failure evaluating the embedded query against a
// closed window's content. Surfaced per emission; window processing
// continues.
type EvaluationError struct {
	Window window.Instance
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("engine: evaluation failed for window %v: %v", e.Window, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Result is one item delivered on the result channel: either a solution
// binding or an evaluation error for one window's emission.
type Result struct {
	Binding sparql.Binding
	Err     error
}

// ResultChannel is the receive-only channel StartProcessing returns.
type ResultChannel = <-chan Result

// sentinelQuad is the well-known triple CloseStream injects to flush tail
// windows.
var sentinelQuad = rdf.Quad{
	Subject:   rdf.NamedNode{IRI: "urn:rsp:sentinel"},
	Predicate: rdf.NamedNode{IRI: "urn:rsp:type"},
	Object:    rdf.Literal{Value: "end"},
	Graph:     rdf.DefaultGraph{},
}

// RSPEngine is the top-level composition: parses the query, builds
// windows and streams, wires window emissions to the R2R operator, and
// exposes a result channel to the caller.
type RSPEngine struct {
	queryText string

	mu       sync.Mutex
	windows  map[string]*window.CSPARQLWindow
	streams  map[string]*RDFStream
	operator *r2r.Operator

	results   chan Result
	closeOnce sync.Once
}

// New stores the query string; no goroutines are started yet.
func New(query string) *RSPEngine {
	return &RSPEngine{queryText: query}
}

// Initialize runs the RSP-QL parser, creates one CSPARQLWindow per window
// declaration, one RDFStream per unique stream URI wired to the windows
// declared on it, and constructs the R2ROperator from the rewritten query.
func (e *RSPEngine) Initialize() error {
	parsed, err := rspql.Parse(e.queryText)
	if err != nil {
		return fmt.Errorf("engine: parsing query: %w", err)
	}
	sq, err := sparql.Parse(parsed.SparqlQuery, parsed.Prefixes)
	if err != nil {
		return fmt.Errorf("engine: parsing inner SPARQL: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.windows = make(map[string]*window.CSPARQLWindow, len(parsed.Windows))
	e.streams = make(map[string]*RDFStream)

	for _, wd := range parsed.Windows {
		w := window.New(wd.WindowName, wd.Range, wd.Step)
		e.windows[wd.WindowName] = w

		s, ok := e.streams[wd.StreamName]
		if !ok {
			s = newRDFStream(wd.StreamName)
			e.streams[wd.StreamName] = s
		}
		s.attach(w)
	}

	e.operator = r2r.New(sq)
	return nil
}

// StartProcessing spawns one worker per window and one emission dispatcher
// that evaluates every closed window's content against the R2R operator,
// forwarding results onto the returned channel.
func (e *RSPEngine) StartProcessing() ResultChannel {
	e.mu.Lock()
	windows := make([]*window.CSPARQLWindow, 0, len(e.windows))
	for _, w := range e.windows {
		windows = append(windows, w)
	}
	operator := e.operator
	e.mu.Unlock()

	shared := make(chan window.Emission, 64)
	for _, w := range windows {
		w.Subscribe(shared)
	}

	var wg sync.WaitGroup
	for _, w := range windows {
		wg.Add(1)
		go func(w *window.CSPARQLWindow) {
			defer wg.Done()
			w.Run()
		}(w)
	}
	go func() {
		wg.Wait()
		close(shared)
	}()

	results := make(chan Result, 64)
	e.mu.Lock()
	e.results = results
	e.mu.Unlock()

	go func() {
		defer close(results)
		for emission := range shared {
			bindings, err := operator.Execute(emission.Content)
			if err != nil {
				results <- Result{Err: &EvaluationError{Window: emission.Instance, Err: err}}
				continue
			}
			for _, b := range bindings {
				results <- Result{Binding: b}
			}
		}
	}()

	return results
}

// GetStream returns a cloneable handle for the named stream, or false if
// no window declaration references it.
func (e *RSPEngine) GetStream(uri string) (*RDFStream, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.streams[uri]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// CloseStream injects the sentinel quad at finalTimestamp into the named
// stream, flushing every window fed by it whose close has now passed the
// frontier.
func (e *RSPEngine) CloseStream(uri string, finalTimestamp int64) error {
	e.mu.Lock()
	s, ok := e.streams[uri]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("engine: unknown stream %q", uri)
	}
	return s.AddQuads([]rdf.Quad{sentinelQuad}, finalTimestamp)
}

// AddStaticData forwards quad to the R2R operator's background dataset.
func (e *RSPEngine) AddStaticData(q rdf.Quad) {
	e.mu.Lock()
	operator := e.operator
	e.mu.Unlock()
	operator.AddStaticData(q)
}

// GetWindow returns the read-handle for the named window declaration.
func (e *RSPEngine) GetWindow(name string) (*window.CSPARQLWindow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.windows[name]
	return w, ok
}

// Close tears the engine down: every stream stops accepting new quads and
// every window's ingress channel is closed, which drains its worker,
// closes the shared emission channel, stops the dispatcher, and closes the
// result channel, unblocking any caller ranging over it.
func (e *RSPEngine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		streams := make([]*RDFStream, 0, len(e.streams))
		for _, s := range e.streams {
			streams = append(streams, s)
		}
		windows := make([]*window.CSPARQLWindow, 0, len(e.windows))
		for _, w := range e.windows {
			windows = append(windows, w)
		}
		e.mu.Unlock()

		for _, s := range streams {
			s.close()
		}
		for _, w := range windows {
			w.Close()
		}
	})
}
