package engine

import (
	"fmt"
	"sync"

	"rspengine/internal/rdf"
	"rspengine/internal/window"
)

// StreamClosed is returned by RDFStream.AddQuads once the engine backing
// the stream has been torn down.
type StreamClosed struct{ URI string }

func (e *StreamClosed) Error() string { return fmt.Sprintf("engine: stream %q is closed", e.URI) }

// streamCore is the mutable state shared by every clone of an RDFStream
// handle for the same stream URI.
type streamCore struct {
	uri string

	mu     sync.RWMutex
	sinks  []*window.CSPARQLWindow
	closed bool
}

// RDFStream is the public ingress handle for one stream URI: a cheap,
// cloneable reference to the window sinks subscribed to that stream.
// Clone shares the same underlying sink set and closed state, so once the
// engine is torn down every clone reports StreamClosed,
// reference-counted-handle style.
type RDFStream struct {
	core *streamCore
}

func newRDFStream(uri string) *RDFStream {
	return &RDFStream{core: &streamCore{uri: uri}}
}

func (s *RDFStream) attach(w *window.CSPARQLWindow) {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	s.core.sinks = append(s.core.sinks, w)
}

// Clone returns a handle to the same stream.
func (s *RDFStream) Clone() *RDFStream {
	return &RDFStream{core: s.core}
}

// URI returns the stream's identifying IRI.
func (s *RDFStream) URI() string { return s.core.uri }

// AddQuads fans the batch out to every window subscribed to this stream,
// in a fixed (declaration) order.
func (s *RDFStream) AddQuads(quads []rdf.Quad, t int64) error {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()
	if s.core.closed {
		return &StreamClosed{URI: s.core.uri}
	}
	for _, w := range s.core.sinks {
		for _, q := range quads {
			w.Add(q, t)
		}
	}
	return nil
}

func (s *RDFStream) close() {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	s.core.closed = true
}
