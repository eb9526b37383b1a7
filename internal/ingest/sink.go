package ingest

import (
	"fmt"

	"rspengine/internal/engine"
	"rspengine/internal/rdf"
)

// Sink is what every ingress adapter writes decoded quads into. It is
// implemented directly by EngineSink in production and by a stub in
// adapter tests, so adapters never depend on engine internals.
type Sink interface {
	AddQuads(uri string, quads []rdf.Quad, t int64) error
}

// EngineSink adapts an RSPEngine's named streams to the Sink interface.
type EngineSink struct {
	Engine *engine.RSPEngine
}

func (s EngineSink) AddQuads(uri string, quads []rdf.Quad, t int64) error {
	stream, ok := s.Engine.GetStream(uri)
	if !ok {
		return fmt.Errorf("ingest: unknown stream %q", uri)
	}
	return stream.AddQuads(quads, t)
}
