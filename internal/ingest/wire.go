// Package ingest holds the shape shared by every ingress adapter
// (socket, kafka, rabbitmq): a stream-scoped quad batch and the Sink they
// all write into.
package ingest

import (
	"fmt"

	"rspengine/internal/rdf"
)

// WireTerm is the adapter-agnostic JSON/struct encoding of an rdf.Term.
type WireTerm struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// WireQuad is the adapter-agnostic encoding of an rdf.Quad.
type WireQuad struct {
	Subject   WireTerm `json:"s"`
	Predicate WireTerm `json:"p"`
	Object    WireTerm `json:"o"`
	Graph     string   `json:"g,omitempty"`
}

// Envelope is the default Kafka/RabbitMQ payload shape: a stream URI, the
// quads to ingest into it, and the event timestamp they share.
type Envelope struct {
	Stream    string     `json:"stream"`
	Quads     []WireQuad `json:"quads"`
	Timestamp int64      `json:"timestamp"`
}

// EncodeTerm converts an rdf.Term to its wire form.
func EncodeTerm(t rdf.Term) WireTerm {
	switch v := t.(type) {
	case rdf.NamedNode:
		return WireTerm{Kind: "iri", Value: v.IRI}
	case rdf.BlankNode:
		return WireTerm{Kind: "blank", Value: v.ID}
	case rdf.Literal:
		return WireTerm{Kind: "literal", Value: v.Value, Lang: v.Lang, Datatype: v.Datatype}
	default:
		return WireTerm{}
	}
}

// DecodeTerm converts a wire term back to an rdf.Term.
func DecodeTerm(w WireTerm) (rdf.Term, error) {
	switch w.Kind {
	case "iri":
		return rdf.NamedNode{IRI: w.Value}, nil
	case "blank":
		return rdf.BlankNode{ID: w.Value}, nil
	case "literal":
		return rdf.Literal{Value: w.Value, Lang: w.Lang, Datatype: w.Datatype}, nil
	default:
		return nil, fmt.Errorf("ingest: unknown term kind %q", w.Kind)
	}
}

// EncodeQuad converts an rdf.Quad to its wire form. A default-graph quad
// encodes with an empty Graph field.
func EncodeQuad(q rdf.Quad) WireQuad {
	w := WireQuad{Subject: EncodeTerm(q.Subject), Predicate: EncodeTerm(q.Predicate), Object: EncodeTerm(q.Object)}
	if named, ok := q.Graph.(rdf.NamedNode); ok {
		w.Graph = named.IRI
	}
	return w
}

// DecodeQuad converts a wire quad back to an rdf.Quad.
func DecodeQuad(w WireQuad) (rdf.Quad, error) {
	s, err := DecodeTerm(w.Subject)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("ingest: subject: %w", err)
	}
	p, err := DecodeTerm(w.Predicate)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("ingest: predicate: %w", err)
	}
	o, err := DecodeTerm(w.Object)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("ingest: object: %w", err)
	}
	var g rdf.GraphName = rdf.DefaultGraph{}
	if w.Graph != "" {
		g = rdf.NamedNode{IRI: w.Graph}
	}
	return rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, nil
}

// DecodeQuads decodes a batch, stopping at the first malformed quad.
func DecodeQuads(ws []WireQuad) ([]rdf.Quad, error) {
	out := make([]rdf.Quad, 0, len(ws))
	for i, w := range ws {
		q, err := DecodeQuad(w)
		if err != nil {
			return nil, fmt.Errorf("ingest: quad %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}
