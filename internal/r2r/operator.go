// Package r2r implements the R2R (relation-to-relation) operator: it holds
// a parsed SPARQL query plus the static dataset, and evaluates the query
// against a closed window's content joined with that static data.
package r2r

import (
	"sync"

	"rspengine/internal/rdf"
	"rspengine/internal/sparql"
	"rspengine/internal/window"
)

// Operator is one RSP-QL query's R2R side: the compiled SPARQL query and
// the mutable static background dataset it is joined against on every
// evaluation.
type Operator struct {
	query *sparql.Query

	mu     sync.Mutex
	static []rdf.Quad
}

// New builds an Operator from an already-parsed query.
func New(query *sparql.Query) *Operator {
	return &Operator{query: query}
}

// AddStaticData appends one quad to the background dataset joined against
// every future window evaluation. Safe to call concurrently with Execute
// and with other AddStaticData calls.
func (op *Operator) AddStaticData(q rdf.Quad) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.static = append(op.static, q)
}

// StaticData returns a snapshot of the current static dataset.
func (op *Operator) StaticData() []rdf.Quad {
	op.mu.Lock()
	defer op.mu.Unlock()
	out := make([]rdf.Quad, len(op.static))
	copy(out, op.static)
	return out
}

// Execute loads content's quads into a scratch dataset alongside a
// snapshot of the static data and evaluates the query, returning its
// solution bindings.
func (op *Operator) Execute(content *window.Container) ([]sparql.Binding, error) {
	dataset := op.StaticData()
	for _, tq := range content.Elements() {
		dataset = append(dataset, tq.Quad)
	}
	return sparql.Execute(op.query, dataset)
}
