// Package sparql implements the narrow SPARQL subset the RSP-QL rewrite
// (package rspql) can ever produce: SELECT/ASK/CONSTRUCT over a basic
// graph pattern, optionally split across the default graph (the static
// dataset) and one or more GRAPH <iri> blocks (window contents), with
// equality FILTER and the COUNT/SUM/AVG aggregates.
//
// This is the concrete implementation standing in for the "opaque SPARQL
// engine" external collaborator the engine's core component design treats
// as a black box (R2ROperator only ever calls Execute). ASK results are
// flattened onto the same Binding shape as SELECT, as a single row binding
// the synthetic variable "_ask" to a boolean-valued literal; CONSTRUCT
// results are flattened to one row per constructed triple, binding
// "subject", "predicate" and "object".
package sparql
