package sparql

import (
	"testing"

	"rspengine/internal/rdf"
)

func mustParse(t *testing.T, q string) *Query {
	t.Helper()
	parsed, err := Parse(q, map[string]string{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return parsed
}

func bindingValue(t *testing.T, b Binding, v string) rdf.Term {
	t.Helper()
	val, ok := b.Get(v)
	if !ok {
		t.Fatalf("binding missing variable %q: %+v", v, b)
	}
	return val
}

// Static triple `<a> <type> <Sensor>`, window content `<a> <reads> "v1">`,
// `<a> <reads> "v2">`, `<b> <reads> "v3">`. Expect (a,"v1") and (a,"v2");
// b filtered out for lacking the static triple.
func TestStreamStaticJoin(t *testing.T) {
	q := mustParse(t, `SELECT ?s ?v WHERE { ?s <http://example.org/type> <http://example.org/Sensor> . GRAPH <http://example.org/w> { ?s <http://example.org/reads> ?v } }`)

	a := rdf.NamedNode{IRI: "http://example.org/a"}
	b := rdf.NamedNode{IRI: "http://example.org/b"}
	typ := rdf.NamedNode{IRI: "http://example.org/type"}
	sensor := rdf.NamedNode{IRI: "http://example.org/Sensor"}
	reads := rdf.NamedNode{IRI: "http://example.org/reads"}
	win := rdf.NamedNode{IRI: "http://example.org/w"}

	dataset := []rdf.Quad{
		{Subject: a, Predicate: typ, Object: sensor, Graph: rdf.DefaultGraph{}},
		{Subject: a, Predicate: reads, Object: rdf.Literal{Value: "v1"}, Graph: win},
		{Subject: a, Predicate: reads, Object: rdf.Literal{Value: "v2"}, Graph: win},
		{Subject: b, Predicate: reads, Object: rdf.Literal{Value: "v3"}, Graph: win},
	}

	rows, err := Execute(q, dataset)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	got := map[string]bool{}
	for _, row := range rows {
		s := bindingValue(t, row, "s")
		v := bindingValue(t, row, "v")
		if s != a {
			t.Fatalf("row bound ?s=%v, want %v (b should have been filtered out)", s, a)
		}
		got[v.(rdf.Literal).Value] = true
	}
	if !got["v1"] || !got["v2"] {
		t.Fatalf("missing expected values: %+v", got)
	}
}

func TestCountAggregate(t *testing.T) {
	q := mustParse(t, `SELECT (COUNT(*) AS ?n) WHERE { GRAPH <http://example.org/w> { ?s ?p ?o } }`)

	win := rdf.NamedNode{IRI: "http://example.org/w"}
	var dataset []rdf.Quad
	for i := 0; i < 10; i++ {
		dataset = append(dataset, rdf.Quad{
			Subject:   rdf.NamedNode{IRI: "http://example.org/s"},
			Predicate: rdf.NamedNode{IRI: "http://example.org/p"},
			Object:    rdf.Literal{Value: "v"},
			Graph:     win,
		})
	}

	rows, err := Execute(q, dataset)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	n := bindingValue(t, rows[0], "n")
	lit, ok := n.(rdf.Literal)
	if !ok || lit.Value != "10" {
		t.Fatalf("n = %v, want literal 10", n)
	}
}

func TestFilterEqualityExcludesNonMatchingRows(t *testing.T) {
	q := mustParse(t, `SELECT ?s WHERE { GRAPH <http://example.org/w> { ?s <http://example.org/status> ?st } FILTER(?st = "ok") }`)

	win := rdf.NamedNode{IRI: "http://example.org/w"}
	status := rdf.NamedNode{IRI: "http://example.org/status"}
	dataset := []rdf.Quad{
		{Subject: rdf.NamedNode{IRI: "http://example.org/a"}, Predicate: status, Object: rdf.Literal{Value: "ok"}, Graph: win},
		{Subject: rdf.NamedNode{IRI: "http://example.org/b"}, Predicate: status, Object: rdf.Literal{Value: "down"}, Graph: win},
	}

	rows, err := Execute(q, dataset)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(rows), rows)
	}
	if s := bindingValue(t, rows[0], "s"); s != (rdf.NamedNode{IRI: "http://example.org/a"}) {
		t.Fatalf("s = %v, want a", s)
	}
}

func TestAskReturnsSingleBooleanBinding(t *testing.T) {
	q := mustParse(t, `ASK WHERE { GRAPH <http://example.org/w> { ?s ?p ?o } }`)

	win := rdf.NamedNode{IRI: "http://example.org/w"}
	dataset := []rdf.Quad{
		{Subject: rdf.NamedNode{IRI: "http://example.org/a"}, Predicate: rdf.NamedNode{IRI: "http://example.org/p"}, Object: rdf.Literal{Value: "v"}, Graph: win},
	}

	rows, err := Execute(q, dataset)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	v := bindingValue(t, rows[0], "_ask")
	if v.(rdf.Literal).Value != "true" {
		t.Fatalf("_ask = %v, want true", v)
	}

	rows, err = Execute(q, nil)
	if err != nil {
		t.Fatalf("Execute on empty dataset: %v", err)
	}
	if v := bindingValue(t, rows[0], "_ask"); v.(rdf.Literal).Value != "false" {
		t.Fatalf("_ask over empty dataset = %v, want false", v)
	}
}

func TestConstructYieldsOneRowPerTriple(t *testing.T) {
	q := mustParse(t, `CONSTRUCT { ?s <http://example.org/seen> ?o } WHERE { GRAPH <http://example.org/w> { ?s ?p ?o } }`)

	win := rdf.NamedNode{IRI: "http://example.org/w"}
	dataset := []rdf.Quad{
		{Subject: rdf.NamedNode{IRI: "http://example.org/a"}, Predicate: rdf.NamedNode{IRI: "http://example.org/p"}, Object: rdf.Literal{Value: "v1"}, Graph: win},
		{Subject: rdf.NamedNode{IRI: "http://example.org/b"}, Predicate: rdf.NamedNode{IRI: "http://example.org/p"}, Object: rdf.Literal{Value: "v2"}, Graph: win},
	}

	rows, err := Execute(q, dataset)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		p := bindingValue(t, row, "predicate")
		if p != (rdf.NamedNode{IRI: "http://example.org/seen"}) {
			t.Fatalf("predicate = %v, want ex:seen", p)
		}
	}
}

func TestParseRejectsUnbalancedGraphBlock(t *testing.T) {
	_, err := Parse(`SELECT ?s WHERE { GRAPH <http://example.org/w> { ?s ?p ?o }`, map[string]string{})
	if err == nil {
		t.Fatalf("expected error for unbalanced braces")
	}
}
