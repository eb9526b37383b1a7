package rdf

import "testing"

func TestQuadEqualityIsStructural(t *testing.T) {
	a := Quad{
		Subject:   NamedNode{IRI: "http://example.org/a"},
		Predicate: NamedNode{IRI: "http://example.org/p"},
		Object:    Literal{Value: "v"},
		Graph:     DefaultGraph{},
	}
	b := a
	if !a.Equal(b) {
		t.Fatalf("identical quads should be equal")
	}
	b.Object = Literal{Value: "other"}
	if a.Equal(b) {
		t.Fatalf("quads differing by object should not be equal")
	}
}

func TestWithGraphDoesNotMutateReceiver(t *testing.T) {
	original := Quad{
		Subject:   NamedNode{IRI: "http://example.org/a"},
		Predicate: NamedNode{IRI: "http://example.org/p"},
		Object:    NamedNode{IRI: "http://example.org/o"},
		Graph:     DefaultGraph{},
	}
	rewritten := original.WithGraph(NamedNode{IRI: "http://example.org/win"})

	if original.Graph != GraphName(DefaultGraph{}) {
		t.Fatalf("original quad graph mutated: %v", original.Graph)
	}
	want := NamedNode{IRI: "http://example.org/win"}
	if rewritten.Graph != want {
		t.Fatalf("rewritten quad has wrong graph: %v", rewritten.Graph)
	}
}

func TestNamedWindowGraphFallsBackOnInvalidIRI(t *testing.T) {
	cases := map[string]string{
		"http://example.org/w1": "http://example.org/w1",
		"":                      DefaultWindowIRI,
		"has space":             DefaultWindowIRI,
		"<bad>":                 DefaultWindowIRI,
	}
	for in, want := range cases {
		got := NamedWindowGraph(in)
		nn, ok := got.(NamedNode)
		if !ok {
			t.Fatalf("NamedWindowGraph(%q) did not return a NamedNode", in)
		}
		if nn.IRI != want {
			t.Fatalf("NamedWindowGraph(%q)=%q, want %q", in, nn.IRI, want)
		}
	}
}
