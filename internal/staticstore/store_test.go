package staticstore

import (
	"context"
	"path/filepath"
	"testing"

	"rspengine/internal/rdf"
)

func TestAddStaticDataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	quads := []rdf.Quad{
		{Subject: rdf.NamedNode{IRI: "http://example.org/a"}, Predicate: rdf.NamedNode{IRI: "http://example.org/knows"}, Object: rdf.NamedNode{IRI: "http://example.org/b"}, Graph: rdf.DefaultGraph{}},
		{Subject: rdf.NamedNode{IRI: "http://example.org/a"}, Predicate: rdf.NamedNode{IRI: "http://example.org/name"}, Object: rdf.Literal{Value: "Alice", Lang: "en"}, Graph: rdf.DefaultGraph{}},
	}
	for _, q := range quads {
		if err := store.AddStaticData(ctx, q); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(quads) {
		t.Fatalf("loaded %d quads, want %d", len(loaded), len(quads))
	}
	for i, q := range quads {
		if !loaded[i].Equal(q) {
			t.Fatalf("quad %d mismatch: got %+v want %+v", i, loaded[i], q)
		}
	}
}

func TestLoadAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	q := rdf.Quad{Subject: rdf.NamedNode{IRI: "http://example.org/a"}, Predicate: rdf.NamedNode{IRI: "http://example.org/p"}, Object: rdf.NamedNode{IRI: "http://example.org/o"}, Graph: rdf.DefaultGraph{}}
	if err := store.AddStaticData(ctx, q); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	loaded, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || !loaded[0].Equal(q) {
		t.Fatalf("unexpected loaded quads after reopen: %+v", loaded)
	}
}

func TestAddStaticDataWithBlankNodeGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	q := rdf.Quad{
		Subject:   rdf.NamedNode{IRI: "http://example.org/a"},
		Predicate: rdf.NamedNode{IRI: "http://example.org/p"},
		Object:    rdf.NamedNode{IRI: "http://example.org/o"},
		Graph:     rdf.BlankNode{ID: "g1"},
	}
	if err := store.AddStaticData(context.Background(), q); err != nil {
		t.Fatalf("add with blank node graph should succeed: %v", err)
	}
	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || !loaded[0].Equal(q) {
		t.Fatalf("unexpected loaded quads: %+v", loaded)
	}
}
