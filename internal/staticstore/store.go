// Package staticstore persists the background RDF dataset the R2R
// operator joins streaming windows against, so a restarted node does not
// lose previously loaded static data.
package staticstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"rspengine/internal/rdf"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS static_quads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	graph TEXT NOT NULL
);

CREATE TRIGGER IF NOT EXISTS trg_static_quads_no_update
BEFORE UPDATE ON static_quads
BEGIN
	SELECT RAISE(ABORT, 'static_quads are append-only: UPDATE forbidden');
END;

CREATE TRIGGER IF NOT EXISTS trg_static_quads_no_delete
BEFORE DELETE ON static_quads
BEGIN
	SELECT RAISE(ABORT, 'static_quads are append-only: DELETE forbidden');
END;
`

// Store durably logs static quads to a single SQLite file. It keeps no
// in-memory copy: Load reads every quad back from the database so it can
// repopulate an R2R operator at startup.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir static store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open static store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create static store schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddStaticData writes q through to SQLite. Callers mirror it into the
// R2R operator's in-memory dataset themselves; the store only owns
// durability.
func (s *Store) AddStaticData(ctx context.Context, q rdf.Quad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subj, err := encodeTerm(q.Subject)
	if err != nil {
		return fmt.Errorf("encode subject: %w", err)
	}
	pred, err := encodeTerm(q.Predicate)
	if err != nil {
		return fmt.Errorf("encode predicate: %w", err)
	}
	obj, err := encodeTerm(q.Object)
	if err != nil {
		return fmt.Errorf("encode object: %w", err)
	}
	graph, err := encodeGraph(q.Graph)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO static_quads(subject, predicate, object, graph) VALUES(?, ?, ?, ?)`, subj, pred, obj, graph)
	if err != nil {
		return fmt.Errorf("insert static quad: %w", err)
	}
	return nil
}

// Load returns every quad previously written to the store, in insertion
// order, so it can repopulate an R2R operator's static dataset at startup.
func (s *Store) Load(ctx context.Context) ([]rdf.Quad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT subject, predicate, object, graph FROM static_quads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query static quads: %w", err)
	}
	defer rows.Close()

	var out []rdf.Quad
	for rows.Next() {
		var subj, pred, obj, graph string
		if err := rows.Scan(&subj, &pred, &obj, &graph); err != nil {
			return nil, fmt.Errorf("scan static quad: %w", err)
		}
		q, err := decodeQuad(subj, pred, obj, graph)
		if err != nil {
			return nil, fmt.Errorf("decode static quad: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate static quads: %w", err)
	}
	return out, nil
}

type encodedTerm struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func encodeTerm(t rdf.Term) (string, error) {
	var e encodedTerm
	switch v := t.(type) {
	case rdf.NamedNode:
		e = encodedTerm{Kind: "iri", Value: v.IRI}
	case rdf.BlankNode:
		e = encodedTerm{Kind: "blank", Value: v.ID}
	case rdf.Literal:
		e = encodedTerm{Kind: "literal", Value: v.Value, Lang: v.Lang, Datatype: v.Datatype}
	default:
		return "", fmt.Errorf("unsupported term type %T", t)
	}
	b, err := json.Marshal(e)
	return string(b), err
}

func encodeGraph(g rdf.GraphName) (string, error) {
	switch v := g.(type) {
	case rdf.DefaultGraph:
		return "", nil
	case rdf.NamedNode:
		return encodeTerm(v)
	case rdf.BlankNode:
		return encodeTerm(v)
	default:
		return "", fmt.Errorf("unsupported graph type %T", g)
	}
}

func decodeTerm(raw string) (rdf.Term, error) {
	var e encodedTerm
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case "iri":
		return rdf.NamedNode{IRI: e.Value}, nil
	case "blank":
		return rdf.BlankNode{ID: e.Value}, nil
	case "literal":
		return rdf.Literal{Value: e.Value, Lang: e.Lang, Datatype: e.Datatype}, nil
	default:
		return nil, fmt.Errorf("unknown term kind %q", e.Kind)
	}
}

func decodeQuad(subj, pred, obj, graph string) (rdf.Quad, error) {
	s, err := decodeTerm(subj)
	if err != nil {
		return rdf.Quad{}, err
	}
	p, err := decodeTerm(pred)
	if err != nil {
		return rdf.Quad{}, err
	}
	o, err := decodeTerm(obj)
	if err != nil {
		return rdf.Quad{}, err
	}
	var g rdf.GraphName = rdf.DefaultGraph{}
	if graph != "" {
		gt, err := decodeTerm(graph)
		if err != nil {
			return rdf.Quad{}, err
		}
		gn, ok := gt.(rdf.GraphName)
		if !ok {
			return rdf.Quad{}, errors.New("decoded graph term is not a valid graph name")
		}
		g = gn
	}
	return rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, nil
}
