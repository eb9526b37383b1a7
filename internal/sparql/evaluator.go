package sparql

import (
	"strconv"

	"rspengine/internal/rdf"
)

const xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"

// Execute evaluates q against dataset, the union of the static store and
// the content of whichever windows q's GRAPH blocks name, and returns the
// resulting solution rows. This is the sole entry point the R2R operator
// calls.
func Execute(q *Query, dataset []rdf.Quad) ([]Binding, error) {
	rows := evalPatterns(q.Patterns, dataset)
	rows = applyFilters(rows, q.Filters)

	switch q.Type {
	case Ask:
		val := "false"
		if len(rows) > 0 {
			val = "true"
		}
		return []Binding{{Pairs: []Pair{{Var: "_ask", Value: rdf.Literal{Value: val, Datatype: xsdBoolean}}}}}, nil
	case Construct:
		return constructBindings(q.Template, rows), nil
	default:
		return selectBindings(q.Patterns, q.Projection, rows), nil
	}
}

func evalPatterns(patterns []PatternElement, dataset []rdf.Quad) []rawBinding {
	results := []rawBinding{{}}
	for _, pe := range patterns {
		candidates := filterByGraph(dataset, pe.Graph)
		var next []rawBinding
		for _, b := range results {
			next = append(next, joinTriples(b, pe.Triples, candidates)...)
		}
		results = next
		if len(results) == 0 {
			return results
		}
	}
	return results
}

func filterByGraph(dataset []rdf.Quad, g rdf.GraphName) []rdf.Quad {
	var out []rdf.Quad
	for _, q := range dataset {
		if q.Graph == g {
			out = append(out, q)
		}
	}
	return out
}

func joinTriples(b rawBinding, triples []TriplePattern, candidates []rdf.Quad) []rawBinding {
	if len(triples) == 0 {
		return []rawBinding{b}
	}
	head, tail := triples[0], triples[1:]
	var out []rawBinding
	for _, q := range candidates {
		nb, ok := matchTriple(b, head, q)
		if !ok {
			continue
		}
		out = append(out, joinTriples(nb, tail, candidates)...)
	}
	return out
}

func matchTriple(b rawBinding, tp TriplePattern, q rdf.Quad) (rawBinding, bool) {
	nb := cloneBinding(b)
	if !unify(nb, tp.S, q.Subject) {
		return nil, false
	}
	if !unify(nb, tp.P, q.Predicate) {
		return nil, false
	}
	if !unify(nb, tp.O, q.Object) {
		return nil, false
	}
	return nb, true
}

func unify(b rawBinding, tp TermPattern, val rdf.Term) bool {
	if tp.IsVar {
		if existing, ok := b[tp.Var]; ok {
			return existing == val
		}
		b[tp.Var] = val
		return true
	}
	return tp.Value == val
}

func applyFilters(rows []rawBinding, filters []FilterExpr) []rawBinding {
	if len(filters) == 0 {
		return rows
	}
	var out []rawBinding
	for _, row := range rows {
		ok := true
		for _, f := range filters {
			val, bound := row[f.Var]
			if !bound {
				ok = false
				break
			}
			eq := val == f.RHS.Value
			if eq == f.Negate {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, row)
		}
	}
	return out
}

func collectVars(patterns []PatternElement) []string {
	var out []string
	seen := map[string]bool{}
	add := func(tp TermPattern) {
		if tp.IsVar && !seen[tp.Var] {
			seen[tp.Var] = true
			out = append(out, tp.Var)
		}
	}
	for _, pe := range patterns {
		for _, tp := range pe.Triples {
			add(tp.S)
			add(tp.P)
			add(tp.O)
		}
	}
	return out
}

func selectBindings(patterns []PatternElement, items []ProjectionItem, rows []rawBinding) []Binding {
	if len(items) == 1 && items[0].Var == "*" && items[0].Agg == NoAgg {
		vars := collectVars(patterns)
		items = make([]ProjectionItem, len(vars))
		for i, v := range vars {
			items[i] = ProjectionItem{Var: v}
		}
	}

	hasAgg := false
	for _, it := range items {
		if it.Agg != NoAgg {
			hasAgg = true
			break
		}
	}
	if hasAgg {
		return []Binding{aggregateRow(items, rows)}
	}

	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		var pairs []Pair
		for _, it := range items {
			if v, ok := row[it.Var]; ok {
				pairs = append(pairs, Pair{Var: it.Var, Value: v})
			}
		}
		out = append(out, Binding{Pairs: pairs})
	}
	return out
}

func aggregateRow(items []ProjectionItem, rows []rawBinding) Binding {
	var pairs []Pair
	for _, it := range items {
		alias := it.Alias
		if alias == "" {
			alias = it.Var
		}
		switch it.Agg {
		case Count:
			n := 0
			for _, row := range rows {
				if it.Var == "" {
					n++
					continue
				}
				if _, ok := row[it.Var]; ok {
					n++
				}
			}
			pairs = append(pairs, Pair{Var: alias, Value: rdf.Literal{
				Value:    strconv.Itoa(n),
				Datatype: "http://www.w3.org/2001/XMLSchema#integer",
			}})
		case Sum, Avg:
			sum := 0.0
			count := 0
			for _, row := range rows {
				v, ok := row[it.Var]
				if !ok {
					continue
				}
				f, ok := parseNumber(v)
				if !ok {
					continue
				}
				sum += f
				count++
			}
			result := sum
			if it.Agg == Avg && count > 0 {
				result = sum / float64(count)
			}
			pairs = append(pairs, Pair{Var: alias, Value: rdf.Literal{
				Value:    strconv.FormatFloat(result, 'g', -1, 64),
				Datatype: "http://www.w3.org/2001/XMLSchema#double",
			}})
		default:
			if v, ok := rows[0][it.Var]; len(rows) > 0 && ok {
				pairs = append(pairs, Pair{Var: alias, Value: v})
			}
		}
	}
	return Binding{Pairs: pairs}
}

func parseNumber(t rdf.Term) (float64, bool) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(lit.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func constructBindings(template []TriplePattern, rows []rawBinding) []Binding {
	var out []Binding
	for _, row := range rows {
		for _, tp := range template {
			s, ok1 := resolveTerm(tp.S, row)
			p, ok2 := resolveTerm(tp.P, row)
			o, ok3 := resolveTerm(tp.O, row)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			out = append(out, Binding{Pairs: []Pair{
				{Var: "subject", Value: s},
				{Var: "predicate", Value: p},
				{Var: "object", Value: o},
			}})
		}
	}
	return out
}

func resolveTerm(tp TermPattern, row rawBinding) (rdf.Term, bool) {
	if tp.IsVar {
		v, ok := row[tp.Var]
		return v, ok
	}
	return tp.Value, true
}
