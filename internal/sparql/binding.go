package sparql

import "rspengine/internal/rdf"

// Pair is one variable-to-term binding.
type Pair struct {
	Var   string
	Value rdf.Term
}

// Binding is an ordered SPARQL solution row, the concrete type returned
// for every query result.
type Binding struct {
	Pairs []Pair
}

// Get returns the term bound to name, if any.
func (b Binding) Get(name string) (rdf.Term, bool) {
	for _, p := range b.Pairs {
		if p.Var == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Vars returns the variable names bound by this row, in projection order.
func (b Binding) Vars() []string {
	out := make([]string, len(b.Pairs))
	for i, p := range b.Pairs {
		out[i] = p.Var
	}
	return out
}

// rawBinding is the mutable working representation used during BGP
// evaluation, before projection fixes the output column order.
type rawBinding map[string]rdf.Term

func cloneBinding(b rawBinding) rawBinding {
	nb := make(rawBinding, len(b)+1)
	for k, v := range b {
		nb[k] = v
	}
	return nb
}
