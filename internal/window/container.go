package window

import "rspengine/internal/rdf"

// Container is an unordered multiset of timestamped quads scoped to a
// single window instance. Membership is by container identity, not by
// value equality of the (quad, timestamp) pair: the same quad at the
// same timestamp may live in several containers at once.
type Container struct {
	elements []rdf.TimestampedQuad
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{}
}

// Add appends one timestamped quad. There is no removal of individual
// elements; containers are discarded whole after emission.
func (c *Container) Add(q rdf.Quad, t int64) {
	c.elements = append(c.elements, rdf.TimestampedQuad{Quad: q, Timestamp: t})
}

// Len returns the number of elements currently stored.
func (c *Container) Len() int { return len(c.elements) }

// Elements returns the full enumeration of stored (quad, timestamp) pairs.
// The returned slice is not a copy; it aliases the container's backing
// array.
func (c *Container) Elements() []rdf.TimestampedQuad { return c.elements }

// Snapshot returns an independent copy suitable for handing to a
// subscriber that must not observe further mutation of c.
func (c *Container) Snapshot() *Container {
	cp := make([]rdf.TimestampedQuad, len(c.elements))
	copy(cp, c.elements)
	return &Container{elements: cp}
}
