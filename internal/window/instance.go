package window

// Instance identifies one half-open window interval [Open, Close). Two
// instances are equal iff their (Open, Close) pairs match; it is a plain
// comparable value used as a map key and never carries mutable state
// itself. Has-been-emitted bookkeeping lives with the caller, not here.
type Instance struct {
	Open  int64
	Close int64
}

// floorDiv and ceilDiv are exact integer division in the mathematical
// (not truncating) sense, valid for any sign of a. Floating point is
// never used on this path: at Unix-millisecond magnitudes (~1.76e12)
// float64 division loses the precision needed to reconstruct window
// boundaries exactly.
func floorDiv(a, b int64) int64 {
	q := a / b
	if r := a % b; r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if r := a % b; r != 0 && (r < 0) == (b < 0) {
		q++
	}
	return q
}

// Scope computes the set of window instances containing timestamp t, for a
// window with the given range, slide and anchor t0. Every window's open is
// of the form t0 + k*slide for some integer k. Window opens may be negative
// when t starts near t0, and that is intentional.
func Scope(t0, t, rng, slide int64) []Instance {
	delta := t - t0
	kMax := floorDiv(delta, slide)
	span := ceilDiv(rng, slide)

	out := make([]Instance, 0, span)
	for i := int64(0); i <= span; i++ {
		k := kMax - i
		open := t0 + k*slide
		closeAt := open + rng
		if open <= t && t < closeAt {
			out = append(out, Instance{Open: open, Close: closeAt})
		}
	}
	return out
}
