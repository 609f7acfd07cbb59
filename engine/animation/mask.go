package animation

// BoneMask is a set of bone ids excluded from a node's contribution.
type BoneMask map[int]bool

// NewBoneMask builds a mask from bone ids.
func NewBoneMask(ids ...int) BoneMask {
	m := make(BoneMask, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Excludes reports whether a bone is masked out.
func (m BoneMask) Excludes(id int) bool {
	return m[id]
}

// Union returns the union of m and o. When either side is empty the other is returned
// as is, so callers must not mutate the result.
//
// Parameters:
//   - o: the other mask
//
// Returns:
//   - BoneMask: the union
func (m BoneMask) Union(o BoneMask) BoneMask {
	if len(o) == 0 {
		return m
	}
	if len(m) == 0 {
		return o
	}
	out := make(BoneMask, len(m)+len(o))
	for id := range m {
		out[id] = true
	}
	for id := range o {
		out[id] = true
	}
	return out
}
