package token

// RingCapacity bounds the number of live refresh tokens per account. Logging
// in from a sixth device silently signs the oldest session out.
const RingCapacity = 5

// Ring is a bounded FIFO over opaque items, independent of storage. Admit
// reports what (if anything) had to be evicted so the caller can translate
// the change into single-document store operations.
type Ring struct {
	items []string
	cap   int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = RingCapacity
	}
	return &Ring{cap: capacity}
}

// NewRingFrom seeds a ring with the items already persisted, oldest first.
func NewRingFrom(capacity int, items []string) *Ring {
	r := NewRing(capacity)
	for _, it := range items {
		r.Admit(it)
	}
	return r
}

// Admit appends item, evicting the oldest entry when the ring is full.
// Returns the evicted item and whether an eviction happened.
func (r *Ring) Admit(item string) (evicted string, didEvict bool) {
	if len(r.items) >= r.cap {
		evicted, didEvict = r.items[0], true
		r.items = append(r.items[:0], r.items[1:]...)
	}
	r.items = append(r.items, item)
	return evicted, didEvict
}

// Contains reports whether item is currently admitted.
func (r *Ring) Contains(item string) bool {
	for _, it := range r.items {
		if it == item {
			return true
		}
	}
	return false
}

func (r *Ring) Len() int { return len(r.items) }

// Items returns the admitted items oldest first. The slice is a copy.
func (r *Ring) Items() []string {
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}
