// Package store implements the indexed record store described in
// spec.md §4.2: a typed, generational pool of records per entity type,
// referenced by one or more ordered index trees keyed on declared
// comparators, guarded by a single reader-writer lock per entity.
package store

import "sync/atomic"

// Handle is a stable reference to a record slot. Handles are never reused
// while any index still references them; release only returns a handle
// to the free list after the caller has removed it from every index,
// per spec.md §5's tree/store-list consistency invariant.
type Handle int64

// globalSeq hands out a monotonically increasing sequence number used as
// the final tiebreaker in every index comparator (see Index). A single
// process-wide counter is simpler than a per-entity one and is still
// strictly increasing, which is all total ordering requires.
var globalSeq int64

// NextSeq returns a fresh, strictly increasing sequence number. Domain
// constructors call this once per record and store the result so that
// index comparators can break ties between records whose declared key
// fields compare equal.
func NextSeq() int64 {
	return atomic.AddInt64(&globalSeq, 1)
}

// pool is the free/store-list half of an entity's storage: it owns the
// slots and hands out stable handles, while Index trees reference those
// slots for ordered lookup. A map-backed slot table plus a handle
// freelist stands in for the original's manually managed, geometrically
// expanding C arena — Go's runtime-managed map already grows its backing
// storage as needed, so there is nothing to pre-size.
//
// pool carries no lock of its own: spec.md §5 requires the free list, the
// store list, and every index tree for an entity to move under a single
// reader-writer lock, so locking lives one level up, in Table.
type pool[T any] struct {
	records map[Handle]*T
	free    []Handle
	nextID  Handle
}

func newPool[T any]() *pool[T] {
	return &pool[T]{records: make(map[Handle]*T)}
}

// alloc pops a slot from the free list (or mints a new handle if the
// free list is empty) and returns it holding a zero-valued T.
func (p *pool[T]) alloc() (Handle, *T) {
	var h Handle
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		p.nextID++
		h = p.nextID
	}
	rec := new(T)
	p.records[h] = rec
	return h, rec
}

// release returns a slot to the free list.
func (p *pool[T]) release(h Handle) {
	delete(p.records, h)
	p.free = append(p.free, h)
}

func (p *pool[T]) get(h Handle) (*T, bool) {
	r, ok := p.records[h]
	return r, ok
}

func (p *pool[T]) len() int {
	return len(p.records)
}
