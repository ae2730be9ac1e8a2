package store

import "github.com/tidwall/btree"

// Comparator orders two records by their declared key fields only. It may
// return 0 for records that share the same key fields — spec.md §9 leaves
// open whether such records should coalesce; this store's policy (see
// Index.less) is to never coalesce, breaking the tie with sequence order
// instead.
type Comparator[T any] func(a, b *T) int

// SeqFunc reads the tiebreaker sequence number a domain constructor
// assigned via NextSeq.
type SeqFunc[T any] func(rec *T) int64

// Index is one ordered view over an entity's records, backed by a
// tidwall/btree generic B-tree. An entity with more than one ordering
// (for example SHARESUMMARY keyed by both (userid,workinfoid) and
// (workinfoid,userid)) gets one Index per ordering, all pointing at the
// same underlying records.
type Index[T any] struct {
	tree  *btree.BTreeG[*T]
	cmp   Comparator[T]
	seqOf SeqFunc[T]
}

// NewIndex builds an index over cmp, breaking ties between records whose
// declared key fields compare equal using seqOf — so declared-key-equal
// records still coexist as distinct, individually addressable entries
// rather than being coalesced.
func NewIndex[T any](cmp Comparator[T], seqOf SeqFunc[T]) *Index[T] {
	ix := &Index[T]{cmp: cmp, seqOf: seqOf}
	ix.tree = btree.NewBTreeG(ix.less)
	return ix
}

func (ix *Index[T]) less(a, b *T) bool {
	if c := ix.cmp(a, b); c != 0 {
		return c < 0
	}
	return ix.seqOf(a) < ix.seqOf(b)
}

func (ix *Index[T]) insert(rec *T) {
	ix.tree.Set(rec)
}

func (ix *Index[T]) remove(rec *T) {
	ix.tree.Delete(rec)
}

// find returns the record whose declared key fields equal probe's,
// ignoring probe's sequence number, or (nil, false) if none match.
func (ix *Index[T]) find(probe *T) (*T, bool) {
	var found *T
	ix.tree.Ascend(probe, func(item *T) bool {
		if ix.cmp(item, probe) == 0 {
			found = item
		}
		return false
	})
	return found, found != nil
}

// findAfter returns the least record whose key is greater than or equal
// to probe's, per spec.md §4.2's find_after.
func (ix *Index[T]) findAfter(probe *T) (*T, bool) {
	var found *T
	ix.tree.Ascend(probe, func(item *T) bool {
		found = item
		return false
	})
	return found, found != nil
}

// findBefore returns the greatest record whose key is less than or equal
// to probe's, per spec.md §4.2's find_before.
func (ix *Index[T]) findBefore(probe *T) (*T, bool) {
	var found *T
	// A probe's zero sequence number sorts it ahead of records whose
	// declared key equals its own, so the last of those is looked for first.
	ix.tree.Ascend(probe, func(item *T) bool {
		if ix.cmp(item, probe) != 0 {
			return false
		}
		found = item
		return true
	})
	if found != nil {
		return found, true
	}
	ix.tree.Descend(probe, func(item *T) bool {
		found = item
		return false
	})
	return found, found != nil
}

// next returns the record immediately following cur in this index's
// order, or (nil, false) if cur is the last entry.
func (ix *Index[T]) next(cur *T) (*T, bool) {
	var found *T
	seenCur := false
	ix.tree.Ascend(cur, func(item *T) bool {
		if !seenCur {
			seenCur = true
			return true
		}
		found = item
		return false
	})
	return found, found != nil
}

// prev returns the record immediately preceding cur in this index's
// order, or (nil, false) if cur is the first entry.
func (ix *Index[T]) prev(cur *T) (*T, bool) {
	var found *T
	seenCur := false
	ix.tree.Descend(cur, func(item *T) bool {
		if !seenCur {
			seenCur = true
			return true
		}
		found = item
		return false
	})
	return found, found != nil
}

func (ix *Index[T]) len() int {
	return ix.tree.Len()
}
