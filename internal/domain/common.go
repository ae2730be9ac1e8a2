// Package domain holds the entity types from spec.md §3.2, their
// comparators, and the temporal soft-delete operations from §4.3. Each
// entity wraps a store.Table over its own record type and exposes only
// the operations its callers need, keeping the generic store package
// ignorant of what any particular field means.
package domain

import (
	"strings"
	"time"

	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// Seq gives every entity record the sequence-number field store.Index
// uses to break ties between rows whose declared key fields compare
// equal, per the no-coalescing policy documented in DESIGN.md. It also
// remembers its own store handle, so operations that need to mutate a
// row they already hold a pointer to (supersede, in particular) don't
// need a reverse handle lookup.
type Seq struct {
	seq    int64
	handle store.Handle
}

func (s *Seq) assignSeq(h store.Handle) {
	s.seq = store.NextSeq()
	s.handle = h
}
func (s *Seq) SeqNum() int64          { return s.seq }
func (s *Seq) Handle() store.Handle   { return s.handle }

// now returns the current instant as a codec.Timestamp with microsecond
// resolution, matching the wire format's (seconds, microseconds) pair.
func now() codec.Timestamp {
	t := time.Now().UTC()
	return codec.Timestamp{Sec: t.Unix(), USec: int64(t.Nanosecond() / 1000)}
}

// dateBegin is the earliest-possible activation date. An OPTIONCONTROL
// row dated dateBegin is active from the start, so only its
// activationheight decides its eligibility.
var dateBegin = codec.Timestamp{Sec: 0, USec: 0}

// heightSentinelMinusOne is HEIGHT_SENTINEL-1, the activationheight of
// the resolver's find_after probe. The probe's activationdate sorts
// before dateBegin, so the forward (ascending) walk from it visits every
// row for the option name, and the resolver picks the maximum itself.
const heightSentinelMinusOne = int64(1<<62 - 1)

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}

// cmpExpiryDesc orders expirydate descending, so the current row
// (DEFAULT_EXPIRY, the maximum value) sorts first among rows that share
// the same natural key — the final tiebreaker spec.md §3.1 requires of
// every historisable entity's comparator.
func cmpExpiryDesc(a, b codec.Timestamp) int {
	return -a.Compare(b)
}

func cmpExpiryAsc(a, b codec.Timestamp) int {
	return a.Compare(b)
}
