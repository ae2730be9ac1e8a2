package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// OptionControl is an OPTIONCONTROL row: a named configuration value
// scheduled to take effect at a given date and/or block height.
type OptionControl struct {
	Seq

	OptionName       string
	OptionValue      string
	ActivationDate   codec.Timestamp
	ActivationHeight int64

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpOptionControl(a, b *OptionControl) int {
	if c := cmpString(a.OptionName, b.OptionName); c != 0 {
		return c
	}
	if c := a.ActivationDate.Compare(b.ActivationDate); c != 0 {
		return c
	}
	if c := cmpInt64(a.ActivationHeight, b.ActivationHeight); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// OptionControlStore holds OPTIONCONTROL rows under
// (optionname, activationdate, activationheight, expirydate desc) and
// implements the resolver of spec.md §4.7.
type OptionControlStore struct {
	tbl      *store.Table[OptionControl]
	onChange func(*OptionControl)
}

func NewOptionControlStore() *OptionControlStore {
	return &OptionControlStore{tbl: store.NewTable(store.NewIndex(cmpOptionControl, (*OptionControl).SeqNum))}
}

// OnChange registers fn to be called, outside any lock, whenever Set
// records a new OPTIONCONTROL row — the hook spec.md §4.12's stats
// broadcaster attaches itself to. It fires on every new row rather than
// only on a change to the resolved winner, since resolution can also
// shift purely from pool height or wall-clock time advancing without
// any row being written; callers that need the exact resolved winner
// should re-run Resolve off the notified option name.
func (s *OptionControlStore) OnChange(fn func(*OptionControl)) {
	s.onChange = fn
}

// Set inserts a new current OPTIONCONTROL row. activationDate and
// activationHeight default to DATE_BEGIN and 1 respectively when the
// caller wants that dimension ignored, per spec.md §4.7.
func (s *OptionControlStore) Set(name, value string, activationDate codec.Timestamp, activationHeight int64) *OptionControl {
	_, rec := s.tbl.Insert(func(h store.Handle, o *OptionControl) {
		o.assignSeq(h)
		o.OptionName = name
		o.OptionValue = value
		o.ActivationDate = activationDate
		o.ActivationHeight = activationHeight
		o.CreateDate = now()
		o.ExpiryDate = codec.DefaultExpiry
	})
	if s.onChange != nil {
		s.onChange(rec)
	}
	return rec
}

// Resolve implements the option control resolution algorithm of
// spec.md §4.7: walk all rows for name starting from find_after
// (name, activationdate one second before dateBegin,
// activationheight=HEIGHT_SENTINEL-1), stopping when the name changes.
// Among rows that are current, whose activationheight is <= poolHeight,
// and whose activationdate is <= now, return the one maximising
// (activationdate, activationheight).
func (s *OptionControlStore) Resolve(name string, poolHeight int64, nowTS codec.Timestamp) (*OptionControl, bool) {
	probe := &OptionControl{
		OptionName:       name,
		ActivationDate:   codec.Timestamp{Sec: dateBegin.Sec - 1},
		ActivationHeight: heightSentinelMinusOne,
	}

	var winner *OptionControl
	s.tbl.WithReadLock(func() {
		cur, ok := s.tbl.FindAfterLocked(0, probe)
		for ok && cur.OptionName == name {
			eligible := cur.ExpiryDate.IsDefaultExpiry() &&
				cur.ActivationHeight <= poolHeight &&
				cur.ActivationDate.Compare(nowTS) <= 0

			if eligible {
				if winner == nil || betterOption(cur, winner) {
					winner = cur
				}
			}
			cur, ok = s.tbl.NextLocked(0, cur)
		}
	})
	if winner == nil {
		return nil, false
	}
	return winner, true
}

// betterOption reports whether candidate outranks best under the
// resolver's (activationdate, activationheight) maximisation rule.
func betterOption(candidate, best *OptionControl) bool {
	if c := candidate.ActivationDate.Compare(best.ActivationDate); c != 0 {
		return c > 0
	}
	return candidate.ActivationHeight > best.ActivationHeight
}
