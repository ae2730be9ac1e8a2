package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// Share is a SHARES row: a proof-of-work submission from a miner
// against a workinfo. Accepted records whether the share passed the
// pool's difficulty target (diffacc, in ckdb's terms); rejected shares
// are recorded too, so share accounting can distinguish "submitted" from
// "credited".
type Share struct {
	Seq

	WorkInfoID int64
	UserID     int64
	WorkerName string
	Nonce      string
	Diff       float64
	SDiff      float64
	Accepted   bool

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpShare(a, b *Share) int {
	if c := cmpInt64(a.WorkInfoID, b.WorkInfoID); c != 0 {
		return c
	}
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpString(a.WorkerName, b.WorkerName); c != 0 {
		return c
	}
	if c := a.CreateDate.Compare(b.CreateDate); c != 0 {
		return c
	}
	if c := cmpString(a.Nonce, b.Nonce); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// ShareStore holds SHARES rows under
// (workinfoid, userid, workername, createdate, nonce, expirydate desc).
type ShareStore struct {
	tbl *store.Table[Share]
}

func NewShareStore() *ShareStore {
	return &ShareStore{tbl: store.NewTable(store.NewIndex(cmpShare, (*Share).SeqNum))}
}

func (s *ShareStore) Add(workinfoid, userid int64, workername, nonce string, diff, sdiff float64, accepted bool) *Share {
	_, rec := s.tbl.Insert(func(h store.Handle, sh *Share) {
		sh.assignSeq(h)
		sh.WorkInfoID = workinfoid
		sh.UserID = userid
		sh.WorkerName = workername
		sh.Nonce = nonce
		sh.Diff = diff
		sh.SDiff = sdiff
		sh.Accepted = accepted
		sh.CreateDate = now()
		sh.ExpiryDate = codec.DefaultExpiry
	})
	return rec
}

// ShareError is a SHAREERRORS row. Its comparator deliberately omits
// nonce, so two distinct errors sharing (workinfoid, userid, createdate)
// compare equal under cmpShareError — per spec.md §9's open question,
// this store's chosen policy is to NOT coalesce them: every row still
// gets its own tree slot because the comparator's tiebreaker (sequence
// number) is never itself equal. See DESIGN.md for the rationale.
type ShareError struct {
	Seq

	WorkInfoID int64
	UserID     int64
	ErrorMsg   string

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpShareError(a, b *ShareError) int {
	if c := cmpInt64(a.WorkInfoID, b.WorkInfoID); c != 0 {
		return c
	}
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := a.CreateDate.Compare(b.CreateDate); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// ShareErrorStore holds SHAREERRORS rows under
// (workinfoid, userid, createdate, expirydate desc).
type ShareErrorStore struct {
	tbl *store.Table[ShareError]
}

func NewShareErrorStore() *ShareErrorStore {
	return &ShareErrorStore{tbl: store.NewTable(store.NewIndex(cmpShareError, (*ShareError).SeqNum))}
}

func (s *ShareErrorStore) Add(workinfoid, userid int64, errmsg string) *ShareError {
	_, rec := s.tbl.Insert(func(h store.Handle, e *ShareError) {
		e.assignSeq(h)
		e.WorkInfoID = workinfoid
		e.UserID = userid
		e.ErrorMsg = errmsg
		e.CreateDate = now()
		e.ExpiryDate = codec.DefaultExpiry
	})
	return rec
}

// ShareSummary is a SHARESUMMARY row: the per-(user, worker, workinfo)
// aggregation of share accounting. Unlike most entities it has no
// expiry dimension — it is mutated in place as shares accrue, until
// Complete marks it settled.
type ShareSummary struct {
	Seq

	UserID     int64
	WorkerName string
	WorkInfoID int64

	DiffAcc  float64
	DiffSta  float64
	ShareSta float64
	Complete bool
}

func cmpShareSummaryByUser(a, b *ShareSummary) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpString(a.WorkerName, b.WorkerName); c != 0 {
		return c
	}
	return cmpInt64(a.WorkInfoID, b.WorkInfoID)
}

func cmpShareSummaryByWorkInfo(a, b *ShareSummary) int {
	if c := cmpInt64(a.WorkInfoID, b.WorkInfoID); c != 0 {
		return c
	}
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmpString(a.WorkerName, b.WorkerName)
}

// ShareSummaryStore holds SHARESUMMARY rows under the two indexes
// spec.md §3.2 declares: (userid, workername, workinfoid) and
// (workinfoid, userid, workername).
type ShareSummaryStore struct {
	tbl        *store.Table[ShareSummary]
	byUser     int
	byWorkInfo int
}

func NewShareSummaryStore() *ShareSummaryStore {
	byUser := store.NewIndex(cmpShareSummaryByUser, (*ShareSummary).SeqNum)
	byWorkInfo := store.NewIndex(cmpShareSummaryByWorkInfo, (*ShareSummary).SeqNum)
	return &ShareSummaryStore{tbl: store.NewTable(byUser, byWorkInfo), byUser: 0, byWorkInfo: 1}
}

// Accumulate finds or creates the SHARESUMMARY row for
// (userid, workername, workinfoid) and adds diffacc/diffsta/sharesta to
// its running totals. A summary already marked complete is returned
// unchanged.
func (s *ShareSummaryStore) Accumulate(userid int64, workername string, workinfoid int64, diffacc, diffsta, sharesta float64) *ShareSummary {
	probe := &ShareSummary{UserID: userid, WorkerName: workername, WorkInfoID: workinfoid}
	var rec *ShareSummary
	s.tbl.WithWriteLock(func() {
		if cur, ok := s.tbl.FindLocked(s.byUser, probe); ok {
			if cur.Complete {
				rec = cur
				return
			}
			s.tbl.UpdateLocked(cur.Handle(), func(sm *ShareSummary) {
				sm.DiffAcc += diffacc
				sm.DiffSta += diffsta
				sm.ShareSta += sharesta
			})
			rec = cur
			return
		}
		_, r := s.tbl.InsertLocked(func(h store.Handle, sm *ShareSummary) {
			sm.assignSeq(h)
			sm.UserID = userid
			sm.WorkerName = workername
			sm.WorkInfoID = workinfoid
			sm.DiffAcc = diffacc
			sm.DiffSta = diffsta
			sm.ShareSta = sharesta
		})
		rec = r
	})
	return rec
}

func (s *ShareSummaryStore) Find(userid int64, workername string, workinfoid int64) (*ShareSummary, bool) {
	probe := &ShareSummary{UserID: userid, WorkerName: workername, WorkInfoID: workinfoid}
	return s.tbl.Find(s.byUser, probe)
}

// MarkComplete flags a summary settled so it is excluded from further
// accumulation.
func (s *ShareSummaryStore) MarkComplete(sm *ShareSummary) {
	s.tbl.Update(sm.Handle(), func(r *ShareSummary) { r.Complete = true })
}
