package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// Worker is a WORKERS row: per-worker difficulty and idle-notification
// settings, historised like every other config row.
type Worker struct {
	Seq

	UserID               int64
	WorkerName           string
	Difficulty           int64
	IdleNotificationMins  int64

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpWorker(a, b *Worker) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpString(a.WorkerName, b.WorkerName); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// WorkerStore holds WORKERS rows under (userid, workername, expirydate desc).
type WorkerStore struct {
	tbl *store.Table[Worker]
}

func NewWorkerStore() *WorkerStore {
	return &WorkerStore{tbl: store.NewTable(store.NewIndex(cmpWorker, (*Worker).SeqNum))}
}

// FindCurrent returns the current WORKERS row for (userid, workername).
func (s *WorkerStore) FindCurrent(userid int64, workername string) (*Worker, bool) {
	probe := &Worker{UserID: userid, WorkerName: workername, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(0, probe)
}

// Supersede expires the current row for (userid, workername), if any,
// and inserts a new current row built by mutate.
func (s *WorkerStore) Supersede(userid int64, workername string, mutate func(w *Worker)) *Worker {
	var result *Worker
	s.tbl.WithWriteLock(func() {
		probe := &Worker{UserID: userid, WorkerName: workername, ExpiryDate: codec.DefaultExpiry}
		if cur, ok := s.tbl.FindLocked(0, probe); ok {
			s.tbl.UpdateLocked(cur.Handle(), func(w *Worker) { w.ExpiryDate = now() })
		}
		_, rec := s.tbl.InsertLocked(func(h store.Handle, w *Worker) {
			w.assignSeq(h)
			w.UserID = userid
			w.WorkerName = workername
			w.CreateDate = now()
			w.ExpiryDate = codec.DefaultExpiry
			mutate(w)
		})
		result = rec
	})
	return result
}

// WorkerStatus is a WORKERSTATUS row: an in-memory, non-historised cache
// of live worker state, created on demand (spec.md §4.3).
type WorkerStatus struct {
	Seq

	UserID     int64
	WorkerName string

	LastShare   codec.Timestamp
	LastAuth    codec.Timestamp
	Difficulty  float64
	Idle        bool
}

func cmpWorkerStatus(a, b *WorkerStatus) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmpString(a.WorkerName, b.WorkerName)
}

// WorkerStatusStore holds WORKERSTATUS rows under (userid, workername),
// with no expiry dimension: rows are mutated in place.
type WorkerStatusStore struct {
	tbl *store.Table[WorkerStatus]
}

func NewWorkerStatusStore() *WorkerStatusStore {
	return &WorkerStatusStore{tbl: store.NewTable(store.NewIndex(cmpWorkerStatus, (*WorkerStatus).SeqNum))}
}

// FindCreate implements find_create_workerstatus (spec.md §4.3): looks
// up the live status row; if absent and create is false, returns
// (nil, false); if absent and create is true, allocates and inserts a
// fresh zeroed row keyed on (userid, workername).
func (s *WorkerStatusStore) FindCreate(userid int64, workername string, create bool) (*WorkerStatus, bool) {
	probe := &WorkerStatus{UserID: userid, WorkerName: workername}
	if ws, ok := s.tbl.Find(0, probe); ok {
		return ws, true
	}
	if !create {
		return nil, false
	}
	var rec *WorkerStatus
	s.tbl.WithWriteLock(func() {
		if cur, ok := s.tbl.FindLocked(0, probe); ok {
			rec = cur
			return
		}
		_, r := s.tbl.InsertLocked(func(h store.Handle, ws *WorkerStatus) {
			ws.assignSeq(h)
			ws.UserID = userid
			ws.WorkerName = workername
		})
		rec = r
	})
	return rec, true
}

// Update mutates the live status row in place under the table's write
// lock. The (userid, workername) key fields must not be changed by fn.
func (s *WorkerStatusStore) Update(ws *WorkerStatus, fn func(*WorkerStatus)) {
	s.tbl.Update(ws.Handle(), fn)
}
