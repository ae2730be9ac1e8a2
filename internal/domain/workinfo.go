package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
	"github.com/poolcore/ckdb/internal/workheight"
)

// WorkInfo is a WORKINFO row: the pool's description of a unit of work
// handed to miners. Height is decoded once at insertion time from the
// coinbase-1 hex (see internal/workheight) and then used purely as a
// comparator input, per spec.md §4.8.
type WorkInfo struct {
	Seq

	WorkInfoID  int64
	CoinbaseHex string
	Height      int64

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpWorkInfoByID(a, b *WorkInfo) int {
	if c := cmpInt64(a.WorkInfoID, b.WorkInfoID); c != 0 {
		return c
	}
	return a.ExpiryDate.Compare(b.ExpiryDate)
}

func cmpWorkInfoByHeight(a, b *WorkInfo) int {
	if c := cmpInt64(a.Height, b.Height); c != 0 {
		return c
	}
	return a.CreateDate.Compare(b.CreateDate)
}

// WorkInfoStore holds WORKINFO rows under two indexes: (workinfoid,
// expirydate) and (height-from-coinbase1, createdate).
type WorkInfoStore struct {
	tbl      *store.Table[WorkInfo]
	byID     int
	byHeight int
}

func NewWorkInfoStore() *WorkInfoStore {
	byID := store.NewIndex(cmpWorkInfoByID, (*WorkInfo).SeqNum)
	byHeight := store.NewIndex(cmpWorkInfoByHeight, (*WorkInfo).SeqNum)
	return &WorkInfoStore{tbl: store.NewTable(byID, byHeight), byID: 0, byHeight: 1}
}

// Add inserts a new WORKINFO row, decoding its height from coinbase1hex
// via the shared work-height decoder.
func (s *WorkInfoStore) Add(workinfoid int64, coinbase1hex string) *WorkInfo {
	height := workheight.DecodeHex(coinbase1hex)
	_, rec := s.tbl.Insert(func(h store.Handle, w *WorkInfo) {
		w.assignSeq(h)
		w.WorkInfoID = workinfoid
		w.CoinbaseHex = coinbase1hex
		w.Height = height
		w.CreateDate = now()
		w.ExpiryDate = codec.DefaultExpiry
	})
	return rec
}

func (s *WorkInfoStore) FindByID(workinfoid int64) (*WorkInfo, bool) {
	probe := &WorkInfo{WorkInfoID: workinfoid, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(s.byID, probe)
}

// FindAfterHeight returns the earliest WORKINFO row at or after height.
func (s *WorkInfoStore) FindAfterHeight(height int64) (*WorkInfo, bool) {
	probe := &WorkInfo{Height: height}
	return s.tbl.FindAfter(s.byHeight, probe)
}
