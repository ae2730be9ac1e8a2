package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// BlockState is a BLOCKS row's lifecycle state (spec.md §3.2): a found
// block starts NEW, advances to CONFIRM once it has a single
// confirmation, accrues Confirms until it is considered buried, or is
// marked ORPHAN if another chain branch won.
type BlockState int

const (
	BlockNew BlockState = iota
	BlockConfirm
	BlockConfirmed
	BlockOrphan
)

// confirmedThreshold is the confirmation count (spec.md §3.2's "42
// confirmations") at which a CONFIRM block is promoted to Confirmed.
const confirmedThreshold = 42

func (s BlockState) String() string {
	switch s {
	case BlockNew:
		return "NEW"
	case BlockConfirm:
		return "CONFIRM"
	case BlockConfirmed:
		return "CONFIRMED"
	case BlockOrphan:
		return "ORPHAN"
	default:
		return "UNKNOWN"
	}
}

// Block is a BLOCKS row: a block the pool found, tracked through its
// confirmation lifecycle.
type Block struct {
	Seq

	Height    int64
	BlockHash string
	State     BlockState
	Confirms  int64

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpBlock(a, b *Block) int {
	if c := cmpInt64(a.Height, b.Height); c != 0 {
		return c
	}
	if c := cmpString(a.BlockHash, b.BlockHash); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// BlockStore holds BLOCKS rows under (height, blockhash, expirydate desc).
type BlockStore struct {
	tbl      *store.Table[Block]
	onChange func(*Block)
}

func NewBlockStore() *BlockStore {
	return &BlockStore{tbl: store.NewTable(store.NewIndex(cmpBlock, (*Block).SeqNum))}
}

// OnChange registers fn to be called, outside any lock, whenever
// AddConfirm or MarkOrphan actually transitions a block's state — the
// hook spec.md §4.12's stats broadcaster attaches itself to.
func (s *BlockStore) OnChange(fn func(*Block)) {
	s.onChange = fn
}

// Add records a newly found block, rejecting a blockhash that doesn't
// parse as a 32-byte block hash.
func (s *BlockStore) Add(height int64, blockhash string) (*Block, error) {
	if _, err := chainhash.NewHashFromStr(blockhash); err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}
	_, rec := s.tbl.Insert(func(h store.Handle, b *Block) {
		b.assignSeq(h)
		b.Height = height
		b.BlockHash = blockhash
		b.State = BlockNew
		b.CreateDate = now()
		b.ExpiryDate = codec.DefaultExpiry
	})
	return rec, nil
}

func (s *BlockStore) FindCurrent(height int64, blockhash string) (*Block, bool) {
	probe := &Block{Height: height, BlockHash: blockhash, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(0, probe)
}

// AddConfirm advances a block's confirmation count in place, promoting
// it to Confirmed once confirmedThreshold is reached. Orphaned blocks
// are not mutated by further confirmations.
func (s *BlockStore) AddConfirm(b *Block, confirms int64) {
	var changed bool
	rec, ok := s.tbl.Update(b.Handle(), func(r *Block) {
		if r.State == BlockOrphan {
			return
		}
		before := r.State
		r.Confirms = confirms
		switch {
		case confirms >= confirmedThreshold:
			r.State = BlockConfirmed
		case confirms > 0:
			r.State = BlockConfirm
		}
		changed = r.State != before
	})
	if ok && changed && s.onChange != nil {
		s.onChange(rec)
	}
}

// MarkOrphan flips a block to the ORPHAN state.
func (s *BlockStore) MarkOrphan(b *Block) {
	var changed bool
	rec, ok := s.tbl.Update(b.Handle(), func(r *Block) {
		changed = r.State != BlockOrphan
		r.State = BlockOrphan
	})
	if ok && changed && s.onChange != nil {
		s.onChange(rec)
	}
}

// FindPrev implements find_prev_blocks (spec.md §4.3): find_before with
// (height, "", epoch=0) then walk prev skipping rows with state NEW or
// non-current expirydate, until a qualifying row is found.
func (s *BlockStore) FindPrev(height int64) (*Block, bool) {
	probe := &Block{Height: height, BlockHash: "", ExpiryDate: codec.Timestamp{}}
	var result *Block
	s.tbl.WithReadLock(func() {
		cur, ok := s.tbl.FindBeforeLocked(0, probe)
		for ok {
			if cur.State != BlockNew && cur.ExpiryDate.IsDefaultExpiry() {
				result = cur
				return
			}
			cur, ok = s.tbl.PrevLocked(0, cur)
		}
	})
	return result, result != nil
}

// MiningPayout is a MININGPAYOUTS row: the payout owed to a user for a
// specific block. At most one current payout exists per (height,
// userid), enforced by FindCurrent before insert.
type MiningPayout struct {
	Seq

	Height int64
	UserID int64
	Amount int64

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

// cmpMiningPayout orders expirydate *ascending*, matching spec.md §3.2's
// literal index declaration "(height, userid, expirydate)" — unlike
// every other historisable entity, this index does not use the
// descending-expirydate tiebreaker, since lookups go through
// FindCurrent's exact-match probe rather than a prev/next walk that
// depends on current-row-first ordering.
func cmpMiningPayout(a, b *MiningPayout) int {
	if c := cmpInt64(a.Height, b.Height); c != 0 {
		return c
	}
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmpExpiryAsc(a.ExpiryDate, b.ExpiryDate)
}

// MiningPayoutStore holds MININGPAYOUTS rows under (height, userid, expirydate).
type MiningPayoutStore struct {
	tbl *store.Table[MiningPayout]
}

func NewMiningPayoutStore() *MiningPayoutStore {
	return &MiningPayoutStore{tbl: store.NewTable(store.NewIndex(cmpMiningPayout, (*MiningPayout).SeqNum))}
}

func (s *MiningPayoutStore) FindCurrent(height, userid int64) (*MiningPayout, bool) {
	probe := &MiningPayout{Height: height, UserID: userid, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(0, probe)
}

// Add enforces "at most one payout per (block,user)" by refusing to
// insert over an existing current row; callers that want to change an
// amount must go through Supersede.
func (s *MiningPayoutStore) Add(height, userid, amount int64) (*MiningPayout, bool) {
	if _, exists := s.FindCurrent(height, userid); exists {
		return nil, false
	}
	_, rec := s.tbl.Insert(func(h store.Handle, m *MiningPayout) {
		m.assignSeq(h)
		m.Height = height
		m.UserID = userid
		m.Amount = amount
		m.CreateDate = now()
		m.ExpiryDate = codec.DefaultExpiry
	})
	return rec, true
}

// Supersede expires the current payout for (height, userid), if any,
// and inserts a new one with the given amount.
func (s *MiningPayoutStore) Supersede(height, userid, amount int64) *MiningPayout {
	var result *MiningPayout
	s.tbl.WithWriteLock(func() {
		probe := &MiningPayout{Height: height, UserID: userid, ExpiryDate: codec.DefaultExpiry}
		if cur, ok := s.tbl.FindLocked(0, probe); ok {
			s.tbl.UpdateLocked(cur.Handle(), func(m *MiningPayout) { m.ExpiryDate = now() })
		}
		_, rec := s.tbl.InsertLocked(func(h store.Handle, m *MiningPayout) {
			m.assignSeq(h)
			m.Height = height
			m.UserID = userid
			m.Amount = amount
			m.CreateDate = now()
			m.ExpiryDate = codec.DefaultExpiry
		})
		result = rec
	})
	return result
}
