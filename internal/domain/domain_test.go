package domain

import (
	"testing"
	"time"

	"github.com/poolcore/ckdb/internal/codec"
)

func tsAt(y int, m time.Month, d int) codec.Timestamp {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return codec.Timestamp{Sec: t.Unix(), USec: 0}
}

// Three "fee" rows, pool height 50, now 2020-03-01: the row with
// activationheight 100 is ineligible, and among the remaining two the
// one with the later activationdate wins.
func TestOptionControlResolveWinnerByActivationDate(t *testing.T) {
	s := NewOptionControlStore()
	s.Set("fee", "1", tsAt(2020, 1, 1), 1)
	s.Set("fee", "2", tsAt(2020, 1, 1), 100)
	s.Set("fee", "3", tsAt(2020, 2, 1), 1)

	winner, ok := s.Resolve("fee", 50, tsAt(2020, 3, 1))
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner.OptionValue != "3" {
		t.Fatalf("expected row 3 to win, got value %q", winner.OptionValue)
	}
}

func TestOptionControlResolveExcludesFutureActivationDate(t *testing.T) {
	s := NewOptionControlStore()
	s.Set("fee", "early", tsAt(2020, 1, 1), 1)
	s.Set("fee", "late", tsAt(2025, 1, 1), 1)

	winner, ok := s.Resolve("fee", 1000, tsAt(2020, 6, 1))
	if !ok || winner.OptionValue != "early" {
		t.Fatalf("expected early row to win since late is not yet active, got %+v ok=%v", winner, ok)
	}
}

func TestOptionControlResolveNoEligibleRows(t *testing.T) {
	s := NewOptionControlStore()
	s.Set("fee", "too-high", tsAt(2020, 1, 1), 500)

	if _, ok := s.Resolve("fee", 10, tsAt(2020, 6, 1)); ok {
		t.Fatal("expected no eligible rows")
	}
}

func TestBlockFindPrevSkipsNewAndHistorical(t *testing.T) {
	s := NewBlockStore()

	b1, err := s.Add(100, blockHash(0x01))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.AddConfirm(b1, 1) // -> CONFIRM

	if _, err := s.Add(200, blockHash(0x02)); err != nil { // stays NEW, must be skipped
		t.Fatalf("Add: %v", err)
	}

	b3, err := s.Add(300, blockHash(0x03))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.AddConfirm(b3, 50) // -> CONFIRMED

	prev, ok := s.FindPrev(300)
	if !ok {
		t.Fatal("expected a previous confirmed block")
	}
	if prev.Height != 100 {
		t.Fatalf("expected to skip the NEW block at height 200, got height %d", prev.Height)
	}
}

func TestBlockAddConfirmIgnoresOrphan(t *testing.T) {
	s := NewBlockStore()
	b, err := s.Add(100, blockHash(0x09))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.MarkOrphan(b)
	s.AddConfirm(b, 50)

	cur, ok := s.tbl.Get(b.Handle())
	if !ok {
		t.Fatal("expected block to still exist")
	}
	if cur.State != BlockOrphan {
		t.Fatalf("expected orphaned block to stay orphaned, got %s", cur.State)
	}
}

// blockHash returns a syntactically valid 32-byte block hash, keyed by
// a single distinguishing byte so different calls produce distinct hashes.
func blockHash(b byte) string {
	bs := make([]byte, 64)
	for i := range bs {
		bs[i] = '0'
	}
	hex := "0123456789abcdef"
	bs[62] = hex[b>>4]
	bs[63] = hex[b&0xf]
	return string(bs)
}

func TestWorkInfoAddDecodesHeightAndIndexesBoth(t *testing.T) {
	s := NewWorkInfoStore()
	// push-length byte 0x03 at hex offset 84, followed by "a10600" -> height 1697.
	coinbase1 := "00" + // pad to offset 84 in two-hex-char steps below
		repeatHex(41) + "03a10600"
	rec := s.Add(42, coinbase1)

	if rec.Height != 1697 {
		t.Fatalf("expected decoded height 1697, got %d", rec.Height)
	}

	byID, ok := s.FindByID(42)
	if !ok || byID.WorkInfoID != 42 {
		t.Fatalf("expected to find by id, got %+v ok=%v", byID, ok)
	}

	byHeight, ok := s.FindAfterHeight(1697)
	if !ok || byHeight.Height != 1697 {
		t.Fatalf("expected to find by height, got %+v ok=%v", byHeight, ok)
	}
}

// repeatHex returns n*2 hex characters of padding so the push-length
// byte in TestWorkInfoAddDecodesHeightAndIndexesBoth lands at hex
// character offset 84 (byte 42) in the coinbase-1 string.
func repeatHex(n int) string {
	b := make([]byte, n*2)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func TestUserSupersedeRoundTrip(t *testing.T) {
	s := NewUserStore()
	u := s.Create("alice", "salt", "hash", "alice@example.com")

	next, ok := s.Supersede("alice", func(n *User) { n.Email = "alice2@example.com" })
	if !ok {
		t.Fatal("expected supersede to succeed")
	}
	if next.UserID != u.UserID {
		t.Fatalf("expected userid to be preserved across supersede, got %d want %d", next.UserID, u.UserID)
	}
	if next.Email != "alice2@example.com" {
		t.Fatalf("expected mutated email, got %q", next.Email)
	}

	cur, ok := s.FindCurrentByUsername("alice")
	if !ok || cur.Email != "alice2@example.com" {
		t.Fatalf("expected current row to reflect the supersede, got %+v ok=%v", cur, ok)
	}

	oldRow, ok := s.tbl.Get(u.Handle())
	if !ok {
		t.Fatal("expected the old row to still exist in the store")
	}
	if oldRow.ExpiryDate.IsDefaultExpiry() {
		t.Fatal("expected the superseded row to have a real expirydate")
	}
}

func TestWorkerSupersedeRoundTrip(t *testing.T) {
	s := NewWorkerStore()
	s.Supersede(1, "rig1", func(w *Worker) { w.Difficulty = 1024 })

	cur, ok := s.FindCurrent(1, "rig1")
	if !ok || cur.Difficulty != 1024 {
		t.Fatalf("expected difficulty 1024, got %+v ok=%v", cur, ok)
	}

	s.Supersede(1, "rig1", func(w *Worker) { w.Difficulty = 2048 })
	cur, ok = s.FindCurrent(1, "rig1")
	if !ok || cur.Difficulty != 2048 {
		t.Fatalf("expected difficulty 2048 after second supersede, got %+v ok=%v", cur, ok)
	}
}

func TestMiningPayoutAtMostOnePerBlockUser(t *testing.T) {
	s := NewMiningPayoutStore()

	if _, ok := s.Add(100, 1, 500); !ok {
		t.Fatal("expected first payout to succeed")
	}
	if _, ok := s.Add(100, 1, 999); ok {
		t.Fatal("expected a second payout for the same (block,user) to be refused")
	}

	cur, ok := s.FindCurrent(100, 1)
	if !ok || cur.Amount != 500 {
		t.Fatalf("expected the original payout to remain current, got %+v ok=%v", cur, ok)
	}

	s.Supersede(100, 1, 750)
	cur, ok = s.FindCurrent(100, 1)
	if !ok || cur.Amount != 750 {
		t.Fatalf("expected supersede to update the current payout, got %+v ok=%v", cur, ok)
	}
}

func TestPaymentAddressAddRejectsMalformedAddress(t *testing.T) {
	s := NewPaymentAddressStore()

	if _, err := s.Add(1, "not-a-real-address"); err == nil {
		t.Fatal("expected a malformed address to be rejected")
	}

	rec, err := s.Add(1, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if err != nil {
		t.Fatalf("expected a valid mainnet address to be accepted, got %v", err)
	}

	cur, ok := s.FindCurrent(1)
	if !ok || cur.PayAddress != rec.PayAddress {
		t.Fatalf("expected the accepted address to be current, got %+v ok=%v", cur, ok)
	}
}

func TestBlockAddRejectsMalformedHash(t *testing.T) {
	s := NewBlockStore()
	if _, err := s.Add(100, "not-a-hash"); err == nil {
		t.Fatal("expected a malformed block hash to be rejected")
	}
}

func TestBlockOnChangeFiresOnStateTransitionsOnly(t *testing.T) {
	s := NewBlockStore()
	var notified []BlockState
	s.OnChange(func(b *Block) { notified = append(notified, b.State) })

	b, err := s.Add(100, blockHash(0x11))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	s.AddConfirm(b, 1) // NEW -> CONFIRM, should notify
	s.AddConfirm(b, 1) // still CONFIRM, should not notify again
	s.AddConfirm(b, 50) // CONFIRM -> CONFIRMED, should notify
	s.MarkOrphan(b)     // unreached state for an already-confirmed block, should notify

	want := []BlockState{BlockConfirm, BlockConfirmed, BlockOrphan}
	if len(notified) != len(want) {
		t.Fatalf("expected %d notifications, got %d: %v", len(want), len(notified), notified)
	}
	for i, s := range want {
		if notified[i] != s {
			t.Fatalf("notification %d: got %s, want %s", i, notified[i], s)
		}
	}
}

func TestOptionControlOnChangeFiresOnSet(t *testing.T) {
	s := NewOptionControlStore()
	var notified []string
	s.OnChange(func(o *OptionControl) { notified = append(notified, o.OptionValue) })

	s.Set("fee", "1", tsAt(2020, 1, 1), 1)
	s.Set("fee", "2", tsAt(2020, 2, 1), 1)

	if len(notified) != 2 || notified[0] != "1" || notified[1] != "2" {
		t.Fatalf("expected notifications for both Set calls in order, got %v", notified)
	}
}
