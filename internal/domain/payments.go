package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// PaymentAddress is a PAYMENTADDRESSES row: a payout address registered
// by a user, historised so a user can change address without losing the
// audit trail of prior ones.
type PaymentAddress struct {
	Seq

	UserID     int64
	PayAddress string

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpPaymentAddress(a, b *PaymentAddress) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate); c != 0 {
		return c
	}
	return cmpString(a.PayAddress, b.PayAddress)
}

// PaymentAddressStore holds PAYMENTADDRESSES rows under
// (userid, expirydate desc, payaddress).
type PaymentAddressStore struct {
	tbl *store.Table[PaymentAddress]
}

func NewPaymentAddressStore() *PaymentAddressStore {
	return &PaymentAddressStore{tbl: store.NewTable(store.NewIndex(cmpPaymentAddress, (*PaymentAddress).SeqNum))}
}

// Add registers a new current payment address for userid, rejecting
// anything that doesn't decode as a valid address on any of the
// networks this pool might run against.
func (s *PaymentAddressStore) Add(userid int64, payaddress string) (*PaymentAddress, error) {
	if err := validatePayAddress(payaddress); err != nil {
		return nil, fmt.Errorf("paymentaddress: %w", err)
	}
	_, rec := s.tbl.Insert(func(h store.Handle, p *PaymentAddress) {
		p.assignSeq(h)
		p.UserID = userid
		p.PayAddress = payaddress
		p.CreateDate = now()
		p.ExpiryDate = codec.DefaultExpiry
	})
	return rec, nil
}

// validatePayAddress decodes addr against mainnet, testnet, and
// regtest in turn, since a pool's payout address may be registered
// against any network the operator deployed against.
func validatePayAddress(addr string) error {
	nets := []*chaincfg.Params{
		&chaincfg.MainNetParams,
		&chaincfg.TestNet3Params,
		&chaincfg.RegressionNetParams,
	}
	var lastErr error
	for _, net := range nets {
		_, err := btcutil.DecodeAddress(addr, net)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// FindCurrent implements find_paymentaddresses (spec.md §4.3):
// find_after with (userid, "", EOT-sentinel) then check the first
// result still matches userid and is current.
func (s *PaymentAddressStore) FindCurrent(userid int64) (*PaymentAddress, bool) {
	probe := &PaymentAddress{UserID: userid, ExpiryDate: codec.DefaultExpiry, PayAddress: ""}
	rec, ok := s.tbl.FindAfter(0, probe)
	if !ok || rec.UserID != userid || !rec.ExpiryDate.IsDefaultExpiry() {
		return nil, false
	}
	return rec, true
}

// Payment is a PAYMENTS row: a record of a payout transaction to an
// address.
type Payment struct {
	Seq

	UserID     int64
	PayDate    codec.Timestamp
	PayAddress string
	Amount     int64

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpPayment(a, b *Payment) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := a.PayDate.Compare(b.PayDate); c != 0 {
		return c
	}
	if c := cmpString(a.PayAddress, b.PayAddress); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// PaymentStore holds PAYMENTS rows under
// (userid, paydate, payaddress, expirydate desc).
type PaymentStore struct {
	tbl *store.Table[Payment]
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{tbl: store.NewTable(store.NewIndex(cmpPayment, (*Payment).SeqNum))}
}

func (s *PaymentStore) Record(userid int64, paydate codec.Timestamp, payaddress string, amount int64) *Payment {
	_, rec := s.tbl.Insert(func(h store.Handle, p *Payment) {
		p.assignSeq(h)
		p.UserID = userid
		p.PayDate = paydate
		p.PayAddress = payaddress
		p.Amount = amount
		p.CreateDate = now()
		p.ExpiryDate = codec.DefaultExpiry
	})
	return rec
}
