package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// UserAtt is a USERATTS row: an arbitrary named attribute attached to a
// user account.
type UserAtt struct {
	Seq

	UserID  int64
	AttName string
	Value   string

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpUserAtt(a, b *UserAtt) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpString(a.AttName, b.AttName); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// UserAttStore holds USERATTS rows under (userid, attname, expirydate desc).
type UserAttStore struct {
	tbl *store.Table[UserAtt]
}

func NewUserAttStore() *UserAttStore {
	return &UserAttStore{tbl: store.NewTable(store.NewIndex(cmpUserAtt, (*UserAtt).SeqNum))}
}

// Set supersedes the current value of attname for userid (or creates it,
// if absent) with value.
func (s *UserAttStore) Set(userid int64, attname, value string) *UserAtt {
	var result *UserAtt
	s.tbl.WithWriteLock(func() {
		probe := &UserAtt{UserID: userid, AttName: attname, ExpiryDate: codec.DefaultExpiry}
		if cur, ok := s.tbl.FindLocked(0, probe); ok {
			s.tbl.UpdateLocked(cur.Handle(), func(a *UserAtt) { a.ExpiryDate = now() })
		}
		_, rec := s.tbl.InsertLocked(func(h store.Handle, a *UserAtt) {
			a.assignSeq(h)
			a.UserID = userid
			a.AttName = attname
			a.Value = value
			a.CreateDate = now()
			a.ExpiryDate = codec.DefaultExpiry
		})
		result = rec
	})
	return result
}

// FindCurrent returns the current value of attname for userid, if set.
func (s *UserAttStore) FindCurrent(userid int64, attname string) (*UserAtt, bool) {
	probe := &UserAtt{UserID: userid, AttName: attname, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(0, probe)
}
