package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// Auth is an AUTHS row: a record of a worker authentication attempt.
type Auth struct {
	Seq

	UserID     int64
	AuthID     int64
	WorkerName string
	ClientID   int64
	Success    bool

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpAuth(a, b *Auth) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := a.CreateDate.Compare(b.CreateDate); c != 0 {
		return c
	}
	if c := cmpInt64(a.AuthID, b.AuthID); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// AuthStore holds AUTHS rows under (userid, createdate, authid, expirydate desc).
type AuthStore struct {
	tbl    *store.Table[Auth]
	nextID int64
}

func NewAuthStore() *AuthStore {
	return &AuthStore{tbl: store.NewTable(store.NewIndex(cmpAuth, (*Auth).SeqNum))}
}

func (s *AuthStore) Record(userid, clientid int64, workername string, success bool) *Auth {
	authid := nextAuthID(s)
	_, rec := s.tbl.Insert(func(h store.Handle, a *Auth) {
		a.assignSeq(h)
		a.UserID = userid
		a.AuthID = authid
		a.WorkerName = workername
		a.ClientID = clientid
		a.Success = success
		a.CreateDate = now()
		a.ExpiryDate = codec.DefaultExpiry
	})
	return rec
}

func nextAuthID(s *AuthStore) int64 {
	var id int64
	s.tbl.WithWriteLock(func() {
		s.nextID++
		id = s.nextID
	})
	return id
}
