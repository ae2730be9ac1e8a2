package domain

import (
	"sync/atomic"

	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// User is a USERS row (spec.md §3.2). Salt is 32 lowercase hex
// characters, PasswordHash 64. Salt is empty for legacy no-salt
// accounts, whose PasswordHash is compared directly against the
// candidate (see the credential package).
type User struct {
	Seq

	Username     string
	UserID       int64
	Salt         string
	PasswordHash string
	Email        string

	CreateDate codec.Timestamp
	ExpiryDate codec.Timestamp
}

func cmpUserByName(a, b *User) int {
	if c := cmpString(a.Username, b.Username); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

func cmpUserByID(a, b *User) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmpExpiryDesc(a.ExpiryDate, b.ExpiryDate)
}

// UserStore holds USERS rows under the two indexes spec.md §3.2
// declares: by username and by userid, both current-row-first.
type UserStore struct {
	tbl    *store.Table[User]
	byName int
	byID   int
	nextID int64
}

func NewUserStore() *UserStore {
	byName := store.NewIndex(cmpUserByName, (*User).SeqNum)
	byID := store.NewIndex(cmpUserByID, (*User).SeqNum)
	return &UserStore{
		tbl:    store.NewTable(byName, byID),
		byName: 0,
		byID:   1,
	}
}

// Create inserts a new current USERS row, assigning a fresh UserID.
func (s *UserStore) Create(username, salt, passwordHash, email string) *User {
	id := atomic.AddInt64(&s.nextID, 1)
	_, rec := s.tbl.Insert(func(h store.Handle, u *User) {
		u.assignSeq(h)
		u.Username = username
		u.UserID = id
		u.Salt = salt
		u.PasswordHash = passwordHash
		u.Email = email
		u.CreateDate = now()
		u.ExpiryDate = codec.DefaultExpiry
	})
	return rec
}

// FindCurrentByUsername returns the current USERS row for username, if any.
func (s *UserStore) FindCurrentByUsername(username string) (*User, bool) {
	probe := &User{Username: username, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(s.byName, probe)
}

// FindCurrentByUserID returns the current USERS row for userid, if any.
func (s *UserStore) FindCurrentByUserID(userid int64) (*User, bool) {
	probe := &User{UserID: userid, ExpiryDate: codec.DefaultExpiry}
	return s.tbl.Find(s.byID, probe)
}

// Supersede expires the current row for username and inserts a new
// current row seeded from it and then adjusted by mutate, as one atomic
// unit (spec.md §3.3).
func (s *UserStore) Supersede(username string, mutate func(next *User)) (*User, bool) {
	var result *User
	var ok bool
	s.tbl.WithWriteLock(func() {
		probe := &User{Username: username, ExpiryDate: codec.DefaultExpiry}
		cur, found := s.tbl.FindLocked(s.byName, probe)
		if !found {
			return
		}
		s.tbl.UpdateLocked(cur.Handle(), func(u *User) { u.ExpiryDate = now() })
		_, rec := s.tbl.InsertLocked(func(h store.Handle, u *User) {
			*u = *cur
			u.assignSeq(h)
			u.ExpiryDate = codec.DefaultExpiry
			mutate(u)
		})
		result, ok = rec, true
	})
	return result, ok
}
