package domain

import (
	"github.com/poolcore/ckdb/internal/codec"
	"github.com/poolcore/ckdb/internal/store"
)

// PoolStats is a POOLSTATS row: a point-in-time snapshot of pool-wide
// statistics. Snapshots are pure inserts, never superseded — the index
// is an ordered time series, not a current/historical pair.
type PoolStats struct {
	Seq

	PoolInstance string
	CreateDate   codec.Timestamp

	Users       int64
	Workers     int64
	Hashrate1m  float64
	Hashrate5m  float64
	Hashrate1hr float64
}

func cmpPoolStats(a, b *PoolStats) int {
	if c := cmpString(a.PoolInstance, b.PoolInstance); c != 0 {
		return c
	}
	return a.CreateDate.Compare(b.CreateDate)
}

// PoolStatsStore holds POOLSTATS rows under (poolinstance, createdate).
type PoolStatsStore struct {
	tbl *store.Table[PoolStats]
}

func NewPoolStatsStore() *PoolStatsStore {
	return &PoolStatsStore{tbl: store.NewTable(store.NewIndex(cmpPoolStats, (*PoolStats).SeqNum))}
}

func (s *PoolStatsStore) Record(poolinstance string, users, workers int64, hr1m, hr5m, hr1hr float64) *PoolStats {
	_, rec := s.tbl.Insert(func(h store.Handle, p *PoolStats) {
		p.assignSeq(h)
		p.PoolInstance = poolinstance
		p.CreateDate = now()
		p.Users = users
		p.Workers = workers
		p.Hashrate1m = hr1m
		p.Hashrate5m = hr5m
		p.Hashrate1hr = hr1hr
	})
	return rec
}

// Latest returns the most recent snapshot for poolinstance, if any.
func (s *PoolStatsStore) Latest(poolinstance string) (*PoolStats, bool) {
	probe := &PoolStats{PoolInstance: poolinstance, CreateDate: codec.DefaultExpiry}
	rec, ok := s.tbl.FindBefore(0, probe)
	if !ok || rec.PoolInstance != poolinstance {
		return nil, false
	}
	return rec, true
}

// UserStats is a USERSTATS row: a point-in-time per-user,
// per-worker statistics snapshot. Four indexes serve four distinct
// access patterns (spec.md §3.2): the homepage wants the latest
// snapshot per user; DB summarisation walks snapshots in time order
// regardless of owner; the worker-status updater looks up by
// (user, worker); reload de-duplication checks whether a given
// (poolinstance, user, worker) has already been recorded for a statsdate.
type UserStats struct {
	Seq

	UserID       int64
	StatsDate    codec.Timestamp
	PoolInstance string
	WorkerName   string
	Hashrate5m   float64
	Hashrate1hr  float64
}

func cmpUserStatsHomepage(a, b *UserStats) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	return -a.StatsDate.Compare(b.StatsDate)
}

func cmpUserStatsSummarise(a, b *UserStats) int {
	if c := a.StatsDate.Compare(b.StatsDate); c != 0 {
		return c
	}
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmpString(a.WorkerName, b.WorkerName)
}

func cmpUserStatsWorkerStatus(a, b *UserStats) int {
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpString(a.WorkerName, b.WorkerName); c != 0 {
		return c
	}
	return -a.StatsDate.Compare(b.StatsDate)
}

func cmpUserStatsReloadDedup(a, b *UserStats) int {
	if c := cmpString(a.PoolInstance, b.PoolInstance); c != 0 {
		return c
	}
	if c := cmpInt64(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := cmpString(a.WorkerName, b.WorkerName); c != 0 {
		return c
	}
	return a.StatsDate.Compare(b.StatsDate)
}

// UserStatsStore holds USERSTATS rows under the four indexes above.
type UserStatsStore struct {
	tbl            *store.Table[UserStats]
	homepage       int
	summarise      int
	workerStatus   int
	reloadDedup    int
}

func NewUserStatsStore() *UserStatsStore {
	homepage := store.NewIndex(cmpUserStatsHomepage, (*UserStats).SeqNum)
	summarise := store.NewIndex(cmpUserStatsSummarise, (*UserStats).SeqNum)
	workerStatus := store.NewIndex(cmpUserStatsWorkerStatus, (*UserStats).SeqNum)
	reloadDedup := store.NewIndex(cmpUserStatsReloadDedup, (*UserStats).SeqNum)
	return &UserStatsStore{
		tbl:          store.NewTable(homepage, summarise, workerStatus, reloadDedup),
		homepage:     0,
		summarise:    1,
		workerStatus: 2,
		reloadDedup:  3,
	}
}

func (s *UserStatsStore) Record(userid int64, poolinstance, workername string, hr5m, hr1hr float64) *UserStats {
	_, rec := s.tbl.Insert(func(h store.Handle, u *UserStats) {
		u.assignSeq(h)
		u.UserID = userid
		u.StatsDate = now()
		u.PoolInstance = poolinstance
		u.WorkerName = workername
		u.Hashrate5m = hr5m
		u.Hashrate1hr = hr1hr
	})
	return rec
}

// Latest returns the most recent snapshot for userid, for the homepage
// access pattern. The homepage index sorts statsdate descending within
// a user, so the record immediately at-or-after a probe dated at the
// sentinel maximum is that user's latest snapshot.
func (s *UserStatsStore) Latest(userid int64) (*UserStats, bool) {
	probe := &UserStats{UserID: userid, StatsDate: codec.DefaultExpiry}
	rec, ok := s.tbl.FindAfter(s.homepage, probe)
	if !ok || rec.UserID != userid {
		return nil, false
	}
	return rec, true
}

// AlreadyReloaded reports whether a snapshot for exactly
// (poolinstance, userid, workername, statsdate) has already been
// recorded, for reload de-duplication.
func (s *UserStatsStore) AlreadyReloaded(poolinstance string, userid int64, workername string, statsdate codec.Timestamp) bool {
	probe := &UserStats{PoolInstance: poolinstance, UserID: userid, WorkerName: workername, StatsDate: statsdate}
	_, ok := s.tbl.Find(s.reloadDedup, probe)
	return ok
}
