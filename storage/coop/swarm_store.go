// Package coop implements a SwarmStore with the same two-level layout as
// the fine strategy, but built on weighted semaphores instead of blocking
// mutexes.
//
// Waiters park in the semaphore's queue rather than spinning in the runtime
// futex path, which trades per-operation overhead for smoother behavior when
// many goroutines pile up on one hot swarm.
package coop

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/pkg/log"
	"github.com/swarmd/swarmd/pkg/stop"
	"github.com/swarmd/swarmd/pkg/timecache"
	"github.com/swarmd/swarmd/storage"
)

// Name is the name by which this strategy is registered.
const Name = "coop"

func init() {
	storage.RegisterDriver(Name, driver{})
}

type driver struct{}

func (d driver) NewSwarmStore(cfg storage.Config) (storage.SwarmStore, error) {
	return New(cfg)
}

// maxReaders bounds concurrent readers of the infohash map. A writer
// acquires the full weight, excluding all readers.
const maxReaders = 64

// coopMutex is a mutual exclusion lock backed by a weighted semaphore.
type coopMutex struct {
	sem *semaphore.Weighted
}

func newCoopMutex() coopMutex {
	return coopMutex{sem: semaphore.NewWeighted(1)}
}

func (m coopMutex) Lock() {
	// Acquire cannot fail with a background context.
	_ = m.sem.Acquire(context.Background(), 1)
}

func (m coopMutex) Unlock() {
	m.sem.Release(1)
}

// coopRWMutex is a reader/writer lock backed by a weighted semaphore.
type coopRWMutex struct {
	sem *semaphore.Weighted
}

func newCoopRWMutex() coopRWMutex {
	return coopRWMutex{sem: semaphore.NewWeighted(maxReaders)}
}

func (m coopRWMutex) RLock()   { _ = m.sem.Acquire(context.Background(), 1) }
func (m coopRWMutex) RUnlock() { m.sem.Release(1) }
func (m coopRWMutex) Lock()    { _ = m.sem.Acquire(context.Background(), maxReaders) }
func (m coopRWMutex) Unlock()  { m.sem.Release(maxReaders) }

// New creates a SwarmStore synchronized with weighted semaphores.
func New(cfg storage.Config) (storage.SwarmStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ss := &swarmStore{
		cfg:     cfg,
		mu:      newCoopRWMutex(),
		entries: make(map[bittorrent.InfoHash]*entry),
		closing: make(chan struct{}),
	}

	ss.wg.Add(1)
	go func() {
		defer ss.wg.Done()
		for {
			select {
			case <-ss.closing:
				return
			case <-time.After(cfg.GarbageCollectionInterval):
				start := time.Now()
				res := ss.MaintenanceSweep(timecache.Now(), cfg.PeerLifetime)
				storage.RecordSweep(time.Since(start), ss.MetricsSnapshot())
				log.Debug("coop: maintenance sweep finished", log.Fields{
					"entriesPruned": res.EntriesPruned,
					"peersPruned":   res.PeersPruned,
				})
			}
		}
	}()

	return ss, nil
}

// entry pairs a swarm with its lock; see the fine strategy for the dead
// flag protocol, which is identical here.
type entry struct {
	mu    coopMutex
	swarm *storage.Swarm
	dead  bool
}

func newEntry() *entry {
	return &entry{mu: newCoopMutex(), swarm: storage.NewSwarm()}
}

type swarmStore struct {
	cfg     storage.Config
	mu      coopRWMutex
	entries map[bittorrent.InfoHash]*entry

	closing chan struct{}
	wg      sync.WaitGroup
}

var _ storage.SwarmStore = &swarmStore{}

func (ss *swarmStore) requireOpen() {
	select {
	case <-ss.closing:
		panic("attempted to interact with stopped coop swarm store")
	default:
	}
}

func (ss *swarmStore) lockExisting(ih bittorrent.InfoHash) (*entry, bool) {
	ss.mu.RLock()
	e, ok := ss.entries[ih]
	ss.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return nil, false
	}
	return e, true
}

func (ss *swarmStore) UpsertPeerAndSnapshot(ih bittorrent.InfoHash, r bittorrent.PeerRecord) storage.SwarmSnapshot {
	ss.requireOpen()

	for {
		ss.mu.RLock()
		e, ok := ss.entries[ih]
		ss.mu.RUnlock()

		if !ok {
			ss.mu.Lock()
			e, ok = ss.entries[ih]
			if !ok {
				e = newEntry()
				ss.entries[ih] = e
				storage.RecordSwarmCreated()
			}
			ss.mu.Unlock()
		}

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		snap := e.swarm.UpsertPeer(r)
		e.mu.Unlock()
		return snap
	}
}

func (ss *swarmStore) RemovePeer(ih bittorrent.InfoHash, id bittorrent.PeerID) bool {
	ss.requireOpen()

	e, ok := ss.lockExisting(ih)
	if !ok {
		return false
	}
	removed := e.swarm.RemovePeer(id)
	e.mu.Unlock()
	return removed
}

func (ss *swarmStore) Snapshot(ih bittorrent.InfoHash) (storage.SwarmSnapshot, bool) {
	ss.requireOpen()

	e, ok := ss.lockExisting(ih)
	if !ok {
		return storage.SwarmSnapshot{}, false
	}
	snap := e.swarm.Snapshot()
	e.mu.Unlock()
	return snap, true
}

func (ss *swarmStore) MaintenanceSweep(now time.Time, ttl time.Duration) storage.SweepResult {
	ss.requireOpen()

	var res storage.SweepResult

	ss.mu.RLock()
	infohashes := make([]bittorrent.InfoHash, 0, len(ss.entries))
	for ih := range ss.entries {
		infohashes = append(infohashes, ih)
	}
	ss.mu.RUnlock()
	runtime.Gosched()

	for _, ih := range infohashes {
		ss.mu.RLock()
		e, ok := ss.entries[ih]
		ss.mu.RUnlock()
		if !ok {
			continue
		}

		e.mu.Lock()
		res.PeersPruned += e.swarm.PurgeStale(now, ttl)
		empty := e.swarm.Len() == 0
		e.mu.Unlock()
		runtime.Gosched()

		if !empty {
			continue
		}

		ss.mu.Lock()
		if cur, ok := ss.entries[ih]; ok && cur == e {
			e.mu.Lock()
			if e.swarm.Len() == 0 {
				e.dead = true
				delete(ss.entries, ih)
				res.EntriesPruned++
			}
			e.mu.Unlock()
		}
		ss.mu.Unlock()
		runtime.Gosched()
	}

	return res
}

func (ss *swarmStore) MetricsSnapshot() storage.Metrics {
	ss.requireOpen()

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	m := storage.Metrics{Torrents: uint64(len(ss.entries))}
	for _, e := range ss.entries {
		e.mu.Lock()
		seeders, leechers, completed := e.swarm.Stats()
		e.mu.Unlock()
		m.Seeders += uint64(seeders)
		m.Leechers += uint64(leechers)
		m.Completed += uint64(completed)
	}

	return m
}

func (ss *swarmStore) Stop() stop.Result {
	c := make(stop.Channel)
	go func() {
		close(ss.closing)
		ss.wg.Wait()

		ss.mu.Lock()
		ss.entries = make(map[bittorrent.InfoHash]*entry)
		ss.mu.Unlock()

		c.Done()
	}()

	return c.Result()
}

// LogFields renders the current config as loggable fields.
func (ss *swarmStore) LogFields() log.Fields {
	return log.Fields{
		"name":         Name,
		"gcInterval":   ss.cfg.GarbageCollectionInterval,
		"peerLifetime": ss.cfg.PeerLifetime,
	}
}
