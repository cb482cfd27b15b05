// Package coarse implements a SwarmStore guarded by one process-wide
// reader/writer lock.
//
// Every mutation serializes on the same lock, so the strategy has the
// simplest correctness argument of the three and is the baseline the others
// are measured against.
package coarse

import (
	"runtime"
	"sync"
	"time"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/pkg/log"
	"github.com/swarmd/swarmd/pkg/stop"
	"github.com/swarmd/swarmd/pkg/timecache"
	"github.com/swarmd/swarmd/storage"
)

// Name is the name by which this strategy is registered.
const Name = "coarse"

func init() {
	storage.RegisterDriver(Name, driver{})
}

type driver struct{}

func (d driver) NewSwarmStore(cfg storage.Config) (storage.SwarmStore, error) {
	return New(cfg)
}

// New creates a SwarmStore that serializes all access on one RWMutex.
func New(cfg storage.Config) (storage.SwarmStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ss := &swarmStore{
		cfg:     cfg,
		swarms:  make(map[bittorrent.InfoHash]*storage.Swarm),
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
				log.Debug("coarse: maintenance sweep finished", log.Fields{
					"entriesPruned": res.EntriesPruned,
					"peersPruned":   res.PeersPruned,
				})
			}
		}
	}()

	return ss, nil
}

type swarmStore struct {
	cfg    storage.Config
	mu     sync.RWMutex
	swarms map[bittorrent.InfoHash]*storage.Swarm

	closing chan struct{}
	wg      sync.WaitGroup
}

var _ storage.SwarmStore = &swarmStore{}

func (ss *swarmStore) requireOpen() {
	select {
	case <-ss.closing:
		panic("attempted to interact with stopped coarse swarm store")
	default:
	}
}

func (ss *swarmStore) UpsertPeerAndSnapshot(ih bittorrent.InfoHash, r bittorrent.PeerRecord) storage.SwarmSnapshot {
	ss.requireOpen()

	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.swarms[ih]
	if !ok {
		s = storage.NewSwarm()
		ss.swarms[ih] = s
		storage.RecordSwarmCreated()
	}

	return s.UpsertPeer(r)
}

func (ss *swarmStore) RemovePeer(ih bittorrent.InfoHash, id bittorrent.PeerID) bool {
	ss.requireOpen()

	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.swarms[ih]
	if !ok {
		return false
	}

	return s.RemovePeer(id)
}

func (ss *swarmStore) Snapshot(ih bittorrent.InfoHash) (storage.SwarmSnapshot, bool) {
	ss.requireOpen()

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	s, ok := ss.swarms[ih]
	if !ok {
		return storage.SwarmSnapshot{}, false
	}

	return s.Snapshot(), true
}

// MaintenanceSweep snapshots the tracked infohashes under a read lock, then
// revisits each one under a short write lock so announce traffic can
// interleave with the sweep.
func (ss *swarmStore) MaintenanceSweep(now time.Time, ttl time.Duration) storage.SweepResult {
	ss.requireOpen()

	var res storage.SweepResult

	ss.mu.RLock()
	infohashes := make([]bittorrent.InfoHash, 0, len(ss.swarms))
	for ih := range ss.swarms {
		infohashes = append(infohashes, ih)
	}
	ss.mu.RUnlock()
	runtime.Gosched()

	for _, ih := range infohashes {
		ss.mu.Lock()
		if s, ok := ss.swarms[ih]; ok {
			res.PeersPruned += s.PurgeStale(now, ttl)
			if s.Len() == 0 {
				delete(ss.swarms, ih)
				res.EntriesPruned++
			}
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

	m := storage.Metrics{Torrents: uint64(len(ss.swarms))}
	for _, s := range ss.swarms {
		seeders, leechers, completed := s.Stats()
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
		ss.swarms = make(map[bittorrent.InfoHash]*storage.Swarm)
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
