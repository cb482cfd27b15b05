// Package storage implements the concurrent swarm repository: the in-memory
// store mapping infohashes to swarms of peers, behind a contract that can be
// satisfied by interchangeable locking strategies.
package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/pkg/stop"
)

var (
	driversM sync.RWMutex
	drivers  = make(map[string]Driver)
)

// Driver is the interface used to initialize a new type of SwarmStore.
type Driver interface {
	NewSwarmStore(cfg Config) (SwarmStore, error)
}

// ErrDriverDoesNotExist is the error returned by NewSwarmStore when a swarm
// store driver with that name does not exist.
var ErrDriverDoesNotExist = errors.New("swarm store driver with that name does not exist")

// ErrInvalidGCInterval is returned for a GarbageCollectionInterval that is
// less than or equal to zero.
var ErrInvalidGCInterval = errors.New("invalid garbage collection interval")

// ErrInvalidPeerLifetime is returned for a PeerLifetime that is less than or
// equal to zero.
var ErrInvalidPeerLifetime = errors.New("invalid peer lifetime")

// Config holds the configuration shared by all SwarmStore strategies.
type Config struct {
	GarbageCollectionInterval time.Duration `yaml:"gc_interval"`
	PeerLifetime              time.Duration `yaml:"peer_lifetime"`
}

// Validate returns an error for configurations that no strategy can run
// with.
func (cfg Config) Validate() error {
	if cfg.GarbageCollectionInterval <= 0 {
		return ErrInvalidGCInterval
	}
	if cfg.PeerLifetime <= 0 {
		return ErrInvalidPeerLifetime
	}
	return nil
}

// SwarmSnapshot is a consistent copy of one swarm's state.
//
// The snapshot is owned by the caller: it shares no memory with the store
// and remains valid after concurrent mutations.
type SwarmSnapshot struct {
	Peers     []bittorrent.PeerRecord
	Seeders   uint32
	Leechers  uint32
	Completed uint32
}

// SweepResult describes the effect of one maintenance sweep.
type SweepResult struct {
	EntriesPruned int
	PeersPruned   int
}

// Metrics is an aggregate, approximately-consistent view across all swarms.
type Metrics struct {
	Torrents  uint64
	Seeders   uint64
	Leechers  uint64
	Completed uint64
}

// SwarmStore is the repository of all swarms tracked by the process.
//
// Implementations differ only in locking strategy; all of them guarantee
// that operations on the same infohash are linearizable and that the lock
// acquisition order is always top-level map before per-swarm, never the
// reverse.
type SwarmStore interface {
	// UpsertPeerAndSnapshot inserts or replaces the record keyed by its
	// PeerID in the swarm for the given infohash, creating the swarm if
	// absent, and returns a snapshot of the swarm immediately after the
	// update. Concurrent upserts to the same infohash never lose updates.
	UpsertPeerAndSnapshot(ih bittorrent.InfoHash, r bittorrent.PeerRecord) SwarmSnapshot

	// RemovePeer removes the record with the given PeerID, reporting
	// whether anything was removed. A missing infohash is not an error.
	RemovePeer(ih bittorrent.InfoHash, id bittorrent.PeerID) bool

	// Snapshot returns a read-only copy of the swarm for the given
	// infohash, and whether that infohash is tracked at all.
	Snapshot(ih bittorrent.InfoHash) (SwarmSnapshot, bool)

	// MaintenanceSweep purges all records whose last announce is older
	// than ttl relative to now, then removes swarms left empty.
	//
	// The sweep runs concurrently with announces and must not block the
	// whole repository for its entire duration.
	MaintenanceSweep(now time.Time, ttl time.Duration) SweepResult

	// MetricsSnapshot returns aggregate counts across all swarms. The
	// result may be slightly stale relative to concurrent mutations.
	MetricsSnapshot() Metrics

	// Stopper provides a clean shutdown of the store's background
	// maintenance.
	stop.Stopper
}

// RegisterDriver makes a Driver available by the provided name.
//
// If called twice with the same name, the name is blank, or if the provided
// Driver is nil, this function panics.
func RegisterDriver(name string, d Driver) {
	if name == "" {
		panic("storage: could not register a Driver with an empty name")
	}
	if d == nil {
		panic("storage: could not register a nil Driver")
	}

	driversM.Lock()
	defer driversM.Unlock()

	if _, dup := drivers[name]; dup {
		panic("storage: RegisterDriver called twice for " + name)
	}

	drivers[name] = d
}

// NewSwarmStore attempts to initialize a new SwarmStore given the name of a
// registered Driver.
//
// If a driver does not exist, returns ErrDriverDoesNotExist.
func NewSwarmStore(name string, cfg Config) (SwarmStore, error) {
	driversM.RLock()
	defer driversM.RUnlock()

	d, ok := drivers[name]
	if !ok {
		return nil, ErrDriverDoesNotExist
	}

	return d.NewSwarmStore(cfg)
}
