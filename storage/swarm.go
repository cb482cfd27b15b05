package storage

import (
	"time"

	"github.com/swarmd/swarmd/bittorrent"
)

// Swarm owns the set of peers currently announced for one infohash, plus the
// counters derived from it.
//
// A Swarm performs no locking of its own; the enclosing SwarmStore is
// responsible for synchronizing access according to its strategy.
type Swarm struct {
	peers map[bittorrent.PeerID]bittorrent.PeerRecord

	// seeders + leechers always equals len(peers); completed only grows.
	seeders   uint32
	leechers  uint32
	completed uint32
}

// NewSwarm allocates an empty Swarm.
func NewSwarm() *Swarm {
	return &Swarm{peers: make(map[bittorrent.PeerID]bittorrent.PeerRecord)}
}

// UpsertPeer inserts or replaces the record keyed by its PeerID and returns
// a snapshot of the swarm after the update.
//
// The completed counter is incremented when the record carries a Completed
// event and the peer was not already seeding: one increment per transition
// into the seeding state, never more.
func (s *Swarm) UpsertPeer(r bittorrent.PeerRecord) SwarmSnapshot {
	prev, ok := s.peers[r.ID]
	if ok {
		if prev.Seeder() {
			s.seeders--
		} else {
			s.leechers--
		}
	}

	if r.Event == bittorrent.Completed && (!ok || !prev.Seeder()) {
		s.completed++
	}

	s.peers[r.ID] = r
	if r.Seeder() {
		s.seeders++
	} else {
		s.leechers++
	}

	return s.Snapshot()
}

// RemovePeer removes the record with the given PeerID if present, reporting
// whether anything was removed.
func (s *Swarm) RemovePeer(id bittorrent.PeerID) bool {
	r, ok := s.peers[id]
	if !ok {
		return false
	}

	delete(s.peers, id)
	if r.Seeder() {
		s.seeders--
	} else {
		s.leechers--
	}

	return true
}

// Snapshot returns a copy of the current peer set and counters. It does not
// mutate the swarm.
func (s *Swarm) Snapshot() SwarmSnapshot {
	peers := make([]bittorrent.PeerRecord, 0, len(s.peers))
	for _, r := range s.peers {
		peers = append(peers, r)
	}

	return SwarmSnapshot{
		Peers:     peers,
		Seeders:   s.seeders,
		Leechers:  s.leechers,
		Completed: s.completed,
	}
}

// PurgeStale removes all records whose UpdatedAt is older than ttl relative
// to now and recomputes the seeder and leecher counters from the remaining
// set. The completed counter is unaffected. Returns the number of records
// removed.
func (s *Swarm) PurgeStale(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)

	removed := 0
	for id, r := range s.peers {
		if r.UpdatedAt.Before(cutoff) {
			delete(s.peers, id)
			removed++
		}
	}

	s.seeders, s.leechers = 0, 0
	for _, r := range s.peers {
		if r.Seeder() {
			s.seeders++
		} else {
			s.leechers++
		}
	}

	return removed
}

// Len returns the number of peers in the swarm.
func (s *Swarm) Len() int { return len(s.peers) }

// Stats returns the derived counters without copying the peer set.
func (s *Swarm) Stats() (seeders, leechers, completed uint32) {
	return s.seeders, s.leechers, s.completed
}
