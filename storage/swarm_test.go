package storage

import (
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swarmd/swarmd/bittorrent"
)

func testRecord(i int, left uint64, event bittorrent.Event, updated time.Time) bittorrent.PeerRecord {
	return bittorrent.PeerRecord{
		Peer: bittorrent.Peer{
			ID:       bittorrent.PeerIDFromString(fmt.Sprintf("%020d", i)),
			AddrPort: netip.AddrPortFrom(netip.MustParseAddr("10.0.0.1"), uint16(i+1)),
		},
		Left:      left,
		Event:     event,
		UpdatedAt: updated,
	}
}

func requireCounterInvariant(t *testing.T, s *Swarm) {
	t.Helper()
	seeders, leechers, _ := s.Stats()
	require.Equal(t, s.Len(), int(seeders+leechers), "seeders+leechers must match the peer set")
}

func TestSwarmUpsertReplacesWholeRecord(t *testing.T) {
	s := NewSwarm()
	now := time.Now()

	snap := s.UpsertPeer(testRecord(1, 100, bittorrent.Started, now))
	require.Len(t, snap.Peers, 1)
	require.Equal(t, uint32(0), snap.Seeders)
	require.Equal(t, uint32(1), snap.Leechers)

	// Same PeerID again: replaced, not duplicated.
	snap = s.UpsertPeer(testRecord(1, 50, bittorrent.None, now))
	require.Len(t, snap.Peers, 1)
	require.Equal(t, uint64(50), snap.Peers[0].Left)
	requireCounterInvariant(t, s)
}

func TestSwarmSeederLeecherTransition(t *testing.T) {
	s := NewSwarm()
	now := time.Now()

	s.UpsertPeer(testRecord(1, 100, bittorrent.Started, now))
	snap := s.UpsertPeer(testRecord(1, 0, bittorrent.Completed, now))
	require.Equal(t, uint32(1), snap.Seeders)
	require.Equal(t, uint32(0), snap.Leechers)
	require.Equal(t, uint32(1), snap.Completed)
	requireCounterInvariant(t, s)
}

func TestSwarmCompletedCountsOncePerPeer(t *testing.T) {
	s := NewSwarm()
	now := time.Now()

	// A seeder re-announcing completed must not bump the counter again.
	s.UpsertPeer(testRecord(1, 100, bittorrent.Started, now))
	s.UpsertPeer(testRecord(1, 0, bittorrent.Completed, now))
	snap := s.UpsertPeer(testRecord(1, 0, bittorrent.Completed, now))
	require.Equal(t, uint32(1), snap.Completed)

	// A fresh peer announcing completed directly counts.
	snap = s.UpsertPeer(testRecord(2, 0, bittorrent.Completed, now))
	require.Equal(t, uint32(2), snap.Completed)
}

func TestSwarmCompletedSurvivesRemoval(t *testing.T) {
	s := NewSwarm()
	now := time.Now()

	s.UpsertPeer(testRecord(1, 0, bittorrent.Completed, now))
	require.True(t, s.RemovePeer(bittorrent.PeerIDFromString(fmt.Sprintf("%020d", 1))))

	snap := s.Snapshot()
	require.Empty(t, snap.Peers)
	require.Equal(t, uint32(1), snap.Completed)
	requireCounterInvariant(t, s)
}

func TestSwarmRemoveMissingPeer(t *testing.T) {
	s := NewSwarm()
	require.False(t, s.RemovePeer(bittorrent.PeerIDFromString("00000000000000000099")))
}

func TestSwarmSnapshotIsACopy(t *testing.T) {
	s := NewSwarm()
	now := time.Now()

	snap := s.UpsertPeer(testRecord(1, 100, bittorrent.Started, now))
	s.UpsertPeer(testRecord(2, 0, bittorrent.None, now))

	// The earlier snapshot is unaffected by the later mutation.
	require.Len(t, snap.Peers, 1)
}

func TestSwarmPurgeStale(t *testing.T) {
	s := NewSwarm()
	now := time.Now()
	ttl := time.Minute

	s.UpsertPeer(testRecord(1, 0, bittorrent.Completed, now.Add(-2*time.Minute)))
	s.UpsertPeer(testRecord(2, 100, bittorrent.Started, now.Add(-2*time.Minute)))
	s.UpsertPeer(testRecord(3, 100, bittorrent.Started, now))

	removed := s.PurgeStale(now, ttl)
	require.Equal(t, 2, removed)

	snap := s.Snapshot()
	require.Len(t, snap.Peers, 1)
	require.Equal(t, uint32(0), snap.Seeders)
	require.Equal(t, uint32(1), snap.Leechers)
	require.Equal(t, uint32(1), snap.Completed, "purging must not touch the completed counter")
	requireCounterInvariant(t, s)

	// Nothing left to purge.
	require.Zero(t, s.PurgeStale(now, ttl))
}
