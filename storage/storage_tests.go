package storage

import (
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swarmd/swarmd/bittorrent"
)

// suiteRecord builds a distinct PeerRecord for conformance testing.
func suiteRecord(i int, left uint64, event bittorrent.Event, updated time.Time) bittorrent.PeerRecord {
	return bittorrent.PeerRecord{
		Peer: bittorrent.Peer{
			ID:       bittorrent.PeerIDFromString(fmt.Sprintf("%020d", i)),
			AddrPort: netip.AddrPortFrom(netip.MustParseAddr("10.1.2.3"), uint16(1024+i)),
		},
		Left:      left,
		Event:     event,
		UpdatedAt: updated,
	}
}

// TestSwarmStore tests a SwarmStore implementation against the interface
// contract. Every strategy must pass it unchanged.
func TestSwarmStore(t *testing.T, ps SwarmStore) {
	ih := bittorrent.InfoHashFromString("00000000000000000001")
	otherIH := bittorrent.InfoHashFromString("00000000000000000002")
	now := time.Now()

	// Absent infohash: negative results, not errors.
	_, ok := ps.Snapshot(ih)
	require.False(t, ok)
	require.False(t, ps.RemovePeer(ih, suiteRecord(1, 0, bittorrent.None, now).ID))

	// First announce creates the swarm.
	snap := ps.UpsertPeerAndSnapshot(ih, suiteRecord(1, 100, bittorrent.Started, now))
	require.Len(t, snap.Peers, 1)
	require.Equal(t, uint32(0), snap.Seeders)
	require.Equal(t, uint32(1), snap.Leechers)

	// Graduation to seeding bumps the completed counter exactly once.
	snap = ps.UpsertPeerAndSnapshot(ih, suiteRecord(1, 0, bittorrent.Completed, now))
	require.Equal(t, uint32(1), snap.Seeders)
	require.Equal(t, uint32(0), snap.Leechers)
	require.Equal(t, uint32(1), snap.Completed)
	snap = ps.UpsertPeerAndSnapshot(ih, suiteRecord(1, 0, bittorrent.None, now))
	require.Equal(t, uint32(1), snap.Completed)

	// A second swarm is independent of the first.
	snap = ps.UpsertPeerAndSnapshot(otherIH, suiteRecord(2, 50, bittorrent.Started, now))
	require.Len(t, snap.Peers, 1)
	snap, ok = ps.Snapshot(ih)
	require.True(t, ok)
	require.Len(t, snap.Peers, 1)

	// Aggregate metrics see both swarms.
	m := ps.MetricsSnapshot()
	require.Equal(t, uint64(2), m.Torrents)
	require.Equal(t, uint64(1), m.Seeders)
	require.Equal(t, uint64(1), m.Leechers)
	require.Equal(t, uint64(1), m.Completed)

	// Removal empties the swarm but keeps the entry until a sweep.
	require.True(t, ps.RemovePeer(otherIH, suiteRecord(2, 0, bittorrent.None, now).ID))
	require.False(t, ps.RemovePeer(otherIH, suiteRecord(2, 0, bittorrent.None, now).ID))
	snap, ok = ps.Snapshot(otherIH)
	require.True(t, ok)
	require.Empty(t, snap.Peers)

	// The sweep prunes stale peers and empty entries.
	ps.UpsertPeerAndSnapshot(ih, suiteRecord(3, 100, bittorrent.Started, now.Add(-time.Hour)))
	res := ps.MaintenanceSweep(now, 30*time.Minute)
	require.Equal(t, 1, res.PeersPruned)
	require.Equal(t, 1, res.EntriesPruned)
	_, ok = ps.Snapshot(otherIH)
	require.False(t, ok)
	snap, ok = ps.Snapshot(ih)
	require.True(t, ok)
	require.Len(t, snap.Peers, 1)
	require.Equal(t, snap.Seeders+snap.Leechers, uint32(len(snap.Peers)))

	errs := ps.Stop().Wait()
	require.Empty(t, errs)
}

// TestConcurrentAnnounces asserts that no updates are lost under concurrent
// announces: after n concurrent upserts of distinct peers to one infohash,
// the final snapshot holds exactly those n peers.
func TestConcurrentAnnounces(t *testing.T, ps SwarmStore) {
	const n = 256
	ih := bittorrent.InfoHashFromString("11111111111111111111")
	otherIH := bittorrent.InfoHashFromString("22222222222222222222")
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			left := uint64(i % 2)
			ps.UpsertPeerAndSnapshot(ih, suiteRecord(i, left, bittorrent.Started, now))
			// Traffic on an unrelated swarm must not interfere.
			ps.UpsertPeerAndSnapshot(otherIH, suiteRecord(i, 1, bittorrent.Started, now))
		}(i)
	}
	wg.Wait()

	snap, ok := ps.Snapshot(ih)
	require.True(t, ok)
	require.Len(t, snap.Peers, n)
	require.Equal(t, uint32(n), snap.Seeders+snap.Leechers)

	seen := make(map[bittorrent.PeerID]bool, n)
	for _, r := range snap.Peers {
		seen[r.ID] = true
	}
	require.Len(t, seen, n, "every announced peer must be present exactly once")

	errs := ps.Stop().Wait()
	require.Empty(t, errs)
}

// TestSweepDuringAnnounces asserts that a maintenance sweep can overlap
// announce traffic without deadlocking or corrupting counters.
func TestSweepDuringAnnounces(t *testing.T, ps SwarmStore) {
	const n = 64
	now := time.Now()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			ih := bittorrent.InfoHashFromString(fmt.Sprintf("%020d", i%8))
			ps.UpsertPeerAndSnapshot(ih, suiteRecord(i%n, uint64(i%2), bittorrent.Started, now))
		}
	}()

	for i := 0; i < 16; i++ {
		ps.MaintenanceSweep(now, time.Hour)
	}
	close(done)
	wg.Wait()

	for i := 0; i < 8; i++ {
		ih := bittorrent.InfoHashFromString(fmt.Sprintf("%020d", i))
		if snap, ok := ps.Snapshot(ih); ok {
			require.Equal(t, uint32(len(snap.Peers)), snap.Seeders+snap.Leechers)
		}
	}

	errs := ps.Stop().Wait()
	require.Empty(t, errs)
}
