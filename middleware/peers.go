package middleware

import (
	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/middleware/pkg/random"
)

// SelectPeers picks at most limit peers from a swarm snapshot, always
// excluding the requester.
//
// Selection starts at a pseudo-random offset derived from s0/s1 and walks
// the snapshot circularly, so different requesters see different subsets of
// a large swarm without any per-call allocation beyond the result.
func SelectPeers(records []bittorrent.PeerRecord, requester bittorrent.PeerID, limit int, s0, s1 uint64) []bittorrent.Peer {
	if limit <= 0 || len(records) == 0 {
		return nil
	}

	offset, _, _ := random.Intn(s0, s1, len(records))

	peers := make([]bittorrent.Peer, 0, min(limit, len(records)))
	for i := 0; i < len(records) && len(peers) < limit; i++ {
		r := records[(offset+i)%len(records)]
		if r.ID == requester {
			continue
		}
		peers = append(peers, r.Peer)
	}

	return peers
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
