package middleware

import (
	"context"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/middleware/pkg/random"
	"github.com/swarmd/swarmd/pkg/timecache"
	"github.com/swarmd/swarmd/storage"
)

// Hook abstracts the concept of anything that needs to interact with a
// BitTorrent client's request and response to a BitTorrent tracker.
type Hook interface {
	HandleAnnounce(context.Context, *bittorrent.AnnounceRequest, *bittorrent.AnnounceResponse) (context.Context, error)
}

type skipSwarmInteraction struct{}

// SkipSwarmInteractionKey is a key for the context of an Announce to control
// whether the swarm interaction hook should run. Any non-nil value set for
// this key will cause the swarm interaction hook to skip.
var SkipSwarmInteractionKey = skipSwarmInteraction{}

// swarmHook applies an announce to the swarm store and fills the response
// from the returned snapshot. It always runs last in the pre-hook chain so
// that earlier hooks can veto the announce before the store is touched.
type swarmHook struct {
	store  storage.SwarmStore
	s0, s1 uint64
}

func (h *swarmHook) HandleAnnounce(ctx context.Context, req *bittorrent.AnnounceRequest, resp *bittorrent.AnnounceResponse) (context.Context, error) {
	if ctx.Value(SkipSwarmInteractionKey) != nil {
		return ctx, nil
	}

	if req.Event == bittorrent.Stopped {
		h.store.RemovePeer(req.InfoHash, req.Peer.ID)

		// Stopped clients get counters only, never peers.
		if snap, ok := h.store.Snapshot(req.InfoHash); ok {
			resp.Complete = snap.Seeders
			resp.Incomplete = snap.Leechers
		}
		return ctx, nil
	}

	snap := h.store.UpsertPeerAndSnapshot(req.InfoHash, recordFromRequest(req))
	resp.Complete = snap.Seeders
	resp.Incomplete = snap.Leechers

	// Mix per-process and per-request entropy so peer selection is stable
	// for one client's retries but unpredictable across restarts.
	v0, v1 := random.DeriveEntropyFromRequest(req)
	peers := SelectPeers(snap.Peers, req.Peer.ID, int(req.NumWant), h.s0^v0, h.s1^v1)

	for _, p := range peers {
		if p.AddrPort.Addr().Unmap().Is4() {
			resp.IPv4Peers = append(resp.IPv4Peers, p)
		} else {
			resp.IPv6Peers = append(resp.IPv6Peers, p)
		}
	}

	return ctx, nil
}

// recordFromRequest builds the PeerRecord an announce writes to the store.
func recordFromRequest(req *bittorrent.AnnounceRequest) bittorrent.PeerRecord {
	return bittorrent.PeerRecord{
		Peer:       req.Peer,
		Uploaded:   req.Uploaded,
		Downloaded: req.Downloaded,
		Left:       req.Left,
		Event:      req.Event,
		UpdatedAt:  timecache.Now(),
	}
}
