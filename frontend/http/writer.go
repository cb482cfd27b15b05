package http

import (
	"io"
	"net/http"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/frontend/http/bencode"
	"github.com/swarmd/swarmd/pkg/log"
)

// WriteError communicates an error to a BitTorrent client over HTTP.
//
// Errors are always delivered with status 200; BitTorrent clients only parse
// the body.
func WriteError(w http.ResponseWriter, err error) error {
	message := "internal server error"
	if _, clientErr := err.(bittorrent.ClientError); clientErr {
		message = err.Error()
	} else {
		log.Error("http: internal error", log.Err(err))
	}

	w.WriteHeader(http.StatusOK)
	return bencode.NewEncoder(w).Encode(bencode.Dict{
		"failure reason": message,
	})
}

// WriteAnnounceResponse communicates the results of an Announce to a
// BitTorrent client.
//
// Compact responses carry BEP 23 "peers" and BEP 7 "peers6" byte strings;
// both keys are present even when empty. Non-compact responses carry the
// BEP 3 list of peer dictionaries.
func WriteAnnounceResponse(w io.Writer, resp *bittorrent.AnnounceResponse) error {
	bdict := bencode.Dict{
		"complete":     resp.Complete,
		"incomplete":   resp.Incomplete,
		"interval":     resp.Interval,
		"min interval": resp.MinInterval,
	}

	if resp.Compact {
		var v4Bytes, v6Bytes []byte
		for _, peer := range resp.IPv4Peers {
			v4Bytes = append(v4Bytes, compact4(peer)...)
		}
		for _, peer := range resp.IPv6Peers {
			v6Bytes = append(v6Bytes, compact6(peer)...)
		}
		bdict["peers"] = v4Bytes
		bdict["peers6"] = v6Bytes

		return bencode.NewEncoder(w).Encode(bdict)
	}

	peers := make([]bencode.Dict, 0, len(resp.IPv4Peers)+len(resp.IPv6Peers))
	for _, peer := range resp.IPv4Peers {
		peers = append(peers, peerDict(peer))
	}
	for _, peer := range resp.IPv6Peers {
		peers = append(peers, peerDict(peer))
	}
	bdict["peers"] = peers

	return bencode.NewEncoder(w).Encode(bdict)
}

func compact4(peer bittorrent.Peer) []byte {
	addr := peer.AddrPort.Addr().Unmap()
	if !addr.Is4() {
		panic("non-IPv4 address for peer in IPv4Peers")
	}
	a4 := addr.As4()
	port := peer.AddrPort.Port()
	return append(a4[:], byte(port>>8), byte(port&0xff))
}

func compact6(peer bittorrent.Peer) []byte {
	addr := peer.AddrPort.Addr()
	if !addr.Is6() || addr.Is4In6() {
		panic("non-IPv6 address for peer in IPv6Peers")
	}
	a16 := addr.As16()
	port := peer.AddrPort.Port()
	return append(a16[:], byte(port>>8), byte(port&0xff))
}

func peerDict(peer bittorrent.Peer) bencode.Dict {
	return bencode.Dict{
		"peer id": string(peer.ID[:]),
		"ip":      peer.AddrPort.Addr().Unmap().String(),
		"port":    peer.AddrPort.Port(),
	}
}
