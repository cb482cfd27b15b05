// Package bittorrent implements the domain types used to decouple the
// BitTorrent tracker protocol from the logic of handling Announces.
package bittorrent

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"time"

	"github.com/swarmd/swarmd/pkg/log"
)

// PeerID represents a peer ID.
type PeerID [20]byte

// PeerIDFromBytes creates a PeerID from a byte slice.
//
// It panics if b is not 20 bytes long.
func PeerIDFromBytes(b []byte) PeerID {
	if len(b) != 20 {
		panic("peer ID must be 20 bytes")
	}

	var buf [20]byte
	copy(buf[:], b)
	return PeerID(buf)
}

// PeerIDFromString creates a PeerID from a string.
//
// It panics if s is not 20 bytes long.
func PeerIDFromString(s string) PeerID {
	if len(s) != 20 {
		panic("peer ID must be 20 bytes")
	}

	var buf [20]byte
	copy(buf[:], s)
	return PeerID(buf)
}

// String implements fmt.Stringer, returning a string of hex encoded bytes.
func (p PeerID) String() string {
	return hex.EncodeToString(p[:])
}

// RawString returns the bytes of a PeerID interpreted as a string.
func (p PeerID) RawString() string {
	return string(p[:])
}

// InfoHash represents an infohash.
type InfoHash [20]byte

// InfoHashFromBytes creates an InfoHash from a byte slice.
//
// It panics if b is not 20 bytes long.
func InfoHashFromBytes(b []byte) InfoHash {
	if len(b) != 20 {
		panic("infohash must be 20 bytes")
	}

	var buf [20]byte
	copy(buf[:], b)
	return InfoHash(buf)
}

// InfoHashFromString creates an InfoHash from a string.
//
// It panics if s is not 20 bytes long.
func InfoHashFromString(s string) InfoHash {
	if len(s) != 20 {
		panic("infohash must be 20 bytes")
	}

	var buf [20]byte
	copy(buf[:], s)
	return InfoHash(buf)
}

// String implements fmt.Stringer, returning the base16 encoded InfoHash.
func (i InfoHash) String() string {
	return fmt.Sprintf("%x", i[:])
}

// RawString returns a 20-byte string of the raw bytes of the InfoHash.
func (i InfoHash) RawString() string {
	return string(i[:])
}

// Peer represents the connection details of a peer that is returned in an
// announce response.
type Peer struct {
	ID       PeerID
	AddrPort netip.AddrPort
}

// String implements fmt.Stringer for a human-friendly representation of a
// Peer.
func (p Peer) String() string {
	return fmt.Sprintf("%s@%s", p.ID, p.AddrPort)
}

// LogFields renders the current peer as a set of log fields.
func (p Peer) LogFields() log.Fields {
	return log.Fields{
		"id":   p.ID,
		"ip":   p.AddrPort.Addr(),
		"port": p.AddrPort.Port(),
	}
}

// Equal reports whether p and x are the same.
func (p Peer) Equal(x Peer) bool { return p.ID == x.ID && p.EqualEndpoint(x) }

// EqualEndpoint reports whether p and x have the same endpoint.
func (p Peer) EqualEndpoint(x Peer) bool {
	return p.AddrPort.Port() == x.AddrPort.Port() &&
		p.AddrPort.Addr().Unmap() == x.AddrPort.Addr().Unmap()
}

// PeerRecord is the full announced state of one peer in a swarm.
//
// A record is replaced wholesale by every announce from its peer; it is never
// partially mutated.
type PeerRecord struct {
	Peer

	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	Event      Event
	UpdatedAt  time.Time
}

// Seeder reports whether the record describes a peer with nothing left to
// download.
func (r PeerRecord) Seeder() bool { return r.Left == 0 }

// LogFields renders the current record as a set of log fields.
func (r PeerRecord) LogFields() log.Fields {
	return log.Fields{
		"peer":       r.Peer,
		"uploaded":   r.Uploaded,
		"downloaded": r.Downloaded,
		"left":       r.Left,
		"event":      r.Event,
		"updatedAt":  r.UpdatedAt,
	}
}

// AnnounceRequest represents the parsed parameters from an announce request.
type AnnounceRequest struct {
	Event           Event
	InfoHash        InfoHash
	Compact         bool
	EventProvided   bool
	NumWantProvided bool
	IPProvided      bool
	NumWant         uint32
	Left            uint64
	Downloaded      uint64
	Uploaded        uint64

	Peer
	Params
}

// LogFields renders the current request as a set of log fields.
func (r AnnounceRequest) LogFields() log.Fields {
	return log.Fields{
		"event":           r.Event,
		"infoHash":        r.InfoHash,
		"compact":         r.Compact,
		"eventProvided":   r.EventProvided,
		"numWantProvided": r.NumWantProvided,
		"ipProvided":      r.IPProvided,
		"numWant":         r.NumWant,
		"left":            r.Left,
		"downloaded":      r.Downloaded,
		"uploaded":        r.Uploaded,
		"peer":            r.Peer,
	}
}

// AnnounceResponse represents the parameters used to create an announce
// response.
type AnnounceResponse struct {
	Compact     bool
	Complete    uint32
	Incomplete  uint32
	Interval    time.Duration
	MinInterval time.Duration
	IPv4Peers   []Peer
	IPv6Peers   []Peer
}

// LogFields renders the current response as a set of log fields.
func (r AnnounceResponse) LogFields() log.Fields {
	return log.Fields{
		"compact":     r.Compact,
		"complete":    r.Complete,
		"incomplete":  r.Incomplete,
		"interval":    r.Interval,
		"minInterval": r.MinInterval,
		"ipv4Peers":   r.IPv4Peers,
		"ipv6Peers":   r.IPv6Peers,
	}
}

// ClientError represents an error that should be exposed to the client over
// the BitTorrent protocol implementation.
type ClientError string

// Error implements the error interface for ClientError.
func (c ClientError) Error() string { return string(c) }
