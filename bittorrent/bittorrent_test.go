package bittorrent

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeerIDRoundTrip(t *testing.T) {
	id := PeerIDFromString("-TR3000-abcdefghijkl")
	require.Equal(t, "-TR3000-abcdefghijkl", id.RawString())
	require.Len(t, id.String(), 40)
	require.Equal(t, id, PeerIDFromBytes([]byte(id.RawString())))
}

func TestPeerIDPanicsOnBadLength(t *testing.T) {
	require.Panics(t, func() { PeerIDFromString("too short") })
	require.Panics(t, func() { PeerIDFromBytes(make([]byte, 21)) })
}

func TestInfoHashRoundTrip(t *testing.T) {
	ih := InfoHashFromString("00000000000000000001")
	require.Equal(t, "00000000000000000001", ih.RawString())
	require.Equal(t, ih, InfoHashFromBytes([]byte(ih.RawString())))
	require.Panics(t, func() { InfoHashFromString("x") })
}

func TestPeerEquality(t *testing.T) {
	a := Peer{
		ID:       PeerIDFromString("00000000000000000001"),
		AddrPort: netip.MustParseAddrPort("1.2.3.4:1234"),
	}
	b := a
	require.True(t, a.Equal(b))

	b.ID = PeerIDFromString("00000000000000000002")
	require.False(t, a.Equal(b))
	require.True(t, a.EqualEndpoint(b))

	// A 4in6 address is the same endpoint as its unmapped form.
	c := a
	c.AddrPort = netip.AddrPortFrom(netip.MustParseAddr("::ffff:1.2.3.4"), 1234)
	require.True(t, a.EqualEndpoint(c))
}

func TestPeerRecordSeeder(t *testing.T) {
	r := PeerRecord{Left: 0}
	require.True(t, r.Seeder())
	r.Left = 1
	require.False(t, r.Seeder())
}

func TestSanitizeAnnounce(t *testing.T) {
	base := func() *AnnounceRequest {
		return &AnnounceRequest{
			Peer: Peer{
				ID:       PeerIDFromString("00000000000000000001"),
				AddrPort: netip.MustParseAddrPort("10.0.0.5:6881"),
			},
		}
	}

	r := base()
	require.NoError(t, SanitizeAnnounce(r, 100, 50))
	require.Equal(t, uint32(50), r.NumWant)

	r = base()
	r.NumWantProvided = true
	r.NumWant = 500
	require.NoError(t, SanitizeAnnounce(r, 100, 50))
	require.Equal(t, uint32(100), r.NumWant)

	r = base()
	r.AddrPort = netip.AddrPortFrom(r.AddrPort.Addr(), 0)
	require.Equal(t, ErrInvalidPort, SanitizeAnnounce(r, 100, 50))

	r = base()
	r.AddrPort = netip.AddrPortFrom(netip.MustParseAddr("0.0.0.0"), 6881)
	require.Equal(t, ErrInvalidIP, SanitizeAnnounce(r, 100, 50))

	// 4in6 addresses are unmapped.
	r = base()
	r.AddrPort = netip.AddrPortFrom(netip.MustParseAddr("::ffff:10.0.0.5"), 6881)
	require.NoError(t, SanitizeAnnounce(r, 100, 50))
	require.True(t, r.AddrPort.Addr().Is4())
}
