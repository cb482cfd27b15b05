package bittorrent

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testPeerID = "-TEST01-6wfG2wk6wWLc"

	ValidAnnounceArguments = []url.Values{
		{},
		{"peer_id": {testPeerID}, "port": {"6881"}, "downloaded": {"1234"}, "left": {"4321"}},
		{"peer_id": {testPeerID}, "ip": {"192.168.0.1"}, "port": {"6881"}, "downloaded": {"1234"}, "left": {"4321"}},
		{"peer_id": {testPeerID}, "ip": {"192.168.0.1"}, "port": {"6881"}, "downloaded": {"1234"}, "left": {"4321"}, "numwant": {"28"}},
		{"peer_id": {testPeerID}, "ip": {"192.168.0.1"}, "port": {"6881"}, "downloaded": {"1234"}, "left": {"4321"}, "event": {"stopped"}},
		{"peer_id": {testPeerID}, "compact": {"0"}, "port": {"6881"}, "downloaded": {"1234"}, "left": {"4321"}},
		{"peer_id": {"%3Ckey%3A+0x90%3E"}, "compact": {"1"}, "port": {"6881"}, "downloaded": {"1234"}, "left": {"4321"}},
	}

	InvalidQueries = []string{
		"/announce?" + "info_hash=%0%a",
		"/announce?" + "info_hash=TooShort",
	}
)

func mapArrayEqual(boxed url.Values, unboxed map[string]string) bool {
	if len(boxed) != len(unboxed) {
		return false
	}

	for mapKey, mapVal := range boxed {
		if unboxed[mapKey] != mapVal[len(mapVal)-1] {
			return false
		}
	}

	return true
}

func TestParseEmptyURLData(t *testing.T) {
	parsedQuery, err := ParseURLData("")
	require.NoError(t, err)
	require.NotNil(t, parsedQuery)
}

func TestParseValidURLData(t *testing.T) {
	for parseIndex, parseVal := range ValidAnnounceArguments {
		parsedQueryObj, err := ParseURLData("/announce?" + parseVal.Encode())
		require.NoError(t, err)
		require.True(t, mapArrayEqual(parseVal, parsedQueryObj.params),
			"parse failed on iteration %d", parseIndex)
		require.Equal(t, "/announce", parsedQueryObj.RawPath())
	}
}

func TestParseInvalidURLData(t *testing.T) {
	for _, parseStr := range InvalidQueries {
		parsedQueryObj, err := ParseURLData(parseStr)
		require.Error(t, err)
		require.Nil(t, parsedQueryObj)
	}
}

func TestParseInfoHashes(t *testing.T) {
	// A binary info_hash survives percent-encoding.
	raw := InfoHashFromString("\x69\x69\x69\x69\x69\x69\x69\x69\x69\x69pppppppppp")
	escaped := url.QueryEscape(raw.RawString())

	q, err := ParseURLData("/announce?info_hash=" + escaped + "&port=6881")
	require.NoError(t, err)
	require.Equal(t, []InfoHash{raw}, q.InfoHashes())

	port, err := q.Uint64("port")
	require.NoError(t, err)
	require.Equal(t, uint64(6881), port)

	_, err = q.Uint64("missing")
	require.Equal(t, ErrKeyNotFound, err)
}

func BenchmarkParseQuery(b *testing.B) {
	announceStrings := make([]string, 0)
	for i := range ValidAnnounceArguments {
		announceStrings = append(announceStrings, ValidAnnounceArguments[i].Encode())
	}
	b.ResetTimer()
	for bCount := 0; bCount < b.N; bCount++ {
		i := bCount % len(announceStrings)
		parsedQueryObj, err := ParseURLData("/announce?" + announceStrings[i])
		if err != nil {
			b.Error(err, i)
			b.Log(parsedQueryObj)
		}
	}
}
