package bittorrent

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// Params is used to fetch (optional) request parameters from an Announce.
type Params interface {
	// String returns a string parsed from a query. Every key can be
	// returned as a string because they are encoded in the URL as strings.
	String(key string) (string, bool)

	// RawPath returns the raw path from the request URL.
	RawPath() string

	// RawQuery returns the raw query from the request URL, excluding the
	// delimiter '?'.
	RawQuery() string
}

// ErrKeyNotFound is returned when a provided key has no value associated with
// it.
var ErrKeyNotFound = errors.New("query: value for the provided key does not exist")

// ErrInvalidInfohash is returned when parsing a query encounters an infohash
// with invalid length.
var ErrInvalidInfohash = ClientError("provided invalid infohash")

// QueryParams parses a URL Query and implements the Params interface with
// some additional helpers.
type QueryParams struct {
	path       string
	query      string
	params     map[string]string
	infoHashes []InfoHash
}

// ParseURLData parses a request URL. It expects a concatenated string of the
// request's path and query parts as defined in RFC 3986, e.g.
// "/announce?port=1234&uploaded=0".
//
// In the case of a key occurring multiple times in the query, only the last
// value for that key is kept. The sole exception is the key "info_hash":
// every value is parsed as an InfoHash and collected, and parsing fails if
// any of them has an invalid length.
func ParseURLData(urlData string) (*QueryParams, error) {
	var path, query string

	if i := strings.IndexByte(urlData, '?'); i == -1 {
		path = urlData
	} else {
		path, query = urlData[:i], urlData[i+1:]
	}

	q := &QueryParams{
		path:   path,
		query:  query,
		params: make(map[string]string),
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}

		var rawKey, rawValue string
		if i := strings.IndexByte(pair, '='); i == -1 {
			rawKey = pair
		} else {
			rawKey, rawValue = pair[:i], pair[i+1:]
		}

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, ClientError("invalid query escape: " + rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, ClientError("invalid query escape for key: " + key)
		}

		if key == "info_hash" {
			if len(value) != 20 {
				return nil, ErrInvalidInfohash
			}
			q.infoHashes = append(q.infoHashes, InfoHashFromString(value))
			continue
		}

		q.params[strings.ToLower(key)] = value
	}

	return q, nil
}

// String returns a string parsed from a query. Every key can be returned as a
// string because they are encoded in the URL as strings.
func (qp *QueryParams) String(key string) (string, bool) {
	value, ok := qp.params[key]
	return value, ok
}

// Uint64 returns a uint parsed from a query. After being called, it is safe
// to cast the uint64 to your desired length.
func (qp *QueryParams) Uint64(key string) (uint64, error) {
	str, exists := qp.params[key]
	if !exists {
		return 0, ErrKeyNotFound
	}

	val, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, err
	}

	return val, nil
}

// InfoHashes returns a list of requested infohashes.
func (qp *QueryParams) InfoHashes() []InfoHash {
	return qp.infoHashes
}

// RawPath returns the raw path from the parsed URL.
func (qp *QueryParams) RawPath() string {
	return qp.path
}

// RawQuery returns the raw query from the parsed URL.
func (qp *QueryParams) RawQuery() string {
	return qp.query
}
