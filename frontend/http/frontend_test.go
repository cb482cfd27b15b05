package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swarmd/swarmd/middleware"
	"github.com/swarmd/swarmd/pkg/instance"
	"github.com/swarmd/swarmd/storage"
	"github.com/swarmd/swarmd/storage/coarse"
)

func newTestFrontend(t *testing.T) (*Frontend, storage.SwarmStore) {
	store, err := coarse.New(storage.Config{
		GarbageCollectionInterval: 10 * time.Minute,
		PeerLifetime:              30 * time.Minute,
	})
	require.Nil(t, err)

	inst, err := instance.New()
	require.Nil(t, err)

	logic := middleware.NewLogic(middleware.ResponseConfig{
		AnnounceInterval:    111 * time.Second,
		MinAnnounceInterval: 222 * time.Second,
	}, store, inst, nil, nil)

	f := &Frontend{
		logic: logic,
		Config: Config{
			Addr: "127.0.0.1:0",
			ParseOptions: ParseOptions{
				MaxNumWant:     100,
				DefaultNumWant: 50,
			},
		},
	}
	return f, store
}

func TestAnnounceRoute(t *testing.T) {
	f, store := newTestFrontend(t)
	defer store.Stop()

	handler := f.handler()

	r := httptest.NewRequest("GET", "/announce?info_hash=aaaaaaaaaaaaaaaaaaaa&peer_id=00000000000000000001&port=6881&uploaded=0&downloaded=0&left=0&compact=1", nil)
	r.RemoteAddr = "105.105.105.105:28784"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	// A lone seeder gets the counters and empty compact peer strings.
	require.Equal(t,
		"d8:completei1e10:incompletei0e8:intervali111e12:min intervali222e5:peers0:6:peers60:e",
		w.Body.String())
}

func TestAnnounceRouteSecondPeerSeesFirst(t *testing.T) {
	f, store := newTestFrontend(t)
	defer store.Stop()

	handler := f.handler()

	r := httptest.NewRequest("GET", "/announce?info_hash=aaaaaaaaaaaaaaaaaaaa&peer_id=00000000000000000001&port=28784&uploaded=0&downloaded=0&left=0&compact=1", nil)
	r.RemoteAddr = "105.105.105.105:99"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, 200, w.Code)

	r = httptest.NewRequest("GET", "/announce?info_hash=aaaaaaaaaaaaaaaaaaaa&peer_id=00000000000000000002&port=6882&uploaded=0&downloaded=0&left=100&compact=1", nil)
	r.RemoteAddr = "10.0.0.2:99"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	require.Equal(t,
		"d8:completei1e10:incompletei1e8:intervali111e12:min intervali222e5:peers6:iiiipp6:peers60:e",
		w.Body.String())
}

func TestAnnounceRouteClientError(t *testing.T) {
	f, store := newTestFrontend(t)
	defer store.Stop()

	handler := f.handler()

	r := httptest.NewRequest("GET", "/announce?peer_id=00000000000000000001&port=6881&uploaded=0&downloaded=0&left=0", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	require.Equal(t, "d14:failure reason31:no info_hash parameter suppliede", w.Body.String())
}
