package fine

import (
	"testing"
	"time"

	s "github.com/swarmd/swarmd/storage"
)

func createNew() s.SwarmStore {
	ps, err := New(s.Config{
		GarbageCollectionInterval: 10 * time.Minute,
		PeerLifetime:              30 * time.Minute,
	})
	if err != nil {
		panic(err)
	}
	return ps
}

func TestSwarmStore(t *testing.T)           { s.TestSwarmStore(t, createNew()) }
func TestConcurrentAnnounces(t *testing.T)  { s.TestConcurrentAnnounces(t, createNew()) }
func TestSweepDuringAnnounces(t *testing.T) { s.TestSweepDuringAnnounces(t, createNew()) }

func BenchmarkUpsert(b *testing.B)              { s.Upsert(b, createNew()) }
func BenchmarkUpsert1k(b *testing.B)            { s.Upsert1k(b, createNew()) }
func BenchmarkUpsert1kInfohash(b *testing.B)    { s.Upsert1kInfohash(b, createNew()) }
func BenchmarkUpsert1kInfohash1k(b *testing.B)  { s.Upsert1kInfohash1k(b, createNew()) }
func BenchmarkUpsertRemove(b *testing.B)        { s.UpsertRemove(b, createNew()) }
func BenchmarkUpsertRemove1kInfohash(b *testing.B) {
	s.UpsertRemove1kInfohash(b, createNew())
}
func BenchmarkRemoveNonexist(b *testing.B)     { s.RemoveNonexist(b, createNew()) }
func BenchmarkSnapshot(b *testing.B)           { s.Snapshot(b, createNew()) }
func BenchmarkSnapshot1kInfohash(b *testing.B) { s.Snapshot1kInfohash(b, createNew()) }
func BenchmarkUpsertParallel(b *testing.B)     { s.UpsertParallel(b, createNew()) }
func BenchmarkUpsertParallel1kInfohash(b *testing.B) {
	s.UpsertParallel1kInfohash(b, createNew())
}
func BenchmarkSnapshotParallel1kInfohash(b *testing.B) {
	s.SnapshotParallel1kInfohash(b, createNew())
}
