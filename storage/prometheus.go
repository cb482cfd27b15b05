package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(
		PromSweepDurationMilliseconds,
		PromSwarmsCount,
		PromSeedersCount,
		PromLeechersCount,
	)
}

var (
	// PromSweepDurationMilliseconds is a histogram used by a store to
	// record the durations of removing expired peers.
	PromSweepDurationMilliseconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swarmd_storage_sweep_duration_milliseconds",
		Help:    "The time it takes to perform a maintenance sweep",
		Buckets: prometheus.ExponentialBuckets(9.375, 2, 10),
	})

	// PromSwarmsCount is a gauge holding the current number of swarms
	// being tracked by a store.
	PromSwarmsCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swarmd_storage_swarms_count",
		Help: "The number of swarms tracked",
	})

	// PromSeedersCount is a gauge holding the current total number of
	// seeders across all swarms.
	PromSeedersCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swarmd_storage_seeders_count",
		Help: "The number of seeders tracked",
	})

	// PromLeechersCount is a gauge holding the current total number of
	// leechers across all swarms.
	PromLeechersCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swarmd_storage_leechers_count",
		Help: "The number of leechers tracked",
	})
)

// RecordSwarmCreated adjusts the swarm gauge for a newly tracked infohash.
func RecordSwarmCreated() {
	PromSwarmsCount.Inc()
}

// RecordSweep records the duration of a completed maintenance sweep and
// resynchronizes the aggregate gauges from the post-sweep metrics.
func RecordSweep(duration time.Duration, m Metrics) {
	PromSweepDurationMilliseconds.Observe(float64(duration.Nanoseconds()) / float64(time.Millisecond))
	PromSwarmsCount.Set(float64(m.Torrents))
	PromSeedersCount.Set(float64(m.Seeders))
	PromLeechersCount.Set(float64(m.Leechers))
}
