package http

import (
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/swarmd/swarmd/bittorrent"
)

func init() {
	prometheus.MustRegister(promResponseDurationMilliseconds)
}

var promResponseDurationMilliseconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "swarmd_http_response_duration_milliseconds",
		Help:    "The duration of time it takes to receive and write a response to an announce",
		Buckets: prometheus.ExponentialBuckets(9.375, 2, 10),
	},
	[]string{"action", "address_family", "error"},
)

// recordResponseDuration records the duration of time to respond to a
// Request in milliseconds.
func recordResponseDuration(action string, addr netip.Addr, err error, duration time.Duration) {
	var errString string
	if err != nil {
		if _, ok := err.(bittorrent.ClientError); ok {
			errString = err.Error()
		} else {
			errString = "internal error"
		}
	}

	var addressFamily string
	switch {
	case !addr.IsValid(), addr.IsUnspecified():
		addressFamily = "Unknown"
	case addr.Is4(), addr.Is4In6():
		addressFamily = "IPv4"
	case addr.Is6():
		addressFamily = "IPv6"
	default:
		addressFamily = "Unknown"
	}

	promResponseDurationMilliseconds.
		WithLabelValues(action, addressFamily, errString).
		Observe(float64(duration.Nanoseconds()) / float64(time.Millisecond))
}
