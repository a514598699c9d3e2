package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	queued       []prometheus.Collector
)

// register queues a collector; each metrics file calls it from init().
func register(cs ...prometheus.Collector) {
	queued = append(queued, cs...)
}

// MustRegister installs every queued collector into the default
// registry. Only the first call registers; later calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() {
		if len(queued) > 0 {
			prometheus.MustRegister(queued...)
		}
	})
}
