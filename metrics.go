package semdex

import "github.com/kailas-cloud/semdex/internal/metrics"

// RegisterMetrics registers the library's Prometheus collectors with
// the default registry. Call at most once, before serving metrics.
func RegisterMetrics() {
	metrics.Register()
}
