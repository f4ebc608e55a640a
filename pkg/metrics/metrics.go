// Package metrics documents the Prometheus metrics exported by pagekit.
// All metrics are defined in their respective packages (pager, httpsource,
// redissource) to maintain modularity and avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by pagekit.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Controller Metrics (pkg/pager):
//   - pager_loads_total{outcome} (Counter): Load attempts by outcome
//     (ok, error, noop, stale)
//   - pager_load_duration_seconds (Histogram): Page fetch duration
//   - pager_items_loaded_total (Counter): Items appended across all controllers
//   - pager_reloads_total (Counter): Reloads performed
//
// HTTP Source Metrics (pkg/httpsource):
//   - httpsource_requests_total{status} (Counter): Page requests by HTTP status
//   - httpsource_request_duration_seconds (Histogram): Page request duration
//
// Redis Source Metrics (pkg/redissource):
//   - redissource_pages_total{status} (Counter): List page reads by status
//
// Example Prometheus Queries:
//
//   # Load error rate
//   rate(pager_loads_total{outcome="error"}[5m]) /
//   rate(pager_loads_total[5m])
//
//   # P95 page fetch latency
//   histogram_quantile(0.95, rate(pager_load_duration_seconds_bucket[5m]))
//
//   # Items throughput
//   rate(pager_items_loaded_total[5m])
