// Package metrics defines the Prometheus collectors of the identity client.
//
//   - idm_client_requests_total: requests to the service (labels: method, status)
//   - idm_client_request_duration_seconds: request latency (labels: method)
//   - idm_client_materializations_total: resource fetches (labels: kind, result)
//   - idm_client_cache_{hits,misses,evictions}_total: response cache activity
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New(reg)
//	client := datastore.New(baseURL, datastore.WithMetrics(m))
//
// All methods accept a nil *Metrics, so callers never need to check.
package metrics
