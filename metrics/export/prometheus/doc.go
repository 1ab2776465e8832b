// Package prometheus exports engine counters and the authenticate latency
// histogram through the Prometheus client library.
//
// Register a [Collector] with any registry, or use [Handler] for a ready-made
// /metrics endpoint.
package prometheus
