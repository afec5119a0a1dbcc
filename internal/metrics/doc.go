// Package metrics holds the container gauges the exporter publishes and
// serializes them in the Prometheus text exposition format. The gauge set is
// fixed at construction; label pairs appear on first publish and are
// overwritten by every later one.
package metrics
