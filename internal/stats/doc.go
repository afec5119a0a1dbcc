// Package stats turns one Docker stats snapshot into the normalized record
// the exporter publishes. Parsing is pure: no I/O, no logging and no state
// carried between snapshots, since every snapshot already holds both the
// current and the previous cumulative CPU counters.
package stats
