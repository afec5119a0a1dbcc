// Package collector runs one collection cycle: it lists the running
// containers, fetches every container's stats snapshot concurrently, parses
// them and publishes the records. A cycle is all or nothing; if any container
// fails, nothing is published.
package collector
