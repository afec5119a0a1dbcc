// internal/model/stats.go
package model

// Record holds the normalized metrics derived from one stats snapshot
type Record struct {
	ContainerName string

	// CPU, percent of the whole host, rounded to 2 decimals
	CPUPercent float64

	// Memory
	MemUsageBytes uint64
	MemLimitBytes uint64
	MemPercent    float64

	// Network, cumulative counters of the configured interface
	NetRxBytes uint64
	NetTxBytes uint64

	// Block I/O, summed over the configured device major
	BlkioReadBytes  uint64
	BlkioWriteBytes uint64

	// Processes/threads
	NumProcs uint64

	// Derived values forced to 0 because their divisor was degenerate
	Degraded []string
}
