package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/rusenback/docker-exporter/internal/model"
)

// ErrMalformedStats is returned when a snapshot lacks a field the record is derived from.
var ErrMalformedStats = errors.New("malformed stats")

const (
	DefaultInterface  = "eth0"
	DefaultBlockMajor = 253 // device-mapper
)

// Options selects the environment specific parts of a snapshot.
type Options struct {
	// Interface is the network interface whose counters are reported.
	Interface string
	// BlockMajor is the device major number whose block I/O is summed.
	BlockMajor uint64
}

func DefaultOptions() Options {
	return Options{
		Interface:  DefaultInterface,
		BlockMajor: DefaultBlockMajor,
	}
}

// Parse derives a record from a single snapshot.
//
// A zero or negative divisor does not fail the parse: the affected
// percentage is reported as 0 and named in Record.Degraded.
func Parse(snap *types.StatsJSON, opts Options) (model.Record, error) {
	if snap == nil {
		return model.Record{}, fmt.Errorf("%w: empty snapshot", ErrMalformedStats)
	}

	name := strings.TrimLeft(snap.Name, "/")
	if name == "" {
		return model.Record{}, fmt.Errorf("%w: missing container name", ErrMalformedStats)
	}

	onlineCPUs := uint64(snap.CPUStats.OnlineCPUs)
	if onlineCPUs == 0 {
		onlineCPUs = uint64(len(snap.CPUStats.CPUUsage.PercpuUsage))
	}
	if onlineCPUs == 0 {
		return model.Record{}, fmt.Errorf("%w: %s: missing online cpu count", ErrMalformedStats, name)
	}

	network, ok := snap.Networks[opts.Interface]
	if !ok {
		return model.Record{}, fmt.Errorf("%w: %s: no stats for interface %q", ErrMalformedStats, name, opts.Interface)
	}

	rec := model.Record{
		ContainerName: name,
		MemUsageBytes: snap.MemoryStats.Usage,
		MemLimitBytes: snap.MemoryStats.Limit,
		NetRxBytes:    network.RxBytes,
		NetTxBytes:    network.TxBytes,
		NumProcs:      snap.PidsStats.Current,
	}

	rec.CPUPercent = cpuPercent(snap, onlineCPUs, &rec)

	if rec.MemLimitBytes == 0 {
		rec.Degraded = append(rec.Degraded, "memory_percentage: zero memory limit")
	} else {
		rec.MemPercent = round2(float64(rec.MemUsageBytes) / float64(rec.MemLimitBytes) * 100.0)
	}

	rec.BlkioReadBytes, rec.BlkioWriteBytes = blockIO(snap.BlkioStats.IoServiceBytesRecursive, opts.BlockMajor)

	return rec, nil
}

func cpuPercent(snap *types.StatsJSON, onlineCPUs uint64, rec *model.Record) float64 {
	// Differences are taken in float64 so a counter that went backwards stays negative instead of wrapping.
	cpuDelta := float64(snap.CPUStats.CPUUsage.TotalUsage) - float64(snap.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(snap.CPUStats.SystemUsage) - float64(snap.PreCPUStats.SystemUsage)

	switch {
	case systemDelta <= 0:
		rec.Degraded = append(rec.Degraded, "cpu_percentage: system cpu usage did not advance")
		return 0
	case cpuDelta < 0:
		rec.Degraded = append(rec.Degraded, "cpu_percentage: container cpu usage went backwards")
		return 0
	}

	return round2((cpuDelta / systemDelta) / float64(onlineCPUs) * 100.0)
}

func blockIO(entries []types.BlkioStatEntry, major uint64) (read, write uint64) {
	for _, e := range entries {
		if e.Major != major {
			continue
		}
		switch {
		case strings.EqualFold(e.Op, "read"):
			read += e.Value
		case strings.EqualFold(e.Op, "write"):
			write += e.Value
		}
	}
	return read, write
}

// round2 rounds half away from zero to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
