package stats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
)

// requiredKeys mirrors the parts of a stats document a record is derived
// from. Pointers and raw values tell an absent key apart from a zero one.
type requiredKeys struct {
	CPUStats    *cpuKeys `json:"cpu_stats"`
	PreCPUStats *cpuKeys `json:"precpu_stats"`
	MemoryStats *struct {
		Usage *uint64 `json:"usage"`
		Limit *uint64 `json:"limit"`
	} `json:"memory_stats"`
	Networks   json.RawMessage `json:"networks"`
	BlkioStats *struct {
		IoServiceBytesRecursive json.RawMessage `json:"io_service_bytes_recursive"`
	} `json:"blkio_stats"`
	PidsStats *struct {
		Current *uint64 `json:"current"`
	} `json:"pids_stats"`
}

type cpuKeys struct {
	CPUUsage *struct {
		TotalUsage *uint64 `json:"total_usage"`
	} `json:"cpu_usage"`
	SystemUsage *uint64 `json:"system_cpu_usage"`
}

// Decode turns one engine stats document into a snapshot. A syntax error, a
// value of the wrong type or a missing required key is ErrMalformedStats.
// A null io_service_bytes_recursive list counts as present and empty.
func Decode(data []byte) (*types.StatsJSON, error) {
	var keys requiredKeys
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStats, err)
	}
	if missing := keys.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedStats, strings.Join(missing, ", "))
	}

	var snap types.StatsJSON
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStats, err)
	}
	return &snap, nil
}

func (k *requiredKeys) missing() []string {
	var out []string
	out = append(out, k.CPUStats.missing("cpu_stats")...)
	out = append(out, k.PreCPUStats.missing("precpu_stats")...)

	switch {
	case k.MemoryStats == nil:
		out = append(out, "memory_stats")
	default:
		if k.MemoryStats.Usage == nil {
			out = append(out, "memory_stats.usage")
		}
		if k.MemoryStats.Limit == nil {
			out = append(out, "memory_stats.limit")
		}
	}

	if len(k.Networks) == 0 || string(k.Networks) == "null" {
		out = append(out, "networks")
	}

	switch {
	case k.BlkioStats == nil:
		out = append(out, "blkio_stats")
	case len(k.BlkioStats.IoServiceBytesRecursive) == 0:
		out = append(out, "blkio_stats.io_service_bytes_recursive")
	}

	if k.PidsStats == nil || k.PidsStats.Current == nil {
		out = append(out, "pids_stats.current")
	}
	return out
}

func (c *cpuKeys) missing(prefix string) []string {
	if c == nil {
		return []string{prefix}
	}
	var out []string
	if c.CPUUsage == nil || c.CPUUsage.TotalUsage == nil {
		out = append(out, prefix+".cpu_usage.total_usage")
	}
	if c.SystemUsage == nil {
		out = append(out, prefix+".system_cpu_usage")
	}
	return out
}
