package collector_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docker/docker/api/types"

	"github.com/rusenback/docker-exporter/internal/docker"
	"github.com/rusenback/docker-exporter/internal/model"
)

// fakeRuntime serves canned snapshots with optional per-container delays and failures.
type fakeRuntime struct {
	mu         sync.Mutex
	containers []model.Container
	snapshots  map[string]*types.StatsJSON
	delays     map[string]time.Duration
	failures   map[string]error
	listErr    error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	completed   []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		snapshots: make(map[string]*types.StatsJSON),
		delays:    make(map[string]time.Duration),
		failures:  make(map[string]error),
	}
}

func (f *fakeRuntime) add(id, name string, cpuDelta uint64) {
	f.containers = append(f.containers, model.Container{ID: id, Name: name})
	f.snapshots[id] = snapshotFor(name, cpuDelta)
}

func (f *fakeRuntime) ListActiveContainers(context.Context) ([]model.Container, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Container(nil), f.containers...), nil
}

func (f *fakeRuntime) GetContainerStats(ctx context.Context, id string) (*types.StatsJSON, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if d := f.delays[id]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: stats %s: %w", docker.ErrRuntimeUnavailable, id, ctx.Err())
		}
	}

	if err := f.failures[id]; err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.completed = append(f.completed, id)
	f.mu.Unlock()

	return f.snapshots[id], nil
}

func (f *fakeRuntime) Ping(context.Context) error { return f.listErr }

func (f *fakeRuntime) Close() error { return nil }

func (f *fakeRuntime) completionOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.completed...)
}

func snapshotFor(name string, cpuDelta uint64) *types.StatsJSON {
	return &types.StatsJSON{
		Stats: types.Stats{
			CPUStats: types.CPUStats{
				CPUUsage:    types.CPUUsage{TotalUsage: 1000 + cpuDelta},
				SystemUsage: 11000,
				OnlineCPUs:  1,
			},
			PreCPUStats: types.CPUStats{
				CPUUsage:    types.CPUUsage{TotalUsage: 1000},
				SystemUsage: 10000,
			},
			MemoryStats: types.MemoryStats{Usage: 256, Limit: 1024},
			BlkioStats: types.BlkioStats{
				IoServiceBytesRecursive: []types.BlkioStatEntry{
					{Major: 253, Op: "read", Value: 10},
					{Major: 253, Op: "write", Value: 20},
				},
			},
			PidsStats: types.PidsStats{Current: 3},
		},
		Name: "/" + name,
		Networks: map[string]types.NetworkStats{
			"eth0": {RxBytes: 100, TxBytes: 200},
		},
	}
}
