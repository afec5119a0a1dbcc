package metrics

import (
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/rusenback/docker-exporter/internal/model"
)

// Gauge names. They are part of the dashboard contract and must not change.
const (
	CPUPercentage    = "docker_container_cpu_percentage"
	MemoryPercentage = "docker_container_memory_percentage"
	MemoryUsageBytes = "docker_container_memory_usage_bytes"
	MemoryLimitBytes = "docker_container_memory_limit_bytes"
	NetworkRxBytes   = "docker_container_network_rx_bytes"
	NetworkTxBytes   = "docker_container_network_tx_bytes"
	BlockReadBytes   = "docker_container_block_read_bytes"
	BlockWriteBytes  = "docker_container_block_write_bytes"
	Pids             = "docker_container_pids"
)

const (
	LabelContainerID   = "container_id"
	LabelContainerName = "container_name"
)

// ExpositionFormat is the content type Render writes.
var ExpositionFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

type gauge struct {
	name  string
	help  string
	value func(model.Record) float64
	vec   *prometheus.GaugeVec
}

// Registry owns the container gauges. It is safe for concurrent use.
type Registry struct {
	reg    *prometheus.Registry
	gauges []*gauge
	byName map[string]*gauge

	mu        sync.Mutex
	published map[string]string // container id -> container name
}

// NewRegistry creates the gauge set on a private prometheus registry.
// Only container gauges are registered; there are no Go runtime or process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg:       prometheus.NewRegistry(),
		byName:    make(map[string]*gauge),
		published: make(map[string]string),
	}

	defs := []*gauge{
		{name: CPUPercentage, help: "CPU percentage usage by container",
			value: func(rec model.Record) float64 { return rec.CPUPercent }},
		{name: MemoryPercentage, help: "Memory percentage usage by container",
			value: func(rec model.Record) float64 { return rec.MemPercent }},
		{name: MemoryUsageBytes, help: "Memory usage by container",
			value: func(rec model.Record) float64 { return float64(rec.MemUsageBytes) }},
		{name: MemoryLimitBytes, help: "Memory limit of the container",
			value: func(rec model.Record) float64 { return float64(rec.MemLimitBytes) }},
		{name: NetworkRxBytes, help: "Network bytes received by container",
			value: func(rec model.Record) float64 { return float64(rec.NetRxBytes) }},
		{name: NetworkTxBytes, help: "Network bytes transmitted by container",
			value: func(rec model.Record) float64 { return float64(rec.NetTxBytes) }},
		{name: BlockReadBytes, help: "Block bytes read by container",
			value: func(rec model.Record) float64 { return float64(rec.BlkioReadBytes) }},
		{name: BlockWriteBytes, help: "Block bytes written by container",
			value: func(rec model.Record) float64 { return float64(rec.BlkioWriteBytes) }},
		{name: Pids, help: "Number of processes by container",
			value: func(rec model.Record) float64 { return float64(rec.NumProcs) }},
	}

	for _, g := range defs {
		g.vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, []string{LabelContainerID, LabelContainerName})
		r.reg.MustRegister(g.vec)
		r.gauges = append(r.gauges, g)
		r.byName[g.name] = g
	}

	return r
}

// Publish sets every gauge for every record, keyed by container id.
func (r *Registry) Publish(records map[string]model.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range records {
		for _, g := range r.gauges {
			g.vec.WithLabelValues(id, rec.ContainerName).Set(g.value(rec))
		}
		r.published[id] = rec.ContainerName
	}
}

// Set overwrites a single sample.
func (r *Registry) Set(metric, containerID, containerName string, value float64) error {
	g, ok := r.byName[metric]
	if !ok {
		return fmt.Errorf("unknown metric %q", metric)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g.vec.WithLabelValues(containerID, containerName).Set(value)
	r.published[containerID] = containerName
	return nil
}

// Prune removes the samples of every container id not in active and returns
// how many containers were dropped.
func (r *Registry) Prune(active map[string]struct{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id := range r.published {
		if _, ok := active[id]; ok {
			continue
		}
		for _, g := range r.gauges {
			g.vec.DeletePartialMatch(prometheus.Labels{LabelContainerID: id})
		}
		delete(r.published, id)
		removed++
	}
	return removed
}

// Render writes all current samples in the text exposition format.
func (r *Registry) Render(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, ExpositionFormat)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
