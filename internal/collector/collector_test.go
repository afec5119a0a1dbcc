package collector_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/rusenback/docker-exporter/internal/collector"
	"github.com/rusenback/docker-exporter/internal/docker"
	"github.com/rusenback/docker-exporter/internal/metrics"
	"github.com/rusenback/docker-exporter/internal/stats"
)

var _ = Describe("Metrics Collector", func() {
	var (
		ctx      context.Context
		engine   *fakeRuntime
		registry *metrics.Registry
		opts     collector.Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = newFakeRuntime()
		registry = metrics.NewRegistry()
		opts = collector.DefaultOptions()
	})

	newCollector := func() *collector.Collector {
		return collector.New(engine, registry, opts, zap.NewNop())
	}

	render := func() string {
		var buf bytes.Buffer
		Expect(registry.Render(&buf)).To(Succeed())
		return buf.String()
	}

	Context("Gather", func() {
		It("aggregates every container by id", func() {
			engine.add("id-a", "alpha", 100)
			engine.add("id-b", "beta", 500)

			records, err := newCollector().Gather(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records["id-a"].ContainerName).To(Equal("alpha"))
			Expect(records["id-a"].CPUPercent).To(Equal(10.0))
			Expect(records["id-b"].CPUPercent).To(Equal(50.0))
			Expect(records["id-b"].MemPercent).To(Equal(25.0))
		})

		It("is independent of completion order", func() {
			for i := 0; i < 6; i++ {
				engine.add(fmt.Sprintf("id-%d", i), fmt.Sprintf("c%d", i), uint64(i*10))
			}

			engine.delays = map[string]time.Duration{"id-0": 60 * time.Millisecond, "id-2": 30 * time.Millisecond}
			first, err := newCollector().Gather(ctx)
			Expect(err).ToNot(HaveOccurred())
			firstOrder := engine.completionOrder()

			engine.completed = nil
			engine.delays = map[string]time.Duration{"id-5": 60 * time.Millisecond, "id-3": 30 * time.Millisecond}
			second, err := newCollector().Gather(ctx)
			Expect(err).ToNot(HaveOccurred())

			Expect(firstOrder[len(firstOrder)-1]).To(Equal("id-0"))
			Expect(engine.completionOrder()[len(firstOrder)-1]).To(Equal("id-5"))
			Expect(second).To(Equal(first))
		})

		It("fetches all containers concurrently", func() {
			for i := 0; i < 5; i++ {
				id := fmt.Sprintf("id-%d", i)
				engine.add(id, id, 1)
				engine.delays[id] = 50 * time.Millisecond
			}

			start := time.Now()
			_, err := newCollector().Gather(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(engine.maxInFlight.Load()).To(BeNumerically("==", 5))
			Expect(time.Since(start)).To(BeNumerically("<", 200*time.Millisecond))
		})

		It("returns an empty aggregation when nothing runs", func() {
			records, err := newCollector().Gather(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		It("fails with the engine error when listing fails", func() {
			engine.listErr = fmt.Errorf("%w: list containers: connection refused", docker.ErrRuntimeUnavailable)

			_, err := newCollector().Gather(ctx)

			Expect(err).To(MatchError(docker.ErrRuntimeUnavailable))
		})

		It("names the container that vanished", func() {
			engine.add("id-a", "alpha", 1)
			engine.add("id-b", "beta", 1)
			engine.failures["id-b"] = fmt.Errorf("%w: id-b", docker.ErrContainerNotFound)

			_, err := newCollector().Gather(ctx)

			var cerr *collector.ContainerError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.ContainerID).To(Equal("id-b"))
			Expect(cerr.ContainerName).To(Equal("beta"))
			Expect(err).To(MatchError(docker.ErrContainerNotFound))
			Expect(err.Error()).To(ContainSubstring("id-b"))
		})

		It("fails on a malformed snapshot", func() {
			engine.add("id-a", "alpha", 1)
			delete(engine.snapshots["id-a"].Networks, "eth0")

			_, err := newCollector().Gather(ctx)

			Expect(err).To(MatchError(stats.ErrMalformedStats))
		})

		It("bounds a hung fetch with the fetch timeout", func() {
			engine.add("id-a", "alpha", 1)
			engine.delays["id-a"] = time.Minute
			opts.FetchTimeout = 20 * time.Millisecond

			start := time.Now()
			_, err := newCollector().Gather(ctx)

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("cancels the remaining fetches after the first failure", func() {
			engine.add("id-a", "alpha", 1)
			engine.add("id-b", "beta", 1)
			engine.delays["id-a"] = time.Minute
			engine.failures["id-b"] = fmt.Errorf("%w: boom", docker.ErrRuntimeUnavailable)

			start := time.Now()
			_, err := newCollector().Gather(ctx)

			Expect(err).To(HaveOccurred())
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})
	})

	Context("Collect", func() {
		It("publishes every record", func() {
			engine.add("id-a", "alpha", 100)
			engine.add("id-b", "beta", 200)

			Expect(newCollector().Collect(ctx)).To(Succeed())

			out := render()
			Expect(out).To(ContainSubstring(`docker_container_cpu_percentage{container_id="id-a",container_name="alpha"} 10`))
			Expect(out).To(ContainSubstring(`docker_container_cpu_percentage{container_id="id-b",container_name="beta"} 20`))
			Expect(out).To(ContainSubstring(`docker_container_block_write_bytes{container_id="id-a",container_name="alpha"} 20`))
		})

		It("keeps the previous values when one of N containers fails", func() {
			for i := 0; i < 4; i++ {
				engine.add(fmt.Sprintf("id-%d", i), fmt.Sprintf("c%d", i), 100)
			}
			c := newCollector()
			Expect(c.Collect(ctx)).To(Succeed())
			before := render()

			for i := 0; i < 4; i++ {
				engine.snapshots[fmt.Sprintf("id-%d", i)] = snapshotFor(fmt.Sprintf("c%d", i), 900)
			}
			engine.failures["id-2"] = fmt.Errorf("%w: gone", docker.ErrContainerNotFound)

			err := c.Collect(ctx)

			Expect(err).To(MatchError(docker.ErrContainerNotFound))
			Expect(render()).To(Equal(before))
		})

		It("leaves the registry unchanged when nothing runs", func() {
			Expect(registry.Set(metrics.Pids, "old", "gone", 4)).To(Succeed())
			before := render()

			Expect(newCollector().Collect(ctx)).To(Succeed())

			Expect(render()).To(Equal(before))
		})

		It("keeps stale labels by default", func() {
			engine.add("id-a", "alpha", 1)
			c := newCollector()
			Expect(c.Collect(ctx)).To(Succeed())

			engine.containers = nil
			engine.add("id-b", "beta", 1)
			Expect(c.Collect(ctx)).To(Succeed())

			Expect(render()).To(ContainSubstring(`container_id="id-a"`))
		})

		It("prunes stale labels when enabled", func() {
			opts.PruneStale = true
			engine.add("id-a", "alpha", 1)
			c := newCollector()
			Expect(c.Collect(ctx)).To(Succeed())

			engine.containers = nil
			engine.add("id-b", "beta", 1)
			Expect(c.Collect(ctx)).To(Succeed())

			out := render()
			Expect(out).NotTo(ContainSubstring(`container_id="id-a"`))
			Expect(out).To(ContainSubstring(`container_id="id-b"`))
		})

		It("refuses to publish without a publisher", func() {
			engine.add("id-a", "alpha", 1)
			c := collector.New(engine, nil, opts, zap.NewNop())

			Expect(c.Collect(ctx)).To(MatchError(collector.ErrNoPublisher))

			records, err := c.Gather(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveKey("id-a"))
		})

		It("publishes zeroed percentages for degenerate snapshots", func() {
			engine.add("id-a", "alpha", 1)
			engine.snapshots["id-a"].MemoryStats.Limit = 0

			Expect(newCollector().Collect(ctx)).To(Succeed())

			Expect(render()).To(ContainSubstring(`docker_container_memory_percentage{container_id="id-a",container_name="alpha"} 0`))
		})
	})
})
