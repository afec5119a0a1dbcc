package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rusenback/docker-exporter/internal/docker"
	"github.com/rusenback/docker-exporter/internal/model"
	"github.com/rusenback/docker-exporter/internal/stats"
)

const DefaultFetchTimeout = 10 * time.Second

// Publisher receives the records of a successful cycle.
type Publisher interface {
	Publish(records map[string]model.Record)
	Prune(active map[string]struct{}) int
}

// Options tunes a Collector.
type Options struct {
	Parse stats.Options
	// FetchTimeout bounds each per-container stats read.
	FetchTimeout time.Duration
	// PruneStale drops the samples of containers that are no longer running.
	PruneStale bool
}

func DefaultOptions() Options {
	return Options{
		Parse:        stats.DefaultOptions(),
		FetchTimeout: DefaultFetchTimeout,
	}
}

// Collector turns engine stats into published records.
type Collector struct {
	client    docker.RuntimeClient
	publisher Publisher
	opts      Options
	logger    *zap.Logger
}

// New creates a Collector. A nil publisher is allowed for callers that only
// Gather; Collect on such a Collector returns ErrNoPublisher.
func New(client docker.RuntimeClient, publisher Publisher, opts Options, logger *zap.Logger) *Collector {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		client:    client,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

// Collect runs one cycle and publishes its records. On error the publisher is not touched.
func (c *Collector) Collect(ctx context.Context) error {
	if c.publisher == nil {
		return ErrNoPublisher
	}
	start := time.Now()

	records, err := c.Gather(ctx)
	if err != nil {
		return err
	}

	c.publisher.Publish(records)

	if c.opts.PruneStale {
		active := make(map[string]struct{}, len(records))
		for id := range records {
			active[id] = struct{}{}
		}
		if removed := c.publisher.Prune(active); removed > 0 {
			c.logger.Info("Pruned stale container labels", zap.Int("containers", removed))
		}
	}

	c.logger.Debug("Collection cycle finished",
		zap.Int("containers", len(records)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Gather lists the running containers and returns one record per container
// id. The first failing container cancels the others and is returned as a
// *ContainerError.
func (c *Collector) Gather(ctx context.Context) (map[string]model.Record, error) {
	containers, err := c.client.ListActiveContainers(ctx)
	if err != nil {
		c.logger.Error("Failed to get active containers", zap.Error(err))
		return nil, fmt.Errorf("failed to get active containers: %w", err)
	}

	records := make(map[string]model.Record, len(containers))
	if len(containers) == 0 {
		return records, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, cont := range containers {
		g.Go(func() error {
			rec, err := c.collectOne(gctx, cont)
			if err != nil {
				return &ContainerError{ContainerID: cont.ID, ContainerName: cont.Name, Err: err}
			}

			mu.Lock()
			records[cont.ID] = rec
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("Collection cycle failed", zap.Error(err))
		return nil, err
	}

	return records, nil
}

func (c *Collector) collectOne(ctx context.Context, cont model.Container) (model.Record, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	log := c.logger.With(zap.String("container_id", cont.ID), zap.String("container_name", cont.Name))

	snap, err := c.client.GetContainerStats(fetchCtx, cont.ID)
	if err != nil {
		if ctx.Err() != nil {
			// another container already failed the cycle
			return model.Record{}, err
		}
		log.Error("Failed to get container stats", zap.Error(err))
		return model.Record{}, err
	}

	rec, err := stats.Parse(snap, c.opts.Parse)
	if err != nil {
		log.Error("Failed to parse container stats", zap.Error(err))
		return model.Record{}, err
	}

	for _, reason := range rec.Degraded {
		log.Warn("Degenerate stats, reporting 0", zap.String("reason", reason))
	}

	return rec, nil
}
