// internal/docker/stats.go
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/errdefs"

	"github.com/rusenback/docker-exporter/internal/stats"
)

// GetContainerStats reads one stats snapshot of a container.
// stream=false makes the engine wait for a second sample, so precpu_stats is filled in.
// A body that cannot be read is ErrRuntimeUnavailable; one that reads but does
// not hold a usable stats document is stats.ErrMalformedStats.
func (c *Client) GetContainerStats(ctx context.Context, id string) (*types.StatsJSON, error) {
	resp, err := c.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return nil, classify(id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: stats %s: %w", ErrRuntimeUnavailable, id, ctx.Err())
		}
		return nil, fmt.Errorf("%w: read stats %s: %v", ErrRuntimeUnavailable, id, err)
	}

	snap, err := stats.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("stats %s: %w", id, err)
	}
	return snap, nil
}

func classify(id string, err error) error {
	switch {
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %s: %v", ErrContainerNotFound, id, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: stats %s: %w", ErrRuntimeUnavailable, id, err)
	default:
		return fmt.Errorf("%w: stats %s: %v", ErrRuntimeUnavailable, id, err)
	}
}
