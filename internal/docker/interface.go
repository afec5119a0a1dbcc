// internal/docker/interface.go
package docker

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/rusenback/docker-exporter/internal/model"
)

// RuntimeClient is the part of the engine the exporter depends on. It exists so tests can fake the engine.
type RuntimeClient interface {
	ListActiveContainers(ctx context.Context) ([]model.Container, error)
	GetContainerStats(ctx context.Context, id string) (*types.StatsJSON, error)
	Ping(ctx context.Context) error
	Close() error
}

// Make sure Client implements the interface
var _ RuntimeClient = (*Client)(nil)
