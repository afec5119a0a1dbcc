// internal/docker/container.go
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/rusenback/docker-exporter/internal/model"
)

// ListActiveContainers returns the running containers
func (c *Client) ListActiveContainers(ctx context.Context) ([]model.Container, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: list containers: %v", ErrRuntimeUnavailable, err)
	}

	result := make([]model.Container, 0, len(containers))
	for _, cont := range containers {
		var name string
		if len(cont.Names) > 0 {
			name = strings.TrimLeft(cont.Names[0], "/")
		}

		result = append(result, model.Container{
			ID:   cont.ID,
			Name: name,
		})
	}

	return result, nil
}
