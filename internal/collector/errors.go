package collector

import (
	"errors"
	"fmt"
)

// ErrNoPublisher is returned by Collect on a Collector built without a publisher.
var ErrNoPublisher = errors.New("collector has no publisher")

// ContainerError reports the container that made a collection cycle fail.
type ContainerError struct {
	ContainerID   string
	ContainerName string
	Err           error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("failed to collect metrics for container %s (%s): %v", e.ContainerID, e.ContainerName, e.Err)
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}
