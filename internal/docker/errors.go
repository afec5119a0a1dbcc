package docker

import "errors"

var (
	// ErrRuntimeUnavailable is returned when the engine API is unreachable or answers with an error.
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")

	// ErrContainerNotFound is returned when a container vanished between listing and stats fetch.
	ErrContainerNotFound = errors.New("container not found")
)
