package model

// Container is a running container as reported by the engine.
type Container struct {
	ID   string // full engine id, stable for the container's lifetime
	Name string // without the leading "/"
}
