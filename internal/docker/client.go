package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/docker/client"
)

// Config holds the engine connection settings
type Config struct {
	Host      string
	TLSVerify bool
	CertPath  string
	Timeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:    "unix:///var/run/docker.sock",
		Timeout: 30 * time.Second,
	}
}

// Client wraps the Docker API client
type Client struct {
	cli *client.Client
}

// NewClient connects to the engine and pings it once so a wrong host fails at startup
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []client.Opt{
		client.WithHost(cfg.Host),
		client.WithAPIVersionNegotiation(),
	}

	if cfg.TLSVerify {
		opts = append(opts, client.WithTLSClientConfig(
			filepath.Join(cfg.CertPath, "ca.pem"),
			filepath.Join(cfg.CertPath, "cert.pem"),
			filepath.Join(cfg.CertPath, "key.pem"),
		))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	c := &Client{cli: cli}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := c.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, err
	}

	return c, nil
}

// Ping checks that the engine answers
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrRuntimeUnavailable, err)
	}
	return nil
}

// Close closes the connection
func (c *Client) Close() error {
	if c.cli != nil {
		return c.cli.Close()
	}
	return nil
}
