package test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
)

// service is a started container reachable on one mapped port.
type service struct {
	container testcontainers.Container
	endpoint  string
}

func (s *service) terminate(ctx context.Context) error {
	if err := s.container.Terminate(ctx); err != nil {
		return fmt.Errorf("could not terminate %s: %w", s.endpoint, err)
	}

	return nil
}

// startService runs req and resolves the host address of port, which must
// be listed in req.ExposedPorts.
func startService(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port nat.Port) (*service, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start %s: %w", req.Image, err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("could not get host of %s: %w", req.Image, err)
	}

	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("could not get port %s of %s: %w", port, req.Image, err)
	}

	s := &service{container: c, endpoint: net.JoinHostPort(host, mapped.Port())}
	t.Logf("%s listening on %s", req.Image, s.endpoint)

	return s, nil
}

// retry calls check until it succeeds, giving up after attempts.
func retry(t *testing.T, what string, attempts int, interval time.Duration, check func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = check(); err == nil {
			return nil
		}

		t.Logf("waiting for %s: %s", what, err)
		time.Sleep(interval)
	}

	return fmt.Errorf("%s not ready after %d attempts: %w", what, attempts, err)
}
