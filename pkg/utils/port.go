package utils

import (
	"fmt"
	"net"
)

// FreePort returns the first of the preferred ports that can be bound on
// localhost, or a port chosen by the kernel when none can.
func FreePort(preferred ...int) (int, error) {
	for _, p := range preferred {
		l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", p))
		if err != nil {
			continue
		}

		if err := l.Close(); err != nil {
			return 0, fmt.Errorf("could not release port %d: %w", p, err)
		}

		return p, nil
	}

	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("could not find free port: %w", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}
