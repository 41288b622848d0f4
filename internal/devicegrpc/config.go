package devicegrpc

import (
	"errors"
	"strings"
	"time"
)

// DefaultLeaseTTL is how long an idle client keeps its claim on the bridge.
const DefaultLeaseTTL = 30 * time.Second

// Config controls the bridge server and client.
type Config struct {
	// Addr is "unix:///path/to.sock", "unix:/path", or a TCP "host:port".
	Addr string
	// LeaseTTL bounds how long the bridge stays bound to one client after
	// its last call. Zero means DefaultLeaseTTL.
	LeaseTTL time.Duration
}

func (c Config) leaseTTL() time.Duration {
	if c.LeaseTTL > 0 {
		return c.LeaseTTL
	}
	return DefaultLeaseTTL
}

func splitAddr(addr string) (network, address string, err error) {
	addr = strings.TrimSpace(addr)
	switch {
	case addr == "":
		return "", "", errors.New("device bridge address is required")
	case strings.HasPrefix(addr, "unix://"):
		return "unix", strings.TrimPrefix(addr, "unix://"), nil
	case strings.HasPrefix(addr, "unix:"):
		return "unix", strings.TrimPrefix(addr, "unix:"), nil
	default:
		return "tcp", addr, nil
	}
}
