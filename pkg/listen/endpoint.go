package listen

import (
	"fmt"
	"net"
	"time"
)

// DefaultErrorSleep is the pause after a failed Accept or ReadFrom when the
// endpoint does not set one.
const DefaultErrorSleep = 100 * time.Millisecond

// Endpoint configures one TCP listener or UDP socket.
type Endpoint struct {
	// Address is host:port. Endpoints are matched across reloads by this
	// string, so an unchanged address keeps its socket.
	Address string `yaml:"address" toml:"address" json:"address"`

	// MaxConn caps concurrent connections, or datagrams in flight for UDP;
	// 0 means unlimited.
	MaxConn int64 `yaml:"max_conn" toml:"max_conn" json:"max_conn"`

	// ErrorSleep is the pause after a failed Accept, so running out of file
	// descriptors does not turn into a busy loop.
	ErrorSleep time.Duration `yaml:"error_sleep" toml:"error_sleep" json:"error_sleep"`
}

func (e Endpoint) errorSleep() time.Duration {
	if e.ErrorSleep <= 0 {
		return DefaultErrorSleep
	}
	return e.ErrorSleep
}

// Validate checks a list of endpoints.
func Validate(endpoints []Endpoint) error {
	seen := make(map[string]bool, len(endpoints))
	for i, e := range endpoints {
		if _, _, err := net.SplitHostPort(e.Address); err != nil {
			return fmt.Errorf("listen[%d]: invalid address %q: %w", i, e.Address, err)
		}
		if seen[e.Address] {
			return fmt.Errorf("listen[%d]: duplicate address %q", i, e.Address)
		}
		seen[e.Address] = true
		if e.MaxConn < 0 {
			return fmt.Errorf("listen[%d]: max_conn must not be negative", i)
		}
		if e.ErrorSleep < 0 {
			return fmt.Errorf("listen[%d]: error_sleep must not be negative", i)
		}
	}
	return nil
}
