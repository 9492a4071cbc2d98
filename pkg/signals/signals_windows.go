//go:build windows

package signals

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"mercator-hq/keeper/pkg/event"
)

// DefaultMapping maps interrupt and SIGTERM to Terminate. Windows has no
// reload signal; use the admin endpoint or a file watcher instead.
func DefaultMapping() Mapping {
	return Mapping{
		os.Interrupt:    event.Terminate(),
		syscall.SIGTERM: event.Terminate(),
	}
}

// Parse resolves "SIGINT" or "SIGTERM", the only signals Windows delivers.
func Parse(name string) (os.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	switch n {
	case "SIGINT":
		return os.Interrupt, nil
	case "SIGTERM":
		return syscall.SIGTERM, nil
	default:
		return nil, fmt.Errorf("signal %q is not supported on windows", name)
	}
}

// Name returns the conventional name of sig.
func Name(sig os.Signal) string {
	switch sig {
	case os.Interrupt:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return sig.String()
}

func checkCatchable(sig os.Signal) error {
	switch sig {
	case os.Interrupt, syscall.SIGTERM:
		return nil
	}
	return fmt.Errorf("signal %s is not delivered on windows", sig)
}
