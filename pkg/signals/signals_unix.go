//go:build !windows

package signals

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"mercator-hq/keeper/pkg/event"
)

// DefaultMapping maps SIGHUP to Reload and SIGTERM and SIGINT to Terminate.
func DefaultMapping() Mapping {
	return Mapping{
		syscall.SIGHUP:  event.Reload(),
		syscall.SIGTERM: event.Terminate(),
		syscall.SIGINT:  event.Terminate(),
	}
}

// Parse resolves a signal name such as "SIGUSR1" or "usr1".
func Parse(name string) (os.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	sig := unix.SignalNum(n)
	if sig == 0 {
		return nil, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

// Name returns the conventional name of sig, e.g. "SIGHUP".
func Name(sig os.Signal) string {
	if s, ok := sig.(syscall.Signal); ok {
		if name := unix.SignalName(s); name != "" {
			return name
		}
	}
	return sig.String()
}

func checkCatchable(sig os.Signal) error {
	switch sig {
	case syscall.SIGKILL, syscall.SIGSTOP:
		return errors.New("signal cannot be caught")
	}
	if _, ok := sig.(syscall.Signal); !ok {
		return fmt.Errorf("unsupported signal type %T", sig)
	}
	return nil
}
