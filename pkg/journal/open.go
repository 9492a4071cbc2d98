package journal

import (
	"fmt"
	"strings"
)

// Open returns a journal for spec: "memory", "memory:<capacity>",
// "sqlite:<path>" (pure Go driver) or "sqlite3:<path>" (cgo driver).
// An empty spec means "memory".
func Open(spec string) (Journal, error) {
	kind, arg, _ := strings.Cut(spec, ":")

	switch kind {
	case "", "memory":
		capacity := 0
		if arg != "" {
			if _, err := fmt.Sscanf(arg, "%d", &capacity); err != nil {
				return nil, fmt.Errorf("invalid memory journal capacity %q", arg)
			}
		}
		return NewMemory(capacity), nil
	case DriverPureGo, DriverCgo:
		if arg == "" {
			return nil, fmt.Errorf("journal %q requires a path", kind)
		}
		return OpenSQLite(SQLiteConfig{Path: arg, Driver: kind})
	default:
		return nil, fmt.Errorf("unknown journal %q (expected memory, sqlite:<path> or sqlite3:<path>)", spec)
	}
}
