package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo)
	_ "modernc.org/sqlite"          // SQLite driver (pure Go)
)

// SQLite driver names accepted by SQLiteConfig.Driver.
const (
	DriverPureGo = "sqlite"
	DriverCgo    = "sqlite3"
)

// SQLiteConfig configures the SQLite journal.
type SQLiteConfig struct {
	// Path is the database file.
	Path string

	// Driver is "sqlite" (modernc.org/sqlite, pure Go) or "sqlite3"
	// (github.com/mattn/go-sqlite3, requires cgo).
	// Default: "sqlite"
	Driver string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLite persists entries in a SQLite database.
type SQLite struct {
	db        *sql.DB
	closeOnce sync.Once

	insertStmt *sql.Stmt
	recentStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// OpenSQLite opens or creates the journal database.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPureGo
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

// sqliteDSN builds a DSN enabling WAL mode and the busy timeout in the
// parameter syntax of each driver.
func sqliteDSN(cfg SQLiteConfig) (string, error) {
	ms := int(cfg.BusyTimeout.Milliseconds())
	switch cfg.Driver {
	case DriverPureGo:
		return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", cfg.Path, ms), nil
	case DriverCgo:
		return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL", cfg.Path, ms), nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q (expected %q or %q)", cfg.Driver, DriverPureGo, DriverCgo)
	}
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		trigger_source TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		version INTEGER NOT NULL,
		changed TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO cycles (id, kind, trigger_source, outcome, version, changed, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}

	s.recentStmt, err = s.db.Prepare(`
		SELECT id, kind, trigger_source, outcome, version, changed, error, started_at, duration_ns
		FROM cycles
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("prepare recent: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`DELETE FROM cycles WHERE started_at < ?`)
	if err != nil {
		return fmt.Errorf("prepare prune: %w", err)
	}

	return nil
}

// Record inserts e.
func (s *SQLite) Record(ctx context.Context, e Entry) error {
	_, err := s.insertStmt.ExecContext(ctx,
		e.ID,
		e.Kind,
		e.Trigger,
		string(e.Outcome),
		int64(e.Version),
		strings.Join(e.Changed, ","),
		e.Error,
		e.StartedAt.UnixNano(),
		int64(e.Duration),
	)
	if err != nil {
		return fmt.Errorf("record cycle %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.recentStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent cycles: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                   Entry
			outcome, changed    string
			version             int64
			startedAt, duration int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Trigger, &outcome, &version, &changed, &e.Error, &startedAt, &duration); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.Version = uint64(version)
		if changed != "" {
			e.Changed = strings.Split(changed, ",")
		}
		e.StartedAt = time.Unix(0, startedAt)
		e.Duration = time.Duration(duration)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries that started before cutoff.
func (s *SQLite) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.pruneStmt.ExecContext(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune cycles: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the statements and the database. It is safe to call more
// than once.
func (s *SQLite) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = errors.Join(
			s.insertStmt.Close(),
			s.recentStmt.Close(),
			s.pruneStmt.Close(),
			s.db.Close(),
		)
	})
	return err
}
