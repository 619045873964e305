// Package history records sender runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/keysender/keysender/internal/sender"
	"github.com/keysender/keysender/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	policy     TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	stopped_at INTEGER,
	reason     TEXT
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// Run is one recorded run. StoppedAt is zero while the run is still active
// or when the recording process exited before the run ended.
type Run struct {
	ID        uuid.UUID
	Kind      sender.Kind
	Policy    string
	StartedAt time.Time
	StoppedAt time.Time
	Reason    sender.Reason
}

// Active reports whether no stop was recorded for the run.
func (r Run) Active() bool { return r.StoppedAt.IsZero() }

// Duration returns how long the run lasted, or zero for active runs.
func (r Run) Duration() time.Duration {
	if r.Active() {
		return 0
	}
	return r.StoppedAt.Sub(r.StartedAt)
}

// Store persists run notifications. It implements sender.Observer; write
// failures are logged since observers cannot return errors.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

var _ sender.Observer = (*Store)(nil)

// Open opens or creates the history database at path.
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot create history schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// OnStarted inserts a row for the new run.
func (s *Store) OnStarted(n sender.Notification) {
	var kind sender.Kind
	var desc string
	if n.Policy != nil {
		kind, desc = n.Policy.Kind(), n.Policy.String()
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO runs (id, kind, policy, started_at) VALUES (?, ?, ?, ?)`,
		n.RunID.String(), string(kind), desc, n.At.UnixNano(),
	)
	if err != nil {
		s.log.Error("history: failed to record start of run %s: %v", n.RunID, err)
	}
}

// OnStopped completes the row of the run.
func (s *Store) OnStopped(n sender.Notification) {
	res, err := s.db.Exec(
		`UPDATE runs SET stopped_at = ?, reason = ? WHERE id = ? AND stopped_at IS NULL`,
		n.At.UnixNano(), string(n.Reason), n.RunID.String(),
	)
	if err != nil {
		s.log.Error("history: failed to record stop of run %s: %v", n.RunID, err)
		return
	}
	if c, _ := res.RowsAffected(); c == 0 {
		s.log.Warning("history: stop of unknown run %s", n.RunID)
	}
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, policy, started_at, stopped_at, reason
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			id, kind, policy string
			started          int64
			stopped          sql.NullInt64
			reason           sql.NullString
		)
		if err := rows.Scan(&id, &kind, &policy, &started, &stopped, &reason); err != nil {
			return nil, fmt.Errorf("error: failed to scan history row: %w", err)
		}
		rid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("error: bad run id %q in history: %w", id, err)
		}
		r := Run{
			ID:        rid,
			Kind:      sender.Kind(kind),
			Policy:    policy,
			StartedAt: time.Unix(0, started),
			Reason:    sender.Reason(reason.String),
		}
		if stopped.Valid {
			r.StoppedAt = time.Unix(0, stopped.Int64)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate history rows: %w", err)
	}
	return runs, nil
}

// Prune deletes finished runs that stopped before cutoff and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE stopped_at IS NOT NULL AND stopped_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("error: failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
