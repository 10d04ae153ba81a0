package eventstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLStore persists the event log in a SQLite database via the CGO-free
// modernc.org/sqlite driver, for deployments that already run a SQL
// migration/backup story around their storage layer and would rather not
// add a second embedded-KV engine just for event replay.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (or creates) a SQLite database at path and ensures
// its schema exists.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open sqlite at %q: %w", path, err)
	}
	s := &SQLStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			session    TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			frame      BLOB NOT NULL,
			PRIMARY KEY (session, seq)
		)
	`)
	if err != nil {
		return fmt.Errorf("eventstore: create events table: %w", err)
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, session string, frame []byte) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("eventstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE session = ?`, session).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("eventstore: query max seq: %w", err)
	}
	nextSeq := uint64(1)
	if maxSeq.Valid {
		nextSeq = uint64(maxSeq.Int64) + 1
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (session, seq, frame) VALUES (?, ?, ?)`,
		session, nextSeq, frame); err != nil {
		return 0, fmt.Errorf("eventstore: insert event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("eventstore: commit: %w", err)
	}
	return nextSeq, nil
}

func (s *SQLStore) Replay(ctx context.Context, session string, afterID uint64, fn func(Event) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, frame FROM events WHERE session = ? AND seq > ? ORDER BY seq ASC`,
		session, afterID)
	if err != nil {
		return fmt.Errorf("eventstore: query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev Event
		ev.Session = session
		if err := rows.Scan(&ev.ID, &ev.Frame); err != nil {
			return fmt.Errorf("eventstore: scan event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLStore) Purge(ctx context.Context, session string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE session = ?`, session)
	if err != nil {
		return fmt.Errorf("eventstore: purge: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
