package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_envelopes (
	slot       TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	payload    TEXT NOT NULL,
	saved_at   INTEGER NOT NULL
);`

// SQLiteStore keeps one row per slot.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for tests.
func OpenSQLite(ctx context.Context, path string, ttl time.Duration) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize session schema: %w", err)
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// Load returns the envelope stored under slot.
func (s *SQLiteStore) Load(ctx context.Context, slot string) (interview.Session, error) {
	if err := ValidateSlot(slot); err != nil {
		return interview.Session{}, err
	}

	var (
		payload string
		savedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM session_envelopes WHERE slot = ?`, slot,
	).Scan(&payload, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interview.Session{}, ErrSessionNotFound
		}
		return interview.Session{}, fmt.Errorf("load slot %s: %w", slot, err)
	}
	if s.ttl > 0 && time.Since(time.Unix(0, savedAt)) > s.ttl {
		return interview.Session{}, ErrSessionNotFound
	}
	return decode(slot, []byte(payload))
}

// Save upserts the envelope under slot.
func (s *SQLiteStore) Save(ctx context.Context, slot string, sess interview.Session) error {
	rec, err := encode(slot, sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_envelopes (slot, session_id, payload, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			session_id = excluded.session_id,
			payload    = excluded.payload,
			saved_at   = excluded.saved_at`,
		slot, sess.SessionID, string(rec.payload), rec.savedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

// Clear deletes the row for slot.
func (s *SQLiteStore) Clear(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_envelopes WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("clear slot %s: %w", slot, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
