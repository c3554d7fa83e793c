package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/supportdesk/internal/domain"
)

// SQLiteSessionStore implements engine.SessionStore backed by SQLite.
// Session state is stored as a JSON blob so the suspended workflow state
// survives restarts.
type SQLiteSessionStore struct {
	db  *DB
	ttl time.Duration
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB, ttl time.Duration) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db, ttl: ttl}
}

// Get returns a session by ID. Expired sessions are deleted and reported
// as ErrNotFound.
func (s *SQLiteSessionStore) Get(id string) (*domain.Session, error) {
	var data string
	var expiresAt string
	err := s.db.sql.QueryRow(
		`SELECT data, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	expiry, err := time.Parse(time.RFC3339, expiresAt)
	if err == nil && time.Now().After(expiry) {
		_, _ = s.db.sql.Exec(`DELETE FROM sessions WHERE id = ?`, id)
		return nil, ErrNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

// Put upserts a session and extends its expiry by the store TTL.
func (s *SQLiteSessionStore) Put(sess *domain.Session) error {
	now := time.Now()
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(s.ttl)

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO sessions (id, created_at, last_activity, expires_at, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   last_activity = excluded.last_activity,
		   expires_at = excluded.expires_at,
		   data = excluded.data`,
		sess.ID,
		sess.CreatedAt.Format(time.RFC3339),
		sess.LastActivity.Format(time.RFC3339),
		sess.ExpiresAt.Format(time.RFC3339),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SQLiteSessionStore) Delete(id string) error {
	res, err := s.db.sql.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all live session IDs, most recently active first.
func (s *SQLiteSessionStore) List() ([]string, error) {
	rows, err := s.db.sql.Query(
		`SELECT id FROM sessions WHERE expires_at > ? ORDER BY last_activity DESC`,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PurgeExpired removes all expired sessions and returns how many were dropped.
func (s *SQLiteSessionStore) PurgeExpired() (int, error) {
	res, err := s.db.sql.Exec(
		`DELETE FROM sessions WHERE expires_at <= ?`,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.db.log.Debug().Int64("count", n).Msg("purged expired sessions")
	}
	return int(n), nil
}
