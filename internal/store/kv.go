package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Keys under which the client state is persisted.
const (
	KeyProjects           = "projects"
	KeyActivities         = "activities"
	KeyFilteredActivities = "filteredActivities"
	KeyFilter             = "filter"
)

// Get returns the value stored under key. ok is false if there is none.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Entry describes one stored key.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

func (s *Store) Keys() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT key, length(value), updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.Key, &e.Size, &updated); err != nil {
			return nil, err
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
