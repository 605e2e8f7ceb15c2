package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s := newTestStore(t)

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPathSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "baralga.db")

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(KeyFilter, []byte(`{"timespan":"month"}`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	v, ok, err := s2.Get(KeyFilter)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if string(v) != `{"timespan":"month"}` {
		t.Fatalf("value = %s", v)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "baralga.db" {
		t.Fatalf("unexpected path %q", path)
	}
}

// ============================================================
// Key-value access
// ============================================================

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get("nope")
	if err != nil {
		t.Fatal(err)
	}
	if ok || v != nil {
		t.Fatalf("expected missing key, got %q", v)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put(KeyProjects, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(KeyProjects, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatal(err)
	}

	v, ok, _ := s.Get(KeyProjects)
	if !ok || string(v) != `[{"id":"1"}]` {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	s.Put(KeyActivities, []byte(`[]`))

	if err := s.Delete(KeyActivities); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(KeyActivities); ok {
		t.Fatal("key still present after delete")
	}
	if err := s.Delete(KeyActivities); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
}

func TestKeys(t *testing.T) {
	s := newTestStore(t)
	s.Put(KeyFilter, []byte(`{}`))
	s.Put(KeyActivities, []byte(`[1,2]`))

	entries, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(entries))
	}
	if entries[0].Key != KeyActivities || entries[0].Size != 5 {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Key != KeyFilter || entries[1].UpdatedAt.IsZero() {
		t.Fatalf("second entry = %+v", entries[1])
	}
}
