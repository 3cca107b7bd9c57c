package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "bot.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertUser_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpsertUser(ctx, 42, "Ada", "ada"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	u, err := s.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.FirstName != "Ada" || u.Username != "ada" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if err := s.UpsertUser(ctx, 42, "Ada L.", "ada_l"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	u, err = s.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetUser after update: %v", err)
	}
	if u.FirstName != "Ada L." || u.Username != "ada_l" {
		t.Fatalf("upsert did not refresh fields: %+v", u)
	}
	if u.FirstSeen.IsZero() || u.LastSeen.Before(u.FirstSeen) {
		t.Fatalf("timestamps off: first=%v last=%v", u.FirstSeen, u.LastSeen)
	}
}

func TestRecordDownload_AndStats(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_ = s.UpsertUser(ctx, 1, "A", "a")
	_ = s.UpsertUser(ctx, 2, "B", "b")

	if err := s.RecordDownload(ctx, 1, 1000); err != nil {
		t.Fatalf("RecordDownload: %v", err)
	}
	if err := s.RecordDownload(ctx, 1, 2000); err != nil {
		t.Fatalf("RecordDownload: %v", err)
	}
	if err := s.RecordDownload(ctx, 2, 500); err != nil {
		t.Fatalf("RecordDownload: %v", err)
	}

	u, _ := s.GetUser(ctx, 1)
	if u.DownloadsTotal != 2 || u.BytesTotal != 3000 {
		t.Fatalf("user 1 counters: %+v", u)
	}

	st, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Users != 2 || st.DownloadsTotal != 3 || st.BytesTotal != 3500 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestRecordDownload_UnknownUser(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordDownload(context.Background(), 999, 10); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestGetUser_NoRows(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetUser(context.Background(), 123)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}
