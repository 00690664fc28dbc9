package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/aurosearch/pkg/filters"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	sel := filters.Selection{Author: "Sri Aurobindo", Group: "CWSA", BookTitle: "Savitri", SearchType: filters.SearchExact}
	if err := s.Record(ctx, "supramental", sel, 42, base); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, "  psychic being ", filters.Selection{}, 7, base.Add(time.Minute)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, "   ", filters.Selection{}, 1, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("record blank: %v", err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Query != "psychic being" {
		t.Fatalf("expected newest first with trimmed query, got %q", entries[0].Query)
	}
	if entries[0].Selection.SearchType != filters.SearchAll {
		t.Fatalf("expected default search type, got %q", entries[0].Selection.SearchType)
	}
	if entries[1].Selection != sel || entries[1].Results != 42 {
		t.Fatalf("unexpected entry %+v", entries[1])
	}
	if !entries[1].SearchedAt.Equal(base) {
		t.Fatalf("expected %v, got %v", base, entries[1].SearchedAt)
	}
}

func TestRecentLimitAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, "q", filters.Selection{}, i, time.Now().Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 || entries[0].Results != 4 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err = s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d", len(entries))
	}
}

func TestRecentTimestampPrecision(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 1, 0, 0, time.UTC)

	// Whole seconds, trailing zeros in the fraction and full nanoseconds.
	stamps := []time.Time{
		base,
		base.Add(700 * time.Millisecond),
		base.Add(730567800 * time.Nanosecond),
		base.Add(2*time.Second + 1),
	}
	for i, at := range stamps {
		if err := s.Record(ctx, "light", filters.Selection{}, i, at); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != len(stamps) {
		t.Fatalf("expected %d entries, got %d", len(stamps), len(entries))
	}
	for i, e := range entries {
		want := stamps[len(stamps)-1-i]
		if e.Results != len(stamps)-1-i || !e.SearchedAt.Equal(want) {
			t.Fatalf("entry %d: expected %v (results %d), got %v (results %d)",
				i, want, len(stamps)-1-i, e.SearchedAt, e.Results)
		}
	}
}
