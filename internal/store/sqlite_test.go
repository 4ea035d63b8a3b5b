package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

func newTestSQLiteStore(t *testing.T, readLimit int) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "posts.db"), readLimit)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t, 0)

	want := []models.Record{
		{
			Platform:  models.PlatformForum,
			Timestamp: time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC),
			Author:    "bob",
			Text:      "les taux remontent encore",
			Sentiment: models.LabelNegative,
			Score:     87.5,
		},
	}

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d records, want 1", len(got))
	}
	rec := got[0]
	if rec.Platform != want[0].Platform || rec.Author != want[0].Author ||
		rec.Text != want[0].Text || rec.Sentiment != want[0].Sentiment || rec.Score != want[0].Score {
		t.Fatalf("record mismatch: got %+v want %+v", rec, want[0])
	}
	if !rec.Timestamp.Equal(want[0].Timestamp) {
		t.Fatalf("timestamp: got %v want %v", rec.Timestamp, want[0].Timestamp)
	}
}

func TestSQLiteSaveIgnoresExistingText(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t, 0)

	original := testRecord("texte unique", 60)
	if err := s.Save([]models.Record{original}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Re-saving the same text must not duplicate or overwrite the row.
	altered := original
	altered.Score = 5
	if err := s.Save([]models.Record{altered}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Score != 60 {
		t.Fatalf("existing row was overwritten: score %v", got[0].Score)
	}
}

func TestSQLiteLoadAppliesReadLimit(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t, 3)

	base := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	var records []models.Record
	for i := 0; i < 6; i++ {
		rec := testRecord(fmt.Sprintf("billet %d", i), float64(i))
		rec.Timestamp = base.Add(time.Duration(i) * time.Hour)
		records = append(records, rec)
	}
	if err := s.Save(records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d rows, want 3", len(got))
	}
	if got[0].Text != "billet 5" {
		t.Fatalf("expected newest row first, got %q", got[0].Text)
	}
}
