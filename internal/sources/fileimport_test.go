package sources

import (
	"strings"
	"testing"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

func TestImportCSVFrenchHeaders(t *testing.T) {
	t.Parallel()

	csv := "Date,Utilisateur,Texte,Sentiment,Score\n" +
		"2026-02-01 10:30:00,jeanne,la tech avance vite,POSITIVE,91.20\n" +
		"2026-02-01 09:00:00,,texte sans auteur,NEGATIVE,55.00\n"

	items, err := ImportCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].Author != "jeanne" || items[0].Text != "la tech avance vite" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	want := time.Date(2026, time.February, 1, 10, 30, 0, 0, time.UTC)
	if !items[0].CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", items[0].CreatedAt, want)
	}
	if items[1].Author != models.AnonymousAuthor {
		t.Fatalf("blank author = %q, want sentinel", items[1].Author)
	}
}

func TestImportCSVRequiresTextColumn(t *testing.T) {
	t.Parallel()

	if _, err := ImportCSV(strings.NewReader("a,b\n1,2\n")); err == nil {
		t.Fatal("expected error for header without text column")
	}
	if _, err := ImportCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}
