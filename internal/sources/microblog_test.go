package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmarchand/socialpulse/internal/models"
)

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	got := buildQuery([]string{" crypto ", "", "web3"}, "fr")
	want := "crypto OR web3 -is:retweet lang:fr"
	if got != want {
		t.Fatalf("buildQuery = %q, want %q", got, want)
	}

	if buildQuery([]string{"", "  "}, "fr") != "" {
		t.Fatal("expected empty query for blank terms")
	}
}

func TestMicroblogFetch(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer token-123" {
			t.Errorf("unexpected auth header %q", auth)
		}
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "1", "text": "le web3 arrive", "author_id": "u1", "created_at": "2026-03-01T10:00:00Z"},
				{"id": "2", "text": "sans auteur connu", "author_id": "u9", "created_at": "2026-03-01T09:00:00Z"}
			],
			"includes": {"users": [{"id": "u1", "username": "claire"}]}
		}`))
	}))
	defer server.Close()

	src := NewMicroblogSource(server.URL, "token-123", "fr")
	items, err := src.Fetch(context.Background(), []string{"web3"}, 20)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.Contains(gotQuery, "-is:retweet") || !strings.Contains(gotQuery, "lang:fr") {
		t.Fatalf("query %q missing exclusion or language restriction", gotQuery)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Author != "claire" {
		t.Fatalf("author = %q, want claire", items[0].Author)
	}
	if items[1].Author != models.AnonymousAuthor {
		t.Fatalf("unknown author = %q, want sentinel", items[1].Author)
	}
}

func TestMicroblogFetchMissingToken(t *testing.T) {
	t.Parallel()

	src := NewMicroblogSource("https://example.invalid", "", "fr")
	_, err := src.Fetch(context.Background(), []string{"x"}, 5)
	if !errors.Is(err, models.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestMicroblogFetchRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewMicroblogSource(server.URL, "token", "fr")
	items, err := src.Fetch(context.Background(), []string{"x"}, 5)
	if !errors.Is(err, models.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if items != nil {
		t.Fatal("failed fetch must return no items")
	}
}
