package normalize

import "testing"

func TestCleanStripsMarkup(t *testing.T) {
	t.Parallel()

	in := `<p>Le marché monte!</p><span class="tag">#crypto</span>`
	got := Clean(in)
	want := "Le marché monte!crypto"
	if got != want {
		t.Fatalf("Clean(%q) = %q, want %q", in, got, want)
	}
}

func TestCleanDropsDisallowedRunes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"hello @world #go", "hello world go"},
		{"prix: 42€ — ok?", "prix 42  ok?"},
		{"émission café über", "émission café über"},
		{"a;b:c(d)e", "abcde"},
		{"line1\nline2", "line1\nline2"},
	}

	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTrimsWhitespace(t *testing.T) {
	t.Parallel()

	if got := Clean("   du texte   "); got != "du texte" {
		t.Fatalf("expected trimmed text, got %q", got)
	}
	if got := Clean("   \n  "); got != "" {
		t.Fatalf("expected empty string for whitespace input, got %q", got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"plain text",
		"<b>bold &amp; loud</b>",
		"mixed: <a href='x'>lien</a> 100% sûr!",
		"déjà vu, non?",
	}

	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
