package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Clean strips markup from raw content, drops characters outside the
// allow-list and trims surrounding whitespace. It is pure and total:
// any input yields a (possibly empty) string, never an error.
func Clean(raw string) string {
	return strings.TrimSpace(filterRunes(stripMarkup(raw)))
}

// stripMarkup extracts the text content of the input, discarding tags.
// Plain text passes through unchanged.
func stripMarkup(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return doc.Text()
}

func filterRunes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowedRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// allowedRune admits ASCII letters, digits, accented Latin-1 letters,
// space, newline and the punctuation set ". , ! ?".
func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '\n':
		return true
	case r == '.' || r == ',' || r == '!' || r == '?':
		return true
	case r >= 'À' && r <= 'ÿ' && r != '×' && r != '÷':
		return true
	}
	return false
}
