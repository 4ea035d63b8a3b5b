package sources

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

// ImportCSV parses an uploaded delimited dataset into raw items. The
// header row names the columns; text is the only required one. Header
// matching is case-insensitive and accepts the French names used by
// earlier exports.
func ImportCSV(r io.Reader) ([]models.RawItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	textCol, authorCol, dateCol := -1, -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text", "texte":
			textCol = i
		case "author", "user", "utilisateur":
			authorCol = i
		case "date", "timestamp":
			dateCol = i
		}
	}
	if textCol == -1 {
		return nil, fmt.Errorf("no text column in header %v", rows[0])
	}

	items := make([]models.RawItem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if textCol >= len(row) {
			continue
		}

		item := models.RawItem{
			Text:      row[textCol],
			Author:    models.AnonymousAuthor,
			CreatedAt: time.Now().UTC(),
		}
		if authorCol >= 0 && authorCol < len(row) && strings.TrimSpace(row[authorCol]) != "" {
			item.Author = row[authorCol]
		}
		if dateCol >= 0 && dateCol < len(row) {
			if ts, err := parseImportTime(row[dateCol]); err == nil {
				item.CreatedAt = ts
			}
		}
		items = append(items, item)
	}

	return items, nil
}

func parseImportTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
