package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
)

const csvTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"platform", "timestamp", "author", "text", "sentiment_label", "sentiment_score"}

// CSVStore persists the dataset as a flat comma-delimited file. Every
// save rewrites the whole file; there is no append-only log.
type CSVStore struct {
	path string
}

var _ Store = (*CSVStore)(nil)

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Save(records []models.Record) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			string(rec.Platform),
			rec.Timestamp.UTC().Format(csvTimeLayout),
			rec.Author,
			rec.Text,
			string(rec.Sentiment),
			strconv.FormatFloat(rec.Score, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// Load reads the persisted dataset back. A missing file means a fresh
// start: no records, no error.
func (s *CSVStore) Load() ([]models.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			continue
		}

		ts, err := time.Parse(csvTimeLayout, row[1])
		if err != nil {
			ts, _ = time.Parse(time.RFC3339, row[1])
		}
		score, _ := strconv.ParseFloat(row[5], 64)

		records = append(records, models.Record{
			Platform:  models.Platform(row[0]),
			Timestamp: ts,
			Author:    row[2],
			Text:      row[3],
			Sentiment: models.SentimentLabel(row[4]),
			Score:     score,
		})
	}

	return records, nil
}
