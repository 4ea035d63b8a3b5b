package store

import "github.com/tmarchand/socialpulse/internal/models"

// Store persists the dataset across process restarts. Save is called
// synchronously after every successful ingestion batch; Load hydrates
// the dataset at startup and returns no records (and no error) when
// nothing has been persisted yet.
type Store interface {
	Save(records []models.Record) error
	Load() ([]models.Record, error)
}
