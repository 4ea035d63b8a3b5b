package store

import (
	"fmt"
	"sync"

	"github.com/tmarchand/socialpulse/internal/models"
)

// Dataset is the accumulated, deduplicated collection of records.
// Record text is the deduplication key: no two stored records carry
// byte-identical text. When the same text recurs, the already-stored
// copy wins; its timestamp and score are kept and the newcomer is
// dropped. Within a single batch the earliest occurrence wins.
//
// Mutation happens only through Ingest. Readers get copies, never the
// live slice.
type Dataset struct {
	mu         sync.RWMutex
	records    []models.Record
	index      map[string]struct{}
	store      Store
	maxRecords int
}

// NewDataset hydrates from the store when one is configured. maxRecords
// caps retention; zero keeps the dataset unbounded.
func NewDataset(s Store, maxRecords int) (*Dataset, error) {
	d := &Dataset{
		index:      make(map[string]struct{}),
		store:      s,
		maxRecords: maxRecords,
	}

	if s == nil {
		return d, nil
	}

	records, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("hydrate dataset: %w", err)
	}
	for _, rec := range records {
		if _, ok := d.index[rec.Text]; ok {
			continue
		}
		d.index[rec.Text] = struct{}{}
		d.records = append(d.records, rec)
	}
	d.enforceRetention()

	return d, nil
}

// Ingest prepends the batch new-first, drops duplicates by text, applies
// the retention cap and persists the full dataset before returning the
// number of records actually added. A storage failure rolls the in-memory
// state back and is surfaced: the batch must not be claimed as persisted.
func (d *Dataset) Ingest(batch []models.Record) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fresh := make([]models.Record, 0, len(batch))
	for _, rec := range batch {
		if _, ok := d.index[rec.Text]; ok {
			continue
		}
		d.index[rec.Text] = struct{}{}
		fresh = append(fresh, rec)
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	previous := d.records
	d.records = append(fresh, d.records...)
	d.enforceRetention()

	if d.store != nil {
		if err := d.store.Save(d.records); err != nil {
			d.records = previous
			d.rebuildIndex()
			return 0, fmt.Errorf("%w: %v", models.ErrStorageFailure, err)
		}
	}

	return len(fresh), nil
}

// Snapshot returns a copy of the current records, newest-first.
func (d *Dataset) Snapshot() []models.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Record, len(d.records))
	copy(out, d.records)
	return out
}

func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// LabelCounts tallies records per sentiment label.
func (d *Dataset) LabelCounts() map[models.SentimentLabel]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := make(map[models.SentimentLabel]int)
	for _, rec := range d.records {
		counts[rec.Sentiment]++
	}
	return counts
}

// enforceRetention drops records past the cap. Records are newest-first,
// so the tail holds the oldest positions. Caller holds the lock.
func (d *Dataset) enforceRetention() {
	if d.maxRecords <= 0 || len(d.records) <= d.maxRecords {
		return
	}
	for _, rec := range d.records[d.maxRecords:] {
		delete(d.index, rec.Text)
	}
	d.records = d.records[:d.maxRecords]
}

func (d *Dataset) rebuildIndex() {
	d.index = make(map[string]struct{}, len(d.records))
	for _, rec := range d.records {
		d.index[rec.Text] = struct{}{}
	}
}
