package models

import "errors"

// Pipeline failure taxonomy. Adapters and stores wrap these with
// fmt.Errorf("...: %w", ...) so callers can branch with errors.Is.
var (
	// ErrSourceUnavailable covers auth, network and rate-limit failures
	// from a source adapter. The pipeline continues with zero new items.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrScoringFailure marks a classifier failure. The affected record
	// is stored with the Error label instead of aborting the batch.
	ErrScoringFailure = errors.New("scoring failure")

	// ErrStorageFailure is fatal to the current ingestion batch: the
	// batch is not reported as persisted.
	ErrStorageFailure = errors.New("storage failure")

	// ErrConfigMissing halts an operation before any network call.
	ErrConfigMissing = errors.New("required configuration missing")
)
