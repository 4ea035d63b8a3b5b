package models

import (
	"context"
	"time"
)

// Platform identifies which adapter produced a record.
type Platform string

const (
	PlatformMicroblog Platform = "microblog"
	PlatformForum     Platform = "forum"
	PlatformFediverse Platform = "fediverse"
	PlatformImport    Platform = "dataset-import"
)

// SentimentLabel is the stable application-level label set. Classifier
// vocabularies are mapped onto it before a record is stored.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "Positive"
	LabelNegative SentimentLabel = "Negative"
	LabelNeutral  SentimentLabel = "Neutral"
	LabelError    SentimentLabel = "Error"
)

// AnonymousAuthor is stored when a source provides no author.
const AnonymousAuthor = "Anonymous"

// Record is the unit flowing through the pipeline. Text is always
// normalized before scoring and is the deduplication key within a dataset.
type Record struct {
	Platform  Platform       `json:"platform"`
	Timestamp time.Time      `json:"timestamp"`
	Author    string         `json:"author"`
	Text      string         `json:"text"`
	Sentiment SentimentLabel `json:"sentiment"`
	Score     float64        `json:"score"`
}

// RawItem is what a source adapter hands back before normalization.
type RawItem struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Source pulls recent items matching the query terms, bounded by limit.
// Terms are combined with logical OR. The returned count may be lower
// than limit; a failed call returns an error wrapping ErrSourceUnavailable
// and no items.
type Source interface {
	Fetch(ctx context.Context, terms []string, limit int) ([]RawItem, error)
	Name() string
	Platform() Platform
}

// StreamSource is the push variant: the adapter holds a long-lived
// connection and invokes fn once per item until the returned stop
// function is called or ctx is cancelled. Stopping disconnects now,
// it does not drain.
type StreamSource interface {
	Stream(ctx context.Context, terms []string, fn func(RawItem)) (stop func() error, err error)
}
