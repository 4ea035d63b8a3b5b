package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmarchand/socialpulse/internal/config"
	"github.com/tmarchand/socialpulse/internal/models"
	"github.com/tmarchand/socialpulse/internal/normalize"
	"github.com/tmarchand/socialpulse/internal/sentiment"
	"github.com/tmarchand/socialpulse/internal/store"
	"github.com/tmarchand/socialpulse/internal/trend"
)

// Notifier publishes generated posts and batch summaries to an outbound
// channel. Nil notifier disables publication.
type Notifier interface {
	PublishPost(ctx context.Context, text string) error
}

// Aggregator owns the dataset and runs the collect -> normalize ->
// score -> ingest pipeline. All dataset mutation funnels through one
// ingest loop; collectors and the autonomy worker only send batches.
type Aggregator struct {
	config     *config.Config
	dataset    *store.Dataset
	scorer     *sentiment.Scorer
	summarizer *trend.Summarizer
	notifier   Notifier
	sources    []models.Source
	logger     *slog.Logger
	server     *http.Server

	batches chan batch
	runCtx  context.Context

	mu          sync.RWMutex
	autonomous  bool
	stopWorker  chan struct{}
	lastBatchID string
	lastBatchAt time.Time
}

type batch struct {
	id      string
	records []models.Record
	reply   chan ingestResult
}

type ingestResult struct {
	added int
	err   error
}

type Deps struct {
	Config     *config.Config
	Dataset    *store.Dataset
	Scorer     *sentiment.Scorer
	Summarizer *trend.Summarizer
	Notifier   Notifier
	Sources    []models.Source
	Logger     *slog.Logger
}

func New(deps Deps) *Aggregator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		config:     deps.Config,
		dataset:    deps.Dataset,
		scorer:     deps.Scorer,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		sources:    deps.Sources,
		logger:     logger,
		batches:    make(chan batch),
	}
}

// SetNotifier wires the outbound channel after construction; the bot
// and the aggregator reference each other.
func (a *Aggregator) SetNotifier(n Notifier) {
	a.notifier = n
}

// Run starts the ingest loop and the HTTP surface, then blocks until
// ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) error {
	a.runCtx = ctx
	go a.ingestLoop(ctx)
	a.startHTTPServer()

	<-ctx.Done()
	a.StopAutonomy()
	return a.shutdown()
}

// ingestLoop is the single writer of the dataset.
func (a *Aggregator) ingestLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-a.batches:
			added, err := a.dataset.Ingest(b.records)
			if err != nil {
				a.logger.Error("batch ingest failed", "batch", b.id, "error", err)
			} else {
				a.logger.Info("batch ingested", "batch", b.id, "received", len(b.records), "added", added)
				a.mu.Lock()
				a.lastBatchID = b.id
				a.lastBatchAt = time.Now()
				a.mu.Unlock()
			}
			if b.reply != nil {
				b.reply <- ingestResult{added: added, err: err}
			}
		}
	}
}

// CollectOnce runs one full pipeline cycle for the given terms and
// returns the number of records actually added. Source failures degrade
// to zero items from that source; a storage failure is surfaced.
func (a *Aggregator) CollectOnce(ctx context.Context, terms []string, limit int) (int, error) {
	records := a.collectRecords(ctx, terms, limit)
	if len(records) == 0 {
		return 0, nil
	}

	b := batch{
		id:      uuid.NewString(),
		records: records,
		reply:   make(chan ingestResult, 1),
	}

	select {
	case a.batches <- b:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-b.reply:
		return res.added, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// collectRecords fans out over the sources, then normalizes and scores
// every item. One unreachable source never aborts the cycle.
func (a *Aggregator) collectRecords(ctx context.Context, terms []string, limit int) []models.Record {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		items []models.Record
	)

	for _, source := range a.sources {
		wg.Add(1)
		go func(src models.Source) {
			defer wg.Done()

			raw, err := src.Fetch(ctx, terms, limit)
			if err != nil {
				level := slog.LevelWarn
				if errors.Is(err, models.ErrConfigMissing) {
					level = slog.LevelInfo
				}
				a.logger.Log(ctx, level, "source fetch failed", "source", src.Name(), "error", err)
				return
			}

			scored := a.scoreItems(ctx, src.Platform(), raw)

			mu.Lock()
			items = append(items, scored...)
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	return items
}

// scoreItems normalizes then scores raw items into pipeline records.
func (a *Aggregator) scoreItems(ctx context.Context, platform models.Platform, raw []models.RawItem) []models.Record {
	records := make([]models.Record, 0, len(raw))
	for _, item := range raw {
		text := normalize.Clean(item.Text)
		label, score := a.scorer.Score(ctx, text)

		author := item.Author
		if author == "" {
			author = models.AnonymousAuthor
		}

		records = append(records, models.Record{
			Platform:  platform,
			Timestamp: item.CreatedAt,
			Author:    author,
			Text:      text,
			Sentiment: label,
			Score:     score,
		})
	}
	return records
}

// IngestItems pushes externally produced raw items (file imports,
// streaming callbacks) through the scoring and ingest path.
func (a *Aggregator) IngestItems(ctx context.Context, platform models.Platform, raw []models.RawItem) (int, error) {
	records := a.scoreItems(ctx, platform, raw)
	if len(records) == 0 {
		return 0, nil
	}

	b := batch{
		id:      uuid.NewString(),
		records: records,
		reply:   make(chan ingestResult, 1),
	}

	select {
	case a.batches <- b:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-b.reply:
		return res.added, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// StartAutonomy launches the background worker: one immediate cycle,
// then one per poll interval. Batches travel over the same channel as
// interactive collections, so the worker never touches the dataset.
// The worker is tied to the run context, not to whichever request
// triggered it.
func (a *Aggregator) StartAutonomy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.autonomous {
		return false
	}
	a.autonomous = true
	a.stopWorker = make(chan struct{})

	ctx := a.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go a.autonomyWorker(ctx, a.stopWorker)
	a.logger.Info("autonomy started", "interval", a.config.PollInterval)
	return true
}

// StopAutonomy halts future cycles. The cycle in flight finishes; its
// batch is still ingested.
func (a *Aggregator) StopAutonomy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.autonomous {
		return false
	}
	a.autonomous = false
	close(a.stopWorker)
	a.stopWorker = nil
	a.logger.Info("autonomy stopped")
	return true
}

func (a *Aggregator) autonomyWorker(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	a.runCycle(ctx, stop)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			a.runCycle(ctx, stop)
		}
	}
}

func (a *Aggregator) runCycle(ctx context.Context, stop chan struct{}) {
	records := a.collectRecords(ctx, a.config.Keywords, a.config.FetchLimit)
	if len(records) == 0 {
		a.logger.Info("autonomy cycle found nothing new")
		return
	}

	b := batch{id: uuid.NewString(), records: records}
	select {
	case a.batches <- b:
	case <-ctx.Done():
	case <-stop:
	}
}

// GeneratePost renders a trend summary over the current dataset and
// publishes it when a notifier is configured.
func (a *Aggregator) GeneratePost(ctx context.Context) string {
	post := a.summarizer.Summarize(a.dataset.Snapshot())

	if a.notifier != nil {
		if err := a.notifier.PublishPost(ctx, post); err != nil {
			a.logger.Warn("publish post failed", "error", err)
		}
	}
	return post
}

func (a *Aggregator) DatasetSize() int {
	return a.dataset.Len()
}

func (a *Aggregator) LabelCounts() map[models.SentimentLabel]int {
	return a.dataset.LabelCounts()
}

func (a *Aggregator) isAutonomous() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.autonomous
}

func (a *Aggregator) shutdown() error {
	a.logger.Info("shutting down aggregator")

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}
	return nil
}
