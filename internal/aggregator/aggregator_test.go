package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tmarchand/socialpulse/internal/config"
	"github.com/tmarchand/socialpulse/internal/models"
	"github.com/tmarchand/socialpulse/internal/sentiment"
	"github.com/tmarchand/socialpulse/internal/store"
	"github.com/tmarchand/socialpulse/internal/trend"
)

type fakeSource struct {
	name  string
	items []models.RawItem
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context, terms []string, limit int) ([]models.RawItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeSource) Name() string              { return f.name }
func (f *fakeSource) Platform() models.Platform { return models.PlatformMicroblog }

// failFor returns a classifier error for texts containing the marker.
type fakeClassifier struct {
	failFor string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	if f.failFor != "" && strings.Contains(text, f.failFor) {
		return "", 0, fmt.Errorf("classifier down")
	}
	return "POSITIVE", 0.9, nil
}

func (f *fakeClassifier) Vocabulary() []string {
	return []string{"POSITIVE", "NEGATIVE", "NEUTRAL"}
}

func rawItem(text string) models.RawItem {
	return models.RawItem{Text: text, Author: "témoin", CreatedAt: time.Now()}
}

func newTestAggregator(t *testing.T, classifier sentiment.Classifier, srcs ...models.Source) *Aggregator {
	t.Helper()

	dataset, err := store.NewDataset(nil, 0)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	scorer, err := sentiment.NewScorer(classifier, nil, nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	a := New(Deps{
		Config:     &config.Config{PollInterval: time.Hour, FetchLimit: 20},
		Dataset:    dataset,
		Scorer:     scorer,
		Summarizer: trend.NewSummarizer(nil),
		Sources:    srcs,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.runCtx = ctx
	go a.ingestLoop(ctx)
	t.Cleanup(cancel)

	return a
}

func TestCollectOnceDeduplicatesNormalizedText(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "micro", items: []models.RawItem{
		rawItem("A"),
		rawItem("B"),
		rawItem("<b>A</b>"),
	}}
	a := newTestAggregator(t, &fakeClassifier{}, src)

	added, err := a.CollectOnce(context.Background(), []string{"x"}, 10)
	if err != nil {
		t.Fatalf("CollectOnce: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2 (markup variant dedupes to same text)", added)
	}
	if a.DatasetSize() != 2 {
		t.Fatalf("dataset size = %d, want 2", a.DatasetSize())
	}
}

func TestCollectOnceScorerFailureKeepsBatchAlive(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "micro", items: []models.RawItem{
		rawItem("tout va bien"),
		rawItem("xyz"),
	}}
	a := newTestAggregator(t, &fakeClassifier{failFor: "xyz"}, src)

	added, err := a.CollectOnce(context.Background(), []string{"x"}, 10)
	if err != nil {
		t.Fatalf("CollectOnce: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}

	counts := a.LabelCounts()
	if counts[models.LabelError] != 1 {
		t.Fatalf("expected one Error record, got %v", counts)
	}
	if counts[models.LabelPositive] != 1 {
		t.Fatalf("expected the healthy item scored, got %v", counts)
	}
}

func TestCollectOnceSourceFailureDegrades(t *testing.T) {
	t.Parallel()

	healthy := &fakeSource{name: "ok", items: []models.RawItem{rawItem("ça marche")}}
	broken := &fakeSource{name: "down", err: fmt.Errorf("%w: 429", models.ErrSourceUnavailable)}
	a := newTestAggregator(t, &fakeClassifier{}, healthy, broken)

	added, err := a.CollectOnce(context.Background(), []string{"x"}, 10)
	if err != nil {
		t.Fatalf("CollectOnce: %v", err)
	}
	if added != 1 {
		t.Fatalf("added = %d, want 1 from the healthy source", added)
	}
}

func TestCollectOnceAllSourcesDownYieldsNothing(t *testing.T) {
	t.Parallel()

	broken := &fakeSource{name: "down", err: errors.New("network sad")}
	a := newTestAggregator(t, &fakeClassifier{}, broken)

	added, err := a.CollectOnce(context.Background(), []string{"x"}, 10)
	if err != nil {
		t.Fatalf("CollectOnce must not propagate source errors, got %v", err)
	}
	if added != 0 {
		t.Fatalf("added = %d, want 0", added)
	}
}

type captureNotifier struct {
	posts []string
}

func (c *captureNotifier) PublishPost(ctx context.Context, text string) error {
	c.posts = append(c.posts, text)
	return nil
}

func TestGeneratePostPublishes(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "micro", items: []models.RawItem{rawItem("la tendance du jour")}}
	a := newTestAggregator(t, &fakeClassifier{}, src)

	notifier := &captureNotifier{}
	a.SetNotifier(notifier)

	if _, err := a.CollectOnce(context.Background(), []string{"x"}, 10); err != nil {
		t.Fatalf("CollectOnce: %v", err)
	}

	post := a.GeneratePost(context.Background())
	if post == "" || post == trend.EmptyMessage {
		t.Fatalf("unexpected post %q", post)
	}
	if len(notifier.posts) != 1 || notifier.posts[0] != post {
		t.Fatalf("notifier did not receive the post: %v", notifier.posts)
	}
}

func TestGeneratePostEmptyDataset(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t, &fakeClassifier{})
	if got := a.GeneratePost(context.Background()); got != trend.EmptyMessage {
		t.Fatalf("GeneratePost on empty dataset = %q", got)
	}
}

func TestAutonomyStartStopIdempotent(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t, &fakeClassifier{})

	if !a.StartAutonomy() {
		t.Fatal("first start should report started")
	}
	if a.StartAutonomy() {
		t.Fatal("second start should be a no-op")
	}
	if !a.isAutonomous() {
		t.Fatal("expected autonomous state")
	}

	if !a.StopAutonomy() {
		t.Fatal("first stop should report stopped")
	}
	if a.StopAutonomy() {
		t.Fatal("second stop should be a no-op")
	}
}
