package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/tmarchand/socialpulse/internal/models"
)

// MaxInputRunes is the classifier's own input-length limit. Text is
// truncated before classification, never after.
const MaxInputRunes = 512

// DefaultLabelMap translates the OpenAI classifier vocabulary to the
// stable application label set.
var DefaultLabelMap = map[string]models.SentimentLabel{
	"POSITIVE": models.LabelPositive,
	"NEGATIVE": models.LabelNegative,
	"NEUTRAL":  models.LabelNeutral,
}

// Scorer delegates cleaned text to the classifier and maps its output
// onto the application label set with a 0-100 confidence score.
type Scorer struct {
	classifier Classifier
	labelMap   map[string]models.SentimentLabel
	logger     *slog.Logger
}

// NewScorer validates that every label the classifier can emit has a
// mapping. An unmapped vocabulary entry is a configuration error and
// fails fast rather than defaulting silently at runtime.
func NewScorer(classifier Classifier, labelMap map[string]models.SentimentLabel, logger *slog.Logger) (*Scorer, error) {
	if classifier == nil {
		return nil, fmt.Errorf("scorer requires a classifier")
	}
	if labelMap == nil {
		labelMap = DefaultLabelMap
	}
	for _, raw := range classifier.Vocabulary() {
		if _, ok := labelMap[raw]; !ok {
			return nil, fmt.Errorf("classifier label %q has no mapping", raw)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{classifier: classifier, labelMap: labelMap, logger: logger}, nil
}

// Score classifies one text. Empty or whitespace-only input short-circuits
// to the neutral zero-confidence sentinel without invoking the classifier.
// A classifier failure yields the Error label with zero confidence; it is
// never propagated so one bad item cannot abort a batch.
func (s *Scorer) Score(ctx context.Context, text string) (models.SentimentLabel, float64) {
	if strings.TrimSpace(text) == "" {
		return models.LabelNeutral, 0
	}

	raw, probability, err := s.classifier.Classify(ctx, truncateRunes(text, MaxInputRunes))
	if err != nil {
		s.logger.Warn("classifier failed", "error", err)
		return models.LabelError, 0
	}

	label, ok := s.labelMap[raw]
	if !ok {
		s.logger.Warn("unrecognized classifier label", "label", raw)
		label = models.LabelNeutral
	}

	return label, clampScore(math.Round(probability*100*100) / 100)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
