package trend

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/tmarchand/socialpulse/internal/models"
)

// EmptyMessage is returned when there is nothing to summarize.
const EmptyMessage = "Rien de nouveau sous le soleil pour le moment."

var templates = []string{
	"Tout le monde parle de %q en ce moment, et l'ambiance est plutôt %s.",
	"Le mot du jour est %q ! Le sentiment général reste %s.",
	"Impossible de passer à côté de %q aujourd'hui. Tendance %s.",
}

var labelAdjectives = map[models.SentimentLabel]string{
	models.LabelPositive: "positive",
	models.LabelNegative: "négative",
	models.LabelNeutral:  "neutre",
	models.LabelError:    "indéterminée",
}

// Summarizer produces a one-line generated post from a dataset snapshot.
// It is stateless; the rand source is injectable so tests can pin choices.
type Summarizer struct {
	rng *rand.Rand
}

func NewSummarizer(rng *rand.Rand) *Summarizer {
	return &Summarizer{rng: rng}
}

// Summarize picks one of the five most frequent tokens at random, finds
// the modal sentiment label and slots both into a random template.
func (s *Summarizer) Summarize(records []models.Record) string {
	if len(records) == 0 {
		return EmptyMessage
	}

	word := s.pickTrendWord(records)
	if word == "" {
		return EmptyMessage
	}
	mood := labelAdjectives[modalLabel(records)]

	template := templates[s.intn(len(templates))]
	return fmt.Sprintf(template, word, mood)
}

func (s *Summarizer) pickTrendWord(records []models.Record) string {
	freq := make(map[string]int)
	for _, rec := range records {
		for _, token := range strings.Fields(strings.ToLower(rec.Text)) {
			freq[token]++
		}
	}
	if len(freq) == 0 {
		return ""
	}

	tokens := make([]string, 0, len(freq))
	for token := range freq {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if freq[tokens[i]] != freq[tokens[j]] {
			return freq[tokens[i]] > freq[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	top := tokens
	if len(top) > 5 {
		top = top[:5]
	}
	return top[s.intn(len(top))]
}

// modalLabel returns the most common label; on a tie the label seen
// first in the snapshot wins.
func modalLabel(records []models.Record) models.SentimentLabel {
	counts := make(map[models.SentimentLabel]int)
	order := make([]models.SentimentLabel, 0, 4)
	for _, rec := range records {
		if counts[rec.Sentiment] == 0 {
			order = append(order, rec.Sentiment)
		}
		counts[rec.Sentiment]++
	}

	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return best
}

func (s *Summarizer) intn(n int) int {
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}
