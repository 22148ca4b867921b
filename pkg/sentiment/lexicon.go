package sentiment

import (
	"context"
	"strings"
)

var (
	positiveWords = []string{
		"happy", "great", "wonderful", "love", "excited", "joyful", "grateful",
		"amazing", "good", "delighted", "fantastic", "thrilled", "hopeful",
	}
	negativeWords = []string{
		"sad", "angry", "terrible", "hate", "awful", "depressed", "frustrated",
		"worried", "scared", "anxious", "miserable", "upset", "bad", "lonely",
	}

	// The nuanced vocabulary picks up informal and hedged phrasing the
	// base lists miss.
	nuancedPositive = []string{
		"nice", "cool", "fine", "better", "glad", "relieved", "proud", "fun",
		"okay", "calm", "enjoyed", "appreciate",
	}
	nuancedNegative = []string{
		"tired", "exhausted", "annoyed", "stressed", "drained", "overwhelmed",
		"hurt", "worse", "sick", "bored", "nervous", "disappointed",
	}
)

// LexiconScorer scores polarity from fixed word lists. It backs both the
// base and the nuanced scoring pass with different vocabularies.
type LexiconScorer struct {
	name     string
	positive []string
	negative []string
}

// NewBaseScorer returns the base polarity scorer
func NewBaseScorer() *LexiconScorer {
	return &LexiconScorer{name: "base", positive: positiveWords, negative: negativeWords}
}

// NewNuancedScorer returns the nuanced polarity scorer. Its vocabulary
// includes the base lists plus informal tone markers.
func NewNuancedScorer() *LexiconScorer {
	return &LexiconScorer{
		name:     "nuanced",
		positive: append(append([]string{}, positiveWords...), nuancedPositive...),
		negative: append(append([]string{}, negativeWords...), nuancedNegative...),
	}
}

// Name returns the scorer name
func (s *LexiconScorer) Name() string {
	return s.name
}

// Score counts polarity keyword hits and converts the imbalance into a
// confidence value. Balanced or empty text scores neutral.
func (s *LexiconScorer) Score(_ context.Context, text string) (Polarity, error) {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?;:'\"()")
		if contains(s.positive, trimmed) {
			positive++
		}
		if contains(s.negative, trimmed) {
			negative++
		}
	}

	total := positive + negative
	if total == 0 || positive == negative {
		return NeutralPolarity(), nil
	}

	label := "positive"
	dominant := positive
	if negative > positive {
		label = "negative"
		dominant = negative
	}

	confidence := 0.5 + 0.4*float64(dominant)/float64(total)
	return Polarity{Label: label, Confidence: confidence}, nil
}

func contains(list []string, word string) bool {
	for _, item := range list {
		if item == word {
			return true
		}
	}
	return false
}
