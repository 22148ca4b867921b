package sentiment

import (
	"context"
	"strings"
)

// Polarity is a coarse sentiment label with a confidence value
type Polarity struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Scorer reduces raw text to a single polarity
type Scorer interface {
	// Name returns the scorer name
	Name() string

	// Score analyzes the text and returns its polarity
	Score(ctx context.Context, text string) (Polarity, error)
}

// NeutralPolarity is the safe default used when a scorer fails
func NeutralPolarity() Polarity {
	return Polarity{Label: "neutral", Confidence: 0.5}
}

// labelMapping normalizes the three-way index labels some sentiment
// models emit into standard polarity labels.
var labelMapping = map[string]string{
	"LABEL_0": "negative",
	"LABEL_1": "neutral",
	"LABEL_2": "positive",
}

// NormalizeLabel maps a model label to negative/neutral/positive,
// lowercasing anything it does not recognize.
func NormalizeLabel(label string) string {
	if mapped, ok := labelMapping[label]; ok {
		return mapped
	}
	return strings.ToLower(label)
}
