package emotion

import (
	"context"
	"errors"
)

// Error definitions
var (
	ErrNotConfigured        = errors.New("emotion inference endpoint not configured")
	ErrClassificationFailed = errors.New("emotion classification failed")
	ErrEmptyResponse        = errors.New("emotion endpoint returned no scores")
)

// Score is a single labeled confidence value
type Score struct {
	Label string  `json:"label"`
	Value float64 `json:"score"`
}

// Result holds the top emotion for a piece of text together with the
// full score distribution, sorted descending by score.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Scores     []Score `json:"all_scores"`
}

// Classifier maps raw text to an emotion score distribution
type Classifier interface {
	// Name returns the classifier name
	Name() string

	// Classify analyzes the text and returns the scored emotion labels
	Classify(ctx context.Context, text string) (Result, error)
}

// DefaultResult is the neutral result used whenever classification is
// skipped or fails.
func DefaultResult() Result {
	return Result{
		Label:      "neutral",
		Confidence: 0.5,
		Scores:     []Score{{Label: "neutral", Value: 0.5}},
	}
}
