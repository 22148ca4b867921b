package emotion

import (
	"context"
	"sort"
	"strings"
)

// lexicon maps each emotion label to the keywords that signal it. The
// label set mirrors the common six-emotion classification vocabulary.
var lexicon = map[string][]string{
	"sadness":  {"sad", "depressed", "down", "upset", "lonely", "miserable", "heartbroken", "grief", "crying", "hopeless"},
	"anger":    {"angry", "furious", "mad", "frustrated", "annoyed", "irritated", "outraged", "hate", "resent"},
	"fear":     {"afraid", "scared", "anxious", "worried", "nervous", "terrified", "panic", "stressed", "dread"},
	"joy":      {"happy", "excited", "joyful", "great", "wonderful", "delighted", "thrilled", "grateful", "amazing", "love"},
	"surprise": {"surprised", "shocked", "astonished", "unexpected", "stunned", "unbelievable"},
	"disgust":  {"disgusted", "gross", "revolting", "sickening", "awful", "repulsed"},
}

// LexiconClassifier scores text against a fixed keyword lexicon. It is
// deterministic, needs no network access and serves as the local stand-in
// when no inference endpoint is configured.
type LexiconClassifier struct{}

// NewLexiconClassifier creates a lexicon-backed classifier
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{}
}

// Name returns the classifier name
func (c *LexiconClassifier) Name() string {
	return "lexicon"
}

// Classify counts keyword hits per emotion and converts the counts into a
// normalized score distribution. Text with no hits scores neutral.
func (c *LexiconClassifier) Classify(_ context.Context, text string) (Result, error) {
	words := strings.Fields(strings.ToLower(text))

	hits := make(map[string]int)
	total := 0
	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?;:'\"()")
		for label, keywords := range lexicon {
			for _, keyword := range keywords {
				if trimmed == keyword {
					hits[label]++
					total++
				}
			}
		}
	}

	if total == 0 {
		return DefaultResult(), nil
	}

	scores := make([]Score, 0, len(hits)+1)
	for label, count := range hits {
		// Dampen toward 0.9 so a single keyword never claims certainty
		value := 0.5 + 0.4*float64(count)/float64(total)
		scores = append(scores, Score{Label: label, Value: round3(value)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Value == scores[j].Value {
			return scores[i].Label < scores[j].Label
		}
		return scores[i].Value > scores[j].Value
	})

	top := scores[0]
	return Result{
		Label:      top.Label,
		Confidence: top.Value,
		Scores:     scores,
	}, nil
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
