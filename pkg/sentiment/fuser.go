package sentiment

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// highConfidence is the threshold above which a single scorer's label
// wins outright during fusion.
const highConfidence = 0.8

// minScoreLength is the minimum trimmed text length worth scoring
const minScoreLength = 3

// Fuser runs two independent polarity scorers over text and combines the
// winning polarity with a fine-grained emotion label into a single fused
// label string such as "negative-sadness".
type Fuser struct {
	logger  *logrus.Logger
	base    Scorer
	nuanced Scorer
}

// NewFuser creates a fuser over the given base and nuanced scorers
func NewFuser(logger *logrus.Logger, base, nuanced Scorer) *Fuser {
	return &Fuser{
		logger:  logger,
		base:    base,
		nuanced: nuanced,
	}
}

// Fuse scores the text and returns "<polarity>-<emotion>", or the bare
// polarity when no emotion label is supplied. The result is never empty:
// every failure path degrades to a neutral variant.
func (f *Fuser) Fuse(ctx context.Context, text, emotionLabel string) string {
	polarity := f.combined(ctx, text)
	return Join(polarity, emotionLabel)
}

// combined runs both scorers and applies the priority rule:
// a scorer above the high-confidence threshold wins (base first),
// agreement wins, otherwise the higher confidence wins with ties going
// to the base scorer.
func (f *Fuser) combined(ctx context.Context, text string) string {
	if len(strings.TrimSpace(text)) < minScoreLength {
		return "neutral"
	}

	base := f.score(ctx, f.base, text)
	nuanced := f.score(ctx, f.nuanced, text)

	switch {
	case base.Confidence > highConfidence:
		return base.Label
	case nuanced.Confidence > highConfidence:
		return nuanced.Label
	case base.Label == nuanced.Label:
		return base.Label
	case base.Confidence >= nuanced.Confidence:
		return base.Label
	default:
		return nuanced.Label
	}
}

// score runs a single scorer, degrading its failures to neutral
func (f *Fuser) score(ctx context.Context, scorer Scorer, text string) Polarity {
	polarity, err := scorer.Score(ctx, text)
	if err != nil {
		f.logger.WithError(err).WithField("scorer", scorer.Name()).Error("Sentiment scoring failed")
		return NeutralPolarity()
	}
	if polarity.Label == "" {
		return NeutralPolarity()
	}
	polarity.Label = NormalizeLabel(polarity.Label)
	return polarity
}

// Join concatenates a polarity with an emotion label into the fused
// label format. Either side may be empty; the polarity side falls back
// to neutral so the result is always non-empty.
func Join(polarity, emotionLabel string) string {
	if polarity == "" {
		polarity = "neutral"
	}
	if emotionLabel == "" {
		return polarity
	}
	return polarity + "-" + emotionLabel
}
