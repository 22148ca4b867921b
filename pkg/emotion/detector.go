package emotion

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// DetectorConfig bounds the text a detector will classify
type DetectorConfig struct {
	// MinLength is the minimum trimmed length worth classifying
	MinLength int
	// MaxLength is the truncation limit applied before classification
	MaxLength int
}

// DefaultDetectorConfig returns the standard detection bounds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinLength: 5,
		MaxLength: 512,
	}
}

// Detector wraps a Classifier with input guards and failure absorption.
// Detect never fails: degenerate input and classifier errors both produce
// the default neutral result.
type Detector struct {
	logger     *logrus.Logger
	classifier Classifier
	config     DetectorConfig
}

// NewDetector creates a detector around the given classifier
func NewDetector(logger *logrus.Logger, classifier Classifier, config DetectorConfig) *Detector {
	if config.MinLength <= 0 {
		config.MinLength = DefaultDetectorConfig().MinLength
	}
	if config.MaxLength <= 0 {
		config.MaxLength = DefaultDetectorConfig().MaxLength
	}

	return &Detector{
		logger:     logger,
		classifier: classifier,
		config:     config,
	}
}

// Detect classifies the emotional content of text. Short input
// short-circuits to the neutral default without touching the classifier;
// long input is truncated first. Classification is a best-effort signal,
// so errors are logged and swallowed.
func (d *Detector) Detect(ctx context.Context, text string) Result {
	if len(strings.TrimSpace(text)) < d.config.MinLength {
		return DefaultResult()
	}

	text = truncate(text, d.config.MaxLength)

	result, err := d.classifier.Classify(ctx, text)
	if err != nil {
		d.logger.WithError(err).WithField("classifier", d.classifier.Name()).Error("Emotion detection failed")
		return DefaultResult()
	}
	if result.Label == "" {
		return DefaultResult()
	}

	return result
}

// truncate cuts text to at most max runes without splitting a rune
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
