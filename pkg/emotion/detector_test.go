package emotion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type failingClassifier struct{}

func (f *failingClassifier) Name() string { return "failing" }

func (f *failingClassifier) Classify(context.Context, string) (Result, error) {
	return Result{}, errors.New("model unavailable")
}

type recordingClassifier struct {
	lastInput string
	result    Result
}

func (r *recordingClassifier) Name() string { return "recording" }

func (r *recordingClassifier) Classify(_ context.Context, text string) (Result, error) {
	r.lastInput = text
	return r.result, nil
}

func TestDetect_ShortInputShortCircuits(t *testing.T) {
	classifier := &recordingClassifier{}
	detector := NewDetector(newTestLogger(), classifier, DefaultDetectorConfig())

	for _, text := range []string{"", "hi", "ok", "    ", "  no  "} {
		result := detector.Detect(context.Background(), text)
		assert.Equal(t, "neutral", result.Label, "input %q", text)
		assert.Equal(t, 0.5, result.Confidence, "input %q", text)
	}

	assert.Empty(t, classifier.lastInput, "classifier must not run on degenerate input")
}

func TestDetect_TruncatesLongInput(t *testing.T) {
	classifier := &recordingClassifier{result: Result{Label: "joy", Confidence: 0.9}}
	detector := NewDetector(newTestLogger(), classifier, DefaultDetectorConfig())

	long := strings.Repeat("happy ", 200)
	detector.Detect(context.Background(), long)

	require.NotEmpty(t, classifier.lastInput)
	assert.LessOrEqual(t, len([]rune(classifier.lastInput)), 512)
}

func TestDetect_ClassifierFailureYieldsNeutral(t *testing.T) {
	detector := NewDetector(newTestLogger(), &failingClassifier{}, DefaultDetectorConfig())

	result := detector.Detect(context.Background(), "today has been difficult")

	assert.Equal(t, "neutral", result.Label)
	assert.Equal(t, 0.5, result.Confidence)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, Score{Label: "neutral", Value: 0.5}, result.Scores[0])
}

func TestDetect_PassesThroughClassifierResult(t *testing.T) {
	classifier := &recordingClassifier{result: Result{
		Label:      "sadness",
		Confidence: 0.82,
		Scores:     []Score{{Label: "sadness", Value: 0.82}, {Label: "fear", Value: 0.1}},
	}}
	detector := NewDetector(newTestLogger(), classifier, DefaultDetectorConfig())

	result := detector.Detect(context.Background(), "I feel so alone tonight")

	assert.Equal(t, "sadness", result.Label)
	assert.Equal(t, 0.82, result.Confidence)
}

func TestLexiconClassifier_JoyDominant(t *testing.T) {
	classifier := NewLexiconClassifier()

	result, err := classifier.Classify(context.Background(), "I am so happy today!")
	require.NoError(t, err)

	assert.Equal(t, "joy", result.Label)
	assert.Greater(t, result.Confidence, 0.5)
	require.NotEmpty(t, result.Scores)
	assert.Equal(t, result.Label, result.Scores[0].Label, "scores must be sorted descending")
}

func TestLexiconClassifier_NoKeywordsScoresNeutral(t *testing.T) {
	classifier := NewLexiconClassifier()

	result, err := classifier.Classify(context.Background(), "the meeting starts at noon")
	require.NoError(t, err)

	assert.Equal(t, "neutral", result.Label)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestLexiconClassifier_StripsPunctuation(t *testing.T) {
	classifier := NewLexiconClassifier()

	result, err := classifier.Classify(context.Background(), "I'm really scared, honestly.")
	require.NoError(t, err)

	assert.Equal(t, "fear", result.Label)
}
