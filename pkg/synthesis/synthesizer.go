package synthesis

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"empathy-server/pkg/generation"
	"empathy-server/pkg/metrics"
)

// Response length bounds applied during validation
const (
	minResponseLength = 10
	maxResponseLength = 200
)

// Generation methods reported in an Outcome
const (
	// MethodModel marks a reply produced by the generation backend
	MethodModel = "llm"

	// MethodTemplate marks a canned reply substituted because the
	// backend's output failed validation
	MethodTemplate = "template"

	// MethodFallbackTemplate marks a canned reply produced on the
	// degraded path, after the backend was unavailable or exhausted its
	// retry budget, or after an internal synthesis failure
	MethodFallbackTemplate = "fallback_template"
)

// Exchange is one past (user, assistant) message pair
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"ai"`
}

// Outcome is a synthesized reply with its provenance and self-assessed
// confidence.
type Outcome struct {
	Response        string  `json:"response"`
	EmotionDetected string  `json:"emotion_detected"`
	PrimaryEmotion  string  `json:"primary_emotion"`
	Method          string  `json:"generation_method"`
	Confidence      float64 `json:"confidence"`
}

// Synthesizer builds emotion-specific prompts, invokes the generation
// client and validates the result. Synthesize never fails: every internal
// failure degrades to a canned template reply.
type Synthesizer struct {
	logger *logrus.Logger
	client *generation.Client
	rng    *rand.Rand
}

// NewSynthesizer creates a synthesizer over the given generation client
func NewSynthesizer(logger *logrus.Logger, client *generation.Client) *Synthesizer {
	return &Synthesizer{
		logger: logger,
		client: client,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Synthesize produces an empathetic reply for the user's message in the
// context of the fused emotion label and recent history.
func (s *Synthesizer) Synthesize(ctx context.Context, userText, fusedLabel string, history []Exchange) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Response synthesis failed")
			metrics.RecordFallbackResponse("synthesis")
			outcome = s.degraded(fusedLabel)
		}
	}()

	primary := PrimaryEmotion(fusedLabel)
	prompt := buildPrompt(userText, fusedLabel, primary, history)

	reply := s.client.Generate(ctx, prompt)

	if reply.Source == generation.SourceFallback {
		outcome = s.degraded(fusedLabel)
		if s.valid(reply.Text) {
			outcome.Response = clampLength(reply.Text)
		}
		return outcome
	}

	response := reply.Text
	method := MethodModel

	if !s.valid(response) {
		s.logger.WithFields(logrus.Fields{
			"emotion": primary,
			"length":  len(response),
		}).Warn("Generated response rejected by validation")
		response = s.template(primary)
		method = MethodTemplate
	}

	response = clampLength(response)

	return Outcome{
		Response:        response,
		EmotionDetected: fusedLabel,
		PrimaryEmotion:  primary,
		Method:          method,
		Confidence:      confidence(response, primary),
	}
}

// degraded is the outcome for a turn the backend could not serve: a
// canned template with the confidence pinned at 0.5.
func (s *Synthesizer) degraded(fusedLabel string) Outcome {
	primary := PrimaryEmotion(fusedLabel)
	return Outcome{
		Response:        s.template(primary),
		EmotionDetected: fusedLabel,
		PrimaryEmotion:  primary,
		Method:          MethodFallbackTemplate,
		Confidence:      0.5,
	}
}

// valid rejects replies that are too short to be useful or that contain
// a denylisted disclaimer phrase.
func (s *Synthesizer) valid(response string) bool {
	if len(strings.TrimSpace(response)) < minResponseLength {
		return false
	}

	lowered := strings.ToLower(response)
	for _, phrase := range disclaimerPhrases {
		if strings.Contains(lowered, phrase) {
			return false
		}
	}
	return true
}

// template picks a random canned reply for the primary emotion
func (s *Synthesizer) template(primaryEmotion string) string {
	templates, ok := responseTemplates[primaryEmotion]
	if !ok {
		templates = responseTemplates["neutral"]
	}
	return templates[s.rng.Intn(len(templates))]
}

// clampLength truncates overlong replies to their first two sentences
func clampLength(response string) string {
	if len(response) <= maxResponseLength {
		return strings.TrimSpace(response)
	}

	sentences := strings.Split(response, ". ")
	if len(sentences) <= 2 {
		return strings.TrimSpace(response)
	}
	return strings.TrimSpace(strings.Join(sentences[:2], ". ") + ".")
}

// confidence scores the reply: 0.7 base, +0.1 for substantive length,
// +0.1 when it engages with the emotion's vocabulary, capped at 1.0.
func confidence(response, primaryEmotion string) float64 {
	score := 0.7

	if len(response) > 50 {
		score += 0.1
	}

	lowered := strings.ToLower(response)
	for _, keyword := range confidenceKeywords[primaryEmotion] {
		if strings.Contains(lowered, keyword) {
			score += 0.1
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// PrimaryEmotion derives the template bucket from a fused label: the
// token after the last separator, folded through the emotion mapping.
// Anything unrecognized normalizes to neutral.
func PrimaryEmotion(fusedLabel string) string {
	if fusedLabel == "" {
		return "neutral"
	}

	parts := strings.Split(strings.ToLower(fusedLabel), "-")
	emotion := parts[len(parts)-1]

	if mapped, ok := emotionMapping[emotion]; ok {
		return mapped
	}
	return "neutral"
}
