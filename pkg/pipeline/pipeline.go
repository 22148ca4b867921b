// Package pipeline orchestrates a conversational turn: emotion
// detection, sentiment fusion, response synthesis, persistence and
// outbound notifications.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"empathy-server/pkg/emotion"
	"empathy-server/pkg/memory"
	"empathy-server/pkg/metrics"
	"empathy-server/pkg/notify"
	"empathy-server/pkg/sentiment"
	"empathy-server/pkg/synthesis"
)

const (
	defaultHistoryPairs = 3
	defaultWindowDays   = 7
	notifyTimeout       = 10 * time.Second
)

// TurnRequest is one inbound user message.
type TurnRequest struct {
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}

// TurnResult is the full outcome of a processed turn.
type TurnResult struct {
	Response        string  `json:"response"`
	EmotionDetected string  `json:"emotion_detected"`
	PrimaryEmotion  string  `json:"primary_emotion"`
	Method          string  `json:"generation_method"`
	Confidence      float64 `json:"confidence"`
	SessionID       string  `json:"session_id"`
	Stored          bool    `json:"stored"`
}

// Options tunes pipeline behavior.
type Options struct {
	// HistoryPairs is how many past exchanges feed the prompt.
	HistoryPairs int

	// WindowDays is the default analytics window.
	WindowDays int
}

// Pipeline wires the conversation stages together. All collaborators
// are injected; none are optional except the notifier, which may be a
// NopNotifier.
type Pipeline struct {
	logger      *logrus.Logger
	detector    *emotion.Detector
	fuser       *sentiment.Fuser
	synthesizer *synthesis.Synthesizer
	store       memory.Store
	notifier    notify.Notifier
	opts        Options
}

// New creates a pipeline over the given collaborators.
func New(logger *logrus.Logger, detector *emotion.Detector, fuser *sentiment.Fuser, synthesizer *synthesis.Synthesizer, store memory.Store, notifier notify.Notifier, opts Options) *Pipeline {
	if opts.HistoryPairs <= 0 {
		opts.HistoryPairs = defaultHistoryPairs
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Pipeline{
		logger:      logger,
		detector:    detector,
		fuser:       fuser,
		synthesizer: synthesizer,
		store:       store,
		notifier:    notifier,
		opts:        opts,
	}
}

// ProcessTurn runs one message through the full pipeline and always
// returns a reply. Persistence and notification failures are logged
// but never block the response.
func (p *Pipeline) ProcessTurn(ctx context.Context, req TurnRequest) TurnResult {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	detected := p.detector.Detect(ctx, req.Text)
	fused := p.fuser.Fuse(ctx, req.Text, detected.Label)

	history := p.history(ctx, req.UserID)
	outcome := p.synthesizer.Synthesize(ctx, req.Text, fused, history)

	stored := p.store.Append(ctx, memory.Record{
		UserID:       req.UserID,
		Timestamp:    time.Now().UTC(),
		EmotionLabel: fused,
		Confidence:   detected.Confidence,
		MessageText:  req.Text,
		ResponseText: outcome.Response,
		SessionID:    sessionID,
	})
	if !stored {
		p.logger.WithFields(logrus.Fields{
			"user_id": req.UserID,
			"backend": p.store.Backend(),
		}).Warn("Failed to persist turn, continuing without history")
	}

	metrics.RecordTurnProcessed(outcome.Method)

	p.fireEvent(notify.NewEvent(notify.EventEmotionDetected, req.UserID, map[string]interface{}{
		"emotion":           fused,
		"confidence":        detected.Confidence,
		"generation_method": outcome.Method,
		"session_id":        sessionID,
	}))

	p.logger.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"session_id": sessionID,
		"emotion":    fused,
		"method":     outcome.Method,
	}).Info("Turn processed")

	return TurnResult{
		Response:        outcome.Response,
		EmotionDetected: outcome.EmotionDetected,
		PrimaryEmotion:  outcome.PrimaryEmotion,
		Method:          outcome.Method,
		Confidence:      outcome.Confidence,
		SessionID:       sessionID,
		Stored:          stored,
	}
}

// Patterns returns the user's emotion distribution over the given
// window. A non-positive day count falls back to the configured default.
func (p *Pipeline) Patterns(ctx context.Context, userID string, days int) memory.PatternSummary {
	if days <= 0 {
		days = p.opts.WindowDays
	}

	summary := p.store.Patterns(ctx, userID, days)

	p.fireEvent(notify.NewEvent(notify.EventUserAnalytics, userID, map[string]interface{}{
		"total_entries": summary.TotalEntries,
		"time_period":   summary.TimePeriod,
	}))

	return summary
}

// CompleteConversation marks the end of a session and emits a
// conversation_completed event.
func (p *Pipeline) CompleteConversation(ctx context.Context, userID, sessionID string) {
	p.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
	}).Info("Conversation completed")

	p.fireEvent(notify.NewEvent(notify.EventConversationCompleted, userID, map[string]interface{}{
		"session_id": sessionID,
	}))
}

// history fetches the most recent exchanges and orders them oldest
// first, the way the prompt builder expects them.
func (p *Pipeline) history(ctx context.Context, userID string) []synthesis.Exchange {
	records := p.store.Recent(ctx, userID, p.opts.HistoryPairs)
	history := make([]synthesis.Exchange, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		history = append(history, synthesis.Exchange{
			User:      records[i].MessageText,
			Assistant: records[i].ResponseText,
		})
	}
	return history
}

// fireEvent delivers an event on a detached context so a slow sink
// cannot hold up the caller.
func (p *Pipeline) fireEvent(event notify.Event) {
	if !p.notifier.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := p.notifier.Send(ctx, event); err != nil {
			p.logger.WithError(err).WithField("event_type", event.Type).Warn("Notification dropped")
		}
	}()
}
