package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotConfigured marks a backend whose credentials are missing
var ErrNotConfigured = errors.New("memory backend not configured")

// DefaultRecentLimit bounds Recent queries when no limit is given
const DefaultRecentLimit = 30

// Record is one persisted conversation turn. Records are append-only:
// the pipeline never updates or deletes them.
type Record struct {
	ID           int64     `json:"id,omitempty"`
	UserID       string    `json:"user_id"`
	Timestamp    time.Time `json:"timestamp"`
	EmotionLabel string    `json:"emotion_label"`
	Confidence   float64   `json:"confidence"`
	MessageText  string    `json:"message_text"`
	ResponseText string    `json:"response_text"`
	SessionID    string    `json:"session_id"`
}

// PatternStat describes one fused label's share of a window
type PatternStat struct {
	Frequency     int     `json:"frequency"`
	Percentage    float64 `json:"percentage"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// PatternSummary is the derived per-user view over a trailing window.
// It is recomputed from the record set on every request.
type PatternSummary struct {
	TotalEntries  int                    `json:"total_entries"`
	AvgConfidence float64                `json:"avg_confidence,omitempty"`
	Patterns      map[string]PatternStat `json:"patterns"`
	TimePeriod    string                 `json:"time_period,omitempty"`
}

// Store is the persistence contract shared by all backends. Append
// reports failure as a boolean so callers treat persistence as
// best-effort; reads degrade to empty results.
type Store interface {
	// Append persists a record, reporting success
	Append(ctx context.Context, record Record) bool

	// Recent returns the user's records, most recent first
	Recent(ctx context.Context, userID string, limit int) []Record

	// Patterns aggregates the user's records over a trailing day window
	Patterns(ctx context.Context, userID string, days int) PatternSummary

	// Backend names the active backend
	Backend() string

	// Close releases the backend connection
	Close() error
}

// emptySummary is the summary for a window with no records
func emptySummary() PatternSummary {
	return PatternSummary{TotalEntries: 0, Patterns: map[string]PatternStat{}}
}

// summarize aggregates already-windowed records into a PatternSummary:
// per-label frequency, share of the window total and mean confidence.
func summarize(records []Record, days int) PatternSummary {
	if len(records) == 0 {
		return emptySummary()
	}

	type bucket struct {
		count           int
		totalConfidence float64
	}

	buckets := make(map[string]*bucket)
	var totalConfidence float64
	for _, record := range records {
		b, ok := buckets[record.EmotionLabel]
		if !ok {
			b = &bucket{}
			buckets[record.EmotionLabel] = b
		}
		b.count++
		b.totalConfidence += record.Confidence
		totalConfidence += record.Confidence
	}

	patterns := make(map[string]PatternStat, len(buckets))
	for label, b := range buckets {
		patterns[label] = PatternStat{
			Frequency:     b.count,
			Percentage:    round1(float64(b.count) / float64(len(records)) * 100),
			AvgConfidence: round2(b.totalConfidence / float64(b.count)),
		}
	}

	return PatternSummary{
		TotalEntries:  len(records),
		AvgConfidence: round2(totalConfidence / float64(len(records))),
		Patterns:      patterns,
		TimePeriod:    fmt.Sprintf("%d days", days),
	}
}

// windowCutoff returns the UTC start of a trailing day window
func windowCutoff(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
