package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(newTestLogger(), filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		ok := store.Append(ctx, Record{
			UserID:       "user-1",
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			EmotionLabel: "negative-sadness",
			Confidence:   0.8,
			MessageText:  "message",
			ResponseText: "response",
			SessionID:    "session-1",
		})
		require.True(t, ok)
	}

	records := store.Recent(ctx, "user-1", 3)
	require.Len(t, records, 3)

	// Most recent first
	assert.True(t, records[0].Timestamp.After(records[1].Timestamp))
	assert.True(t, records[1].Timestamp.After(records[2].Timestamp))
	assert.Equal(t, "negative-sadness", records[0].EmotionLabel)
	assert.Equal(t, "session-1", records[0].SessionID)
}

func TestSQLiteStore_RecentIsolatesUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Append(ctx, Record{UserID: "user-1", EmotionLabel: "positive-joy", Confidence: 0.9}))
	require.True(t, store.Append(ctx, Record{UserID: "user-2", EmotionLabel: "negative-anger", Confidence: 0.9}))

	records := store.Recent(ctx, "user-1", 10)
	require.Len(t, records, 1)
	assert.Equal(t, "positive-joy", records[0].EmotionLabel)
}

func TestSQLiteStore_RecentIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.True(t, store.Append(ctx, Record{
			UserID:       "user-1",
			Timestamp:    time.Now().UTC().Add(time.Duration(-i) * time.Minute),
			EmotionLabel: "neutral",
			Confidence:   0.5,
		}))
	}

	first := store.Recent(ctx, "user-1", 5)
	second := store.Recent(ctx, "user-1", 5)
	assert.Equal(t, first, second)
}

func TestSQLiteStore_DuplicatesTolerated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	same := Record{
		UserID:       "user-1",
		Timestamp:    time.Now().UTC(),
		EmotionLabel: "neutral",
		Confidence:   0.5,
		MessageText:  "identical",
	}
	require.True(t, store.Append(ctx, same))
	require.True(t, store.Append(ctx, same))

	assert.Len(t, store.Recent(ctx, "user-1", 10), 2)
}

func TestSQLiteStore_PatternsEmptyWindow(t *testing.T) {
	store := newTestStore(t)

	summary := store.Patterns(context.Background(), "user-1", 7)

	assert.Equal(t, 0, summary.TotalEntries)
	assert.Empty(t, summary.Patterns)
}

func TestSQLiteStore_PatternsSingleLabelFullShare(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.True(t, store.Append(ctx, Record{
			UserID:       "user-1",
			Timestamp:    time.Now().UTC().Add(time.Duration(-i) * time.Hour),
			EmotionLabel: "negative-fear",
			Confidence:   0.75,
		}))
	}

	summary := store.Patterns(ctx, "user-1", 7)

	require.Equal(t, 4, summary.TotalEntries)
	stat := summary.Patterns["negative-fear"]
	assert.Equal(t, 4, stat.Frequency)
	assert.Equal(t, 100.0, stat.Percentage)
	assert.Equal(t, 0.75, stat.AvgConfidence)
}

func TestSQLiteStore_PatternsExcludesOldRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Append(ctx, Record{
		UserID:       "user-1",
		Timestamp:    time.Now().UTC().Add(-30 * 24 * time.Hour),
		EmotionLabel: "negative-sadness",
		Confidence:   0.9,
	}))
	require.True(t, store.Append(ctx, Record{
		UserID:       "user-1",
		Timestamp:    time.Now().UTC().Add(-time.Hour),
		EmotionLabel: "positive-joy",
		Confidence:   0.9,
	}))

	summary := store.Patterns(ctx, "user-1", 7)

	require.Equal(t, 1, summary.TotalEntries)
	assert.Contains(t, summary.Patterns, "positive-joy")
	assert.NotContains(t, summary.Patterns, "negative-sadness")
}

func TestSheetsRowRoundTrip(t *testing.T) {
	ts := time.Now().UTC().Truncate(time.Second)
	row := []interface{}{
		ts.Format(time.RFC3339), "user-1", "negative-sadness", "0.82", "hello", "there", "session-9",
	}

	record, ok := parseRow(row)
	require.True(t, ok)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, "negative-sadness", record.EmotionLabel)
	assert.Equal(t, 0.82, record.Confidence)
	assert.True(t, ts.Equal(record.Timestamp))
}

func TestParseRow_SkipsHeader(t *testing.T) {
	_, ok := parseRow([]interface{}{"timestamp", "user_id", "emotion_label"})
	assert.False(t, ok)
}
