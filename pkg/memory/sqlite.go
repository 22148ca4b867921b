package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"empathy-server/pkg/metrics"
)

// SQLiteStore is the embedded persistence backend. The connection is
// opened once at construction and reused for every operation; each
// append is a single autonomous insert.
type SQLiteStore struct {
	logger *logrus.Logger
	db     *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(logger *logrus.Logger, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrNotConfigured
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	store := &SQLiteStore{logger: logger, db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logger.WithField("path", path).Info("SQLite memory store initialized")
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS emotions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			emotion_label TEXT NOT NULL,
			confidence REAL,
			message_text TEXT,
			response_text TEXT,
			session_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emotions_user_ts ON emotions(user_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			name TEXT,
			created_at TEXT,
			total_conversations INTEGER DEFAULT 0,
			preferred_name TEXT,
			timezone TEXT,
			last_active TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_context (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			message_pair TEXT,
			timestamp TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Backend names the backend
func (s *SQLiteStore) Backend() string {
	return "sqlite"
}

// Append inserts a record. Timestamps are stored as RFC3339 UTC so
// lexical order matches time order.
func (s *SQLiteStore) Append(ctx context.Context, record Record) bool {
	timestamp := record.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	query := `INSERT INTO emotions
		(user_id, timestamp, emotion_label, confidence, message_text, response_text, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.UserID,
		timestamp.UTC().Format(time.RFC3339),
		record.EmotionLabel,
		record.Confidence,
		record.MessageText,
		record.ResponseText,
		record.SessionID,
	)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", record.UserID).Error("Failed to append emotion record")
		metrics.RecordStoreAppend(s.Backend(), "error")
		return false
	}

	metrics.RecordStoreAppend(s.Backend(), "success")
	return true
}

// Recent returns the user's records, most recent first
func (s *SQLiteStore) Recent(ctx context.Context, userID string, limit int) []Record {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := `SELECT id, user_id, timestamp, emotion_label, confidence, message_text, response_text, session_id
		FROM emotions
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to query recent emotions")
		return nil
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// Patterns aggregates the user's records over a trailing day window
func (s *SQLiteStore) Patterns(ctx context.Context, userID string, days int) PatternSummary {
	cutoff := windowCutoff(days).Format(time.RFC3339)

	query := `SELECT id, user_id, timestamp, emotion_label, confidence, message_text, response_text, session_id
		FROM emotions
		WHERE user_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, query, userID, cutoff)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to query emotion patterns")
		return emptySummary()
	}
	defer rows.Close()

	return summarize(s.scanRecords(rows), days)
}

func (s *SQLiteStore) scanRecords(rows *sql.Rows) []Record {
	var records []Record
	for rows.Next() {
		var record Record
		var timestamp string
		var confidence sql.NullFloat64
		var message, response, session sql.NullString

		if err := rows.Scan(&record.ID, &record.UserID, &timestamp, &record.EmotionLabel,
			&confidence, &message, &response, &session); err != nil {
			s.logger.WithError(err).Error("Failed to scan emotion record")
			continue
		}

		if parsed, err := time.Parse(time.RFC3339, timestamp); err == nil {
			record.Timestamp = parsed
		}
		if confidence.Valid {
			record.Confidence = confidence.Float64
		} else {
			record.Confidence = 0.5
		}
		record.MessageText = message.String
		record.ResponseText = response.String
		record.SessionID = session.String

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Error("Row iteration failed while reading emotion records")
	}
	return records
}

// Close releases the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
