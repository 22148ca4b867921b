package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"empathy-server/pkg/metrics"
)

// SheetsConfig holds the remote spreadsheet backend settings
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	Worksheet       string
}

// SheetsStore persists records as rows of a Google Sheets worksheet.
// Row layout: timestamp, user_id, emotion_label, confidence,
// message_text, response_text, session_id.
type SheetsStore struct {
	logger        *logrus.Logger
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	appendRange   string
}

// NewSheetsStore creates a spreadsheet-backed store. Returns
// ErrNotConfigured when the spreadsheet or credentials are missing so
// the caller can fall back to the embedded backend.
func NewSheetsStore(ctx context.Context, logger *logrus.Logger, config SheetsConfig) (*SheetsStore, error) {
	if config.SpreadsheetID == "" || config.CredentialsFile == "" {
		return nil, ErrNotConfigured
	}
	if config.Worksheet == "" {
		config.Worksheet = "emotions"
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(config.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	logger.WithField("spreadsheet", config.SpreadsheetID).Info("Google Sheets memory store initialized")
	return &SheetsStore{
		logger:        logger,
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		readRange:     fmt.Sprintf("%s!A:G", config.Worksheet),
		appendRange:   fmt.Sprintf("%s!A:G", config.Worksheet),
	}, nil
}

// Backend names the backend
func (s *SheetsStore) Backend() string {
	return "sheets"
}

// Append adds a record as a new worksheet row
func (s *SheetsStore) Append(ctx context.Context, record Record) bool {
	timestamp := record.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	row := []interface{}{
		timestamp.UTC().Format(time.RFC3339),
		record.UserID,
		record.EmotionLabel,
		record.Confidence,
		record.MessageText,
		record.ResponseText,
		record.SessionID,
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.appendRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.WithError(err).WithField("user_id", record.UserID).Error("Failed to append emotion record to sheet")
		metrics.RecordStoreAppend(s.Backend(), "error")
		return false
	}

	metrics.RecordStoreAppend(s.Backend(), "success")
	return true
}

// Recent returns the user's records, most recent first
func (s *SheetsStore) Recent(ctx context.Context, userID string, limit int) []Record {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	records := s.fetch(ctx, userID)
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Patterns aggregates the user's records over a trailing day window
func (s *SheetsStore) Patterns(ctx context.Context, userID string, days int) PatternSummary {
	cutoff := windowCutoff(days)

	var windowed []Record
	for _, record := range s.fetch(ctx, userID) {
		if !record.Timestamp.Before(cutoff) {
			windowed = append(windowed, record)
		}
	}
	return summarize(windowed, days)
}

// fetch reads the full worksheet and returns the user's records sorted
// most recent first. The spreadsheet pays full-scan cost on every read.
func (s *SheetsStore) fetch(ctx context.Context, userID string) []Record {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, s.readRange).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to read emotion records from sheet")
		return nil
	}

	var records []Record
	for _, row := range resp.Values {
		record, ok := parseRow(row)
		if !ok || record.UserID != userID {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records
}

// parseRow converts one worksheet row into a Record. Rows without a
// parsable timestamp (including the header row) are skipped.
func parseRow(row []interface{}) (Record, bool) {
	if len(row) < 3 {
		return Record{}, false
	}

	timestamp, err := time.Parse(time.RFC3339, cellString(row, 0))
	if err != nil {
		return Record{}, false
	}

	confidence := 0.5
	if raw := cellString(row, 3); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			confidence = parsed
		}
	}

	return Record{
		Timestamp:    timestamp,
		UserID:       cellString(row, 1),
		EmotionLabel: cellString(row, 2),
		Confidence:   confidence,
		MessageText:  cellString(row, 4),
		ResponseText: cellString(row, 5),
		SessionID:    cellString(row, 6),
	}, true
}

func cellString(row []interface{}, index int) string {
	if index >= len(row) {
		return ""
	}
	return fmt.Sprint(row[index])
}

// Close is a no-op for the sheets backend; the HTTP client owns no
// long-lived connection state worth tearing down.
func (s *SheetsStore) Close() error {
	return nil
}
