package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite feedback store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFeedback scans a row into a Feedback struct.
func scanFeedback(s scanner) (*Feedback, error) {
	fb := &Feedback{}
	var suggested, clinician string
	var recurrence sql.NullBool

	err := s.Scan(
		&fb.ID, &fb.AssessmentID, &fb.MolecularGroup,
		&suggested, &clinician, &fb.ClinicianAgreed,
		&fb.OutcomeKnown, &recurrence, &fb.Notes,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fb.SuggestedCategory = RiskCategory(suggested)
	fb.ClinicianCategory = RiskCategory(clinician)
	if recurrence.Valid {
		v := recurrence.Bool
		fb.RecurrenceAt5y = &v
	}
	return fb, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id TEXT NOT NULL,
		molecular_group TEXT DEFAULT '',
		suggested_category TEXT NOT NULL,
		clinician_category TEXT NOT NULL,
		clinician_agreed INTEGER NOT NULL DEFAULT 0,
		outcome_known INTEGER NOT NULL DEFAULT 0,
		recurrence_at_5y INTEGER,
		notes TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(assessment_id)
	);

	CREATE INDEX IF NOT EXISTS idx_molecular_group ON feedback(molecular_group);
	CREATE INDEX IF NOT EXISTS idx_created_at ON feedback(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// nullableBool converts an optional bool pointer into a sql.NullBool.
func nullableBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// Save stores or updates clinician feedback for an assessment.
func (s *SQLiteStore) Save(ctx context.Context, feedback *Feedback) error {
	now := time.Now()

	// Check if exists
	var existingID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM feedback WHERE assessment_id = ?",
		feedback.AssessmentID,
	).Scan(&existingID)

	if err == nil {
		// Update existing
		feedback.ID = existingID
		feedback.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			UPDATE feedback SET
				molecular_group = ?,
				suggested_category = ?,
				clinician_category = ?,
				clinician_agreed = ?,
				outcome_known = ?,
				recurrence_at_5y = ?,
				notes = ?,
				updated_at = ?
			WHERE id = ?
		`,
			feedback.MolecularGroup,
			string(feedback.SuggestedCategory),
			string(feedback.ClinicianCategory),
			feedback.ClinicianAgreed,
			feedback.OutcomeKnown,
			nullableBool(feedback.RecurrenceAt5y),
			feedback.Notes,
			now,
			existingID,
		)
		return err
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	// Insert new
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (
			assessment_id, molecular_group,
			suggested_category, clinician_category, clinician_agreed,
			outcome_known, recurrence_at_5y, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		feedback.AssessmentID,
		feedback.MolecularGroup,
		string(feedback.SuggestedCategory),
		string(feedback.ClinicianCategory),
		feedback.ClinicianAgreed,
		feedback.OutcomeKnown,
		nullableBool(feedback.RecurrenceAt5y),
		feedback.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	feedback.ID = id

	return nil
}

// Get retrieves the feedback for an assessment.
func (s *SQLiteStore) Get(ctx context.Context, assessmentID string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, assessment_id, molecular_group,
			suggested_category, clinician_category, clinician_agreed,
			outcome_known, recurrence_at_5y, notes, created_at, updated_at
		FROM feedback
		WHERE assessment_id = ?
		LIMIT 1
	`, assessmentID)

	fb, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return fb, nil
}

// List returns all feedback entries with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assessment_id, molecular_group,
			suggested_category, clinician_category, clinician_agreed,
			outcome_known, recurrence_at_5y, notes, created_at, updated_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}

// Count returns the total number of feedback entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&count)
	return count, err
}

// Delete removes a feedback entry by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM feedback WHERE id = ?", id)
	return err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all feedback to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Feedback:   all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports feedback from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, fb := range export.Feedback {
		// Check if exists
		existing, err := s.Get(ctx, fb.AssessmentID)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing != nil {
			skipped++
			continue
		}

		// Import
		if err := s.Save(ctx, fb); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
