// Package feedback provides clinician feedback storage for risk
// assessments. It stores agreements and corrections to the suggested risk
// category for model monitoring and retraining.
package feedback

import (
	"context"
	"io"
	"time"
)

// RiskCategory mirrors the assessment risk categories for feedback
// storage.
type RiskCategory string

const (
	CategoryLow          RiskCategory = "LOW"
	CategoryIntermediate RiskCategory = "INTERMEDIATE"
	CategoryHigh         RiskCategory = "HIGH"
)

// Feedback represents a clinician's feedback on one risk assessment.
type Feedback struct {
	ID                int64        `json:"id,omitempty"`
	AssessmentID      string       `json:"assessment_id"`                // Assessment being reviewed
	MolecularGroup    string       `json:"molecular_group,omitempty"`    // Group assigned at assessment time
	SuggestedCategory RiskCategory `json:"suggested_category"`           // System's risk category
	ClinicianCategory RiskCategory `json:"clinician_category"`           // Clinician's decision
	ClinicianAgreed   bool         `json:"clinician_agreed"`             // Did clinician agree?
	OutcomeKnown      bool         `json:"outcome_known,omitempty"`      // Follow-up outcome available
	RecurrenceAt5y    *bool        `json:"recurrence_at_5y,omitempty"`   // Observed outcome, if known
	Notes             string       `json:"notes,omitempty"`              // Clinician notes
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates clinician feedback for an assessment.
	// Feedback for the same assessment is updated in place.
	Save(ctx context.Context, feedback *Feedback) error

	// Get retrieves the feedback for an assessment.
	Get(ctx context.Context, assessmentID string) (*Feedback, error)

	// List returns all feedback entries with pagination.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count returns the total number of feedback entries.
	Count(ctx context.Context) (int64, error)

	// Delete removes a feedback entry by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all feedback to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports feedback from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}
