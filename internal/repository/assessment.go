// Package repository provides PostgreSQL persistence for completed
// assessments.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// AssessmentRepository handles assessment audit persistence. It implements
// domain.AssessmentRepository.
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// Save inserts a completed assessment record
func (r *AssessmentRepository) Save(ctx context.Context, record *domain.AssessmentRecord) error {
	panelJSON, err := json.Marshal(record.Panel)
	if err != nil {
		return fmt.Errorf("encoding panel for persistence: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, panel, molecular_group, subtype, confidence,
			recurrence_probability, risk_category, stage_based_risk,
			risk_difference, reclassified, risk_percentile,
			figo_2023_stage, model_version, request_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err = r.db.Exec(ctx, query,
		record.ID,
		panelJSON,
		string(record.MolecularGroup),
		record.Subtype,
		record.Confidence,
		record.RecurrenceProbability,
		string(record.RiskCategory),
		record.StageBasedRisk,
		record.RiskDifference,
		record.Reclassified,
		record.RiskPercentile,
		record.FIGO2023Stage,
		record.ModelVersion,
		record.RequestID,
		record.CreatedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"assessment_id": record.ID,
			"error":         err,
		}).Error("Failed to save assessment")
		return fmt.Errorf("saving assessment: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id":   record.ID,
		"molecular_group": string(record.MolecularGroup),
		"risk_category":   string(record.RiskCategory),
	}).Info("Assessment saved")

	return nil
}

// GetByID retrieves an assessment by its ID
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssessmentRecord, error) {
	query := `
		SELECT id, panel, molecular_group, subtype, confidence,
			   recurrence_probability, risk_category, stage_based_risk,
			   risk_difference, reclassified, risk_percentile,
			   figo_2023_stage, model_version, request_id, created_at
		FROM assessments
		WHERE id = $1`

	record, err := scanAssessment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("assessment not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to get assessment by ID")
		return nil, fmt.Errorf("getting assessment by ID: %w", err)
	}

	return record, nil
}

// ListRecent returns the newest assessments first
func (r *AssessmentRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.AssessmentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, panel, molecular_group, subtype, confidence,
			   recurrence_probability, risk_category, stage_based_risk,
			   risk_difference, reclassified, risk_percentile,
			   figo_2023_stage, model_version, request_id, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var records []*domain.AssessmentRecord
	for rows.Next() {
		record, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessments: %w", err)
	}

	return records, nil
}

// CountReclassified reports how many stored assessments changed risk
// category relative to the stage-based estimate.
func (r *AssessmentRepository) CountReclassified(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE reclassified = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting reclassified assessments: %w", err)
	}
	return count, nil
}

func scanAssessment(row pgx.Row) (*domain.AssessmentRecord, error) {
	var record domain.AssessmentRecord
	var panelJSON []byte
	var group, category string

	err := row.Scan(
		&record.ID,
		&panelJSON,
		&group,
		&record.Subtype,
		&record.Confidence,
		&record.RecurrenceProbability,
		&category,
		&record.StageBasedRisk,
		&record.RiskDifference,
		&record.Reclassified,
		&record.RiskPercentile,
		&record.FIGO2023Stage,
		&record.ModelVersion,
		&record.RequestID,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.MolecularGroup = domain.MolecularGroup(group)
	record.RiskCategory = domain.RiskCategory(category)
	if err := json.Unmarshal(panelJSON, &record.Panel); err != nil {
		return nil, fmt.Errorf("decoding stored panel: %w", err)
	}
	return &record, nil
}
