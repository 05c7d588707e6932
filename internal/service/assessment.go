package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/model"
)

// AssessmentService orchestrates the full assessment pipeline: panel
// validation, molecular classification, stage-based estimation, model
// prediction, risk reconciliation, FIGO 2023 staging and treatment
// recommendation.
type AssessmentService struct {
	logger      *logrus.Logger
	classifier  *MolecularClassifier
	stageRisk   *StageRiskEstimator
	reconciler  *RiskReconciler
	stager      *FIGO2023Stager
	recommender *RecommendationEngine
	predictor   domain.Predictor
	explainer   domain.Explainer
	repository  domain.AssessmentRepository
}

// AssessmentServiceOptions carries the optional collaborators. A nil
// Explainer disables the explanation endpoint; a nil Repository disables
// audit persistence.
type AssessmentServiceOptions struct {
	Explainer  domain.Explainer
	Repository domain.AssessmentRepository
}

// NewAssessmentService wires the pipeline around a predictor.
func NewAssessmentService(predictor domain.Predictor, logger *logrus.Logger, opts *AssessmentServiceOptions) *AssessmentService {
	if logger == nil {
		logger = logrus.New()
	}
	s := &AssessmentService{
		logger:      logger,
		classifier:  NewMolecularClassifier(logger),
		stageRisk:   NewStageRiskEstimator(),
		reconciler:  NewRiskReconciler(logger),
		stager:      NewFIGO2023Stager(logger),
		recommender: NewRecommendationEngine(),
		predictor:   predictor,
	}
	if opts != nil {
		s.explainer = opts.Explainer
		s.repository = opts.Repository
	}
	return s
}

// AssessmentResult is the complete outcome of one assessment.
type AssessmentResult struct {
	ID             uuid.UUID                       `json:"id"`
	Classification domain.MolecularClassification  `json:"classification"`
	Risk           domain.RiskAssessment           `json:"risk_assessment"`
	Staging        domain.FIGO2023Staging          `json:"figo_2023_staging"`
	Recommendation *domain.TreatmentRecommendation `json:"recommendation"`
}

// BatchAssessmentItem is the per-panel outcome of a batch request. Either
// Result or Error is set.
type BatchAssessmentItem struct {
	Index  int               `json:"index"`
	Result *AssessmentResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Assess runs the full pipeline for one panel. The panel is normalized in
// place; empty marker fields become "Not Tested".
func (s *AssessmentService) Assess(ctx context.Context, panel *domain.BiomarkerPanel, requestID string) (*AssessmentResult, error) {
	started := time.Now()

	panel.Normalize()
	if err := panel.Validate(); err != nil {
		return nil, domain.InvalidPanelError(err).WithRequestID(requestID)
	}

	classification := s.classifier.Classify(panel)
	stageBasedRisk := s.stageRisk.Estimate(panel)

	features, err := model.Encode(panel, classification.Group)
	if err != nil {
		return nil, domain.NewAssessmentError(domain.ErrCodeInternalError,
			"feature encoding failed").WithCause(err).WithRequestID(requestID)
	}

	probability, err := s.predictor.Predict(ctx, features)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.ModelUnavailableError(err.Error()).WithRequestID(requestID)
	}

	risk, err := s.reconciler.Reconcile(stageBasedRisk, probability, s.predictor.Version())
	if err != nil {
		var ae *domain.AssessmentError
		if errors.As(err, &ae) {
			return nil, ae.WithRequestID(requestID)
		}
		return nil, err
	}

	result := &AssessmentResult{
		ID:             uuid.New(),
		Classification: classification,
		Risk:           *risk,
		Staging:        s.stager.DetermineStage(panel, classification.Group),
		Recommendation: s.recommender.Recommend(&classification, risk),
	}

	s.persist(ctx, panel, result, requestID)

	s.logger.WithFields(logrus.Fields{
		"assessment_id":      result.ID.String(),
		"molecular_group":    string(classification.Group),
		"risk_category":      string(risk.RiskCategory),
		"reclassified":       risk.Reclassified,
		"processing_time_ms": time.Since(started).Milliseconds(),
		"request_id":         requestID,
	}).Info("Assessment completed")

	return result, nil
}

// AssessBatch assesses multiple panels, isolating per-panel failures so a
// single invalid panel does not abort the batch.
func (s *AssessmentService) AssessBatch(ctx context.Context, panels []*domain.BiomarkerPanel, requestID string) []BatchAssessmentItem {
	items := make([]BatchAssessmentItem, len(panels))
	for i, panel := range panels {
		items[i].Index = i
		result, err := s.Assess(ctx, panel, requestID)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		items[i].Result = result
	}
	return items
}

// Classify validates a panel and returns its molecular classification
// without running the risk model.
func (s *AssessmentService) Classify(panel *domain.BiomarkerPanel) (*domain.MolecularClassification, error) {
	panel.Normalize()
	if err := panel.Validate(); err != nil {
		return nil, domain.InvalidPanelError(err)
	}
	classification := s.classifier.Classify(panel)
	return &classification, nil
}

// Explain produces the per-feature explanation for one panel's prediction.
func (s *AssessmentService) Explain(ctx context.Context, panel *domain.BiomarkerPanel) (*domain.RiskExplanation, error) {
	if s.explainer == nil {
		return nil, domain.NewAssessmentError(domain.ErrCodeModelUnavailable,
			"explanations are not available for the configured predictor")
	}

	panel.Normalize()
	if err := panel.Validate(); err != nil {
		return nil, domain.InvalidPanelError(err)
	}

	classification := s.classifier.Classify(panel)
	features, err := model.Encode(panel, classification.Group)
	if err != nil {
		return nil, domain.NewAssessmentError(domain.ErrCodeInternalError,
			"feature encoding failed").WithCause(err)
	}
	return s.explainer.Explain(ctx, features)
}

// GetAssessment retrieves a persisted assessment by ID.
func (s *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID) (*domain.AssessmentRecord, error) {
	if s.repository == nil {
		return nil, domain.NewAssessmentError(domain.ErrCodeAssessmentNotFound,
			"assessment persistence is not configured").WithCause(domain.ErrNotFound)
	}
	record, err := s.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewAssessmentError(domain.ErrCodeAssessmentNotFound,
				fmt.Sprintf("assessment %s not found", id)).WithCause(err)
		}
		return nil, domain.NewAssessmentError(domain.ErrCodeStorageFailure,
			"failed to load assessment").WithCause(err)
	}
	return record, nil
}

// persist writes the audit record when a repository is configured. Audit
// failures are logged but do not fail the assessment already produced.
func (s *AssessmentService) persist(ctx context.Context, panel *domain.BiomarkerPanel, result *AssessmentResult, requestID string) {
	if s.repository == nil {
		return
	}
	record := &domain.AssessmentRecord{
		ID:                    result.ID,
		Panel:                 *panel,
		MolecularGroup:        result.Classification.Group,
		Subtype:               result.Classification.Subtype,
		Confidence:            result.Classification.Confidence,
		RecurrenceProbability: result.Risk.RecurrenceProbability,
		RiskCategory:          result.Risk.RiskCategory,
		StageBasedRisk:        result.Risk.StageBasedRisk,
		RiskDifference:        result.Risk.RiskDifference,
		Reclassified:          result.Risk.Reclassified,
		RiskPercentile:        result.Risk.RiskPercentile,
		FIGO2023Stage:         result.Staging.MolecularStage,
		ModelVersion:          result.Risk.ModelVersion,
		RequestID:             requestID,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.repository.Save(ctx, record); err != nil {
		s.logger.WithError(err).WithField("assessment_id", record.ID.String()).
			Error("Failed to persist assessment record")
	}
}
