package service

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// RiskReconciler compares the model-based recurrence probability against
// the stage-based baseline and flags reclassification when the two fall in
// different risk categories.
type RiskReconciler struct {
	logger *logrus.Logger
}

// NewRiskReconciler creates a reconciler.
func NewRiskReconciler(logger *logrus.Logger) *RiskReconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &RiskReconciler{logger: logger}
}

// Reconcile builds the risk assessment. A non-finite or out-of-range model
// probability is a MODEL_UNAVAILABLE error; no assessment is produced and
// the stage estimate is never substituted for the model output.
func (r *RiskReconciler) Reconcile(stageRisk, modelRisk float64, modelVersion string) (*domain.RiskAssessment, error) {
	if !domain.ValidProbability(modelRisk) {
		r.logger.WithFields(logrus.Fields{
			"model_risk":    modelRisk,
			"model_version": modelVersion,
		}).Error("Model probability unusable; refusing to assess")
		return nil, domain.ModelUnavailableError("model probability is not a valid probability")
	}
	if !domain.ValidProbability(stageRisk) {
		return nil, domain.NewAssessmentError(domain.ErrCodeInternalError,
			"stage-based risk out of range").WithDetails(map[string]any{"stage_risk": stageRisk})
	}

	modelCategory := domain.RiskCategoryFor(modelRisk)
	stageCategory := domain.RiskCategoryFor(stageRisk)
	reclassified := modelCategory != stageCategory

	assessment := &domain.RiskAssessment{
		RecurrenceProbability: modelRisk,
		RiskCategory:          modelCategory,
		StageBasedRisk:        stageRisk,
		StageBasedCategory:    stageCategory,
		RiskDifference:        modelRisk - stageRisk,
		Reclassified:          reclassified,
		RiskPercentile:        int(math.Round(modelRisk * 100)),
		ModelVersion:          modelVersion,
		AssessmentDate:        time.Now().UTC(),
	}

	if reclassified {
		r.logger.WithFields(logrus.Fields{
			"stage_category": string(stageCategory),
			"model_category": string(modelCategory),
			"risk_difference": assessment.RiskDifference,
		}).Info("Molecular assessment reclassified recurrence risk")
	}
	return assessment, nil
}
