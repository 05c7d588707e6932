package service

import (
	"github.com/endorisk-server/internal/domain"
)

// Baseline 5-year recurrence risk by anatomical FIGO stage, from pooled
// PORTEC/GOG cohort outcomes. Strictly increasing with stage.
var stageBaselineRisk = map[domain.FIGOStage]float64{
	domain.StageIA:    0.05,
	domain.StageIB:    0.10,
	domain.StageII:    0.15,
	domain.StageIIIA:  0.25,
	domain.StageIIIB:  0.30,
	domain.StageIIIC1: 0.40,
	domain.StageIIIC2: 0.50,
	domain.StageIVA:   0.65,
	domain.StageIVB:   0.75,
}

// Additive clinicopathological modifiers. All are non-negative and
// independent of stage, so the estimate stays monotonic in both stage and
// grade.
const (
	gradeG2Modifier         = 0.02
	gradeG3Modifier         = 0.05
	aggressiveHistoModifier = 0.05
	mixedHistoModifier      = 0.02
	deepInvasionModifier    = 0.03
	focalLVSIModifier       = 0.02
	substantialLVSIModifier = 0.05
	pelvicNodesModifier     = 0.03
	paraAorticNodesModifier = 0.05

	maxStageBasedRisk = 0.95
)

// StageRiskEstimator computes the conventional stage-anchored recurrence
// estimate that molecular assessment is reconciled against.
type StageRiskEstimator struct{}

// NewStageRiskEstimator creates an estimator.
func NewStageRiskEstimator() *StageRiskEstimator {
	return &StageRiskEstimator{}
}

// Estimate returns the stage-based 5-year recurrence risk for a validated
// panel. The result is always within [0, maxStageBasedRisk].
func (e *StageRiskEstimator) Estimate(panel *domain.BiomarkerPanel) float64 {
	risk := stageBaselineRisk[panel.Stage]

	switch panel.Grade {
	case domain.GradeG2:
		risk += gradeG2Modifier
	case domain.GradeG3:
		risk += gradeG3Modifier
	}

	if panel.Histology.IsAggressive() {
		risk += aggressiveHistoModifier
	} else if panel.Histology == domain.HistologyMixed {
		risk += mixedHistoModifier
	}

	if panel.MyometrialInvasion == domain.InvasionHalfOrMore {
		risk += deepInvasionModifier
	}

	switch panel.LVSI {
	case domain.LVSIFocal:
		risk += focalLVSIModifier
	case domain.LVSISubstantial:
		risk += substantialLVSIModifier
	}

	switch panel.LymphNodes {
	case domain.NodesPelvic:
		risk += pelvicNodesModifier
	case domain.NodesParaAortic:
		risk += paraAorticNodesModifier
	}

	if risk > maxStageBasedRisk {
		risk = maxStageBasedRisk
	}
	return risk
}
