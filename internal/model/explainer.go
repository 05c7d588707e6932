package model

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// Contribution display colors. Red marks risk-increasing features, green
// marks protective ones.
const (
	colorRisk       = "#ef4444"
	colorProtective = "#22c55e"
)

// contributionFloor drops contributions too small to be clinically
// meaningful from the explanation.
const contributionFloor = 0.001

// ExplanationEngine produces SHAP-style additive explanations by baseline
// substitution: each feature's contribution is the probability shift
// observed when that feature alone is replaced by its cohort-average value.
type ExplanationEngine struct {
	predictor *GBMPredictor
	logger    *logrus.Logger
}

// NewExplanationEngine creates an explanation engine over an embedded
// model.
func NewExplanationEngine(predictor *GBMPredictor, logger *logrus.Logger) *ExplanationEngine {
	if logger == nil {
		logger = logrus.New()
	}
	return &ExplanationEngine{predictor: predictor, logger: logger}
}

// Explain decomposes the prediction for one feature vector.
func (e *ExplanationEngine) Explain(ctx context.Context, features []float64) (*domain.RiskExplanation, error) {
	probability, err := e.predictor.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	decoded, err := Decode(features)
	if err != nil {
		return nil, fmt.Errorf("explaining prediction: %w", err)
	}

	baseline := e.predictor.Baseline()
	contributions := make([]domain.FeatureContribution, 0, FeatureCount)
	scratch := make([]float64, FeatureCount)

	for i := 0; i < FeatureCount; i++ {
		copy(scratch, features)
		scratch[i] = baseline[i]
		substituted, err := e.predictor.Predict(ctx, scratch)
		if err != nil {
			return nil, err
		}

		contribution := probability - substituted
		if math.Abs(contribution) < contributionFloor {
			continue
		}

		direction, color := "risk", colorRisk
		if contribution < 0 {
			direction, color = "protective", colorProtective
		}
		contributions = append(contributions, domain.FeatureContribution{
			Feature:      FeatureNames[i],
			DisplayName:  DisplayNames[FeatureNames[i]],
			Value:        DisplayValue(decoded, FeatureNames[i]),
			Contribution: contribution,
			Direction:    direction,
			Color:        color,
		})
	}

	sort.SliceStable(contributions, func(a, b int) bool {
		return math.Abs(contributions[a].Contribution) > math.Abs(contributions[b].Contribution)
	})
	for i := range contributions {
		contributions[i].ImportanceRank = i + 1
	}

	explanation := &domain.RiskExplanation{
		Probability:   probability,
		BaseValue:     e.predictor.BaseProbability(),
		Contributions: contributions,
		Interactions:  detectInteractions(decoded),
		Summary:       buildSummary(probability, contributions),
		ModelVersion:  e.predictor.Version(),
	}

	e.logger.WithFields(logrus.Fields{
		"probability":   probability,
		"contributions": len(contributions),
		"interactions":  len(explanation.Interactions),
	}).Debug("Generated risk explanation")

	return explanation, nil
}

// detectInteractions flags clinically established feature interactions
// present in this panel. Strengths reflect the excess risk beyond the
// additive contributions.
func detectInteractions(d *DecodedFeatures) []domain.FeatureInteraction {
	var interactions []domain.FeatureInteraction

	if d.P53 == domain.P53Abnormal && d.Stage.Rank() >= domain.StageIIIA.Rank() {
		interactions = append(interactions, domain.FeatureInteraction{
			Features:       [2]string{"p53_status", "stage"},
			Strength:       0.08,
			Interpretation: "p53 abnormality combined with advanced stage markedly increases recurrence risk beyond either factor alone",
		})
	}
	if d.L1CAM == domain.L1CAMPositive && d.Group == domain.GroupNSMP {
		interactions = append(interactions, domain.FeatureInteraction{
			Features:       [2]string{"l1cam_status", "molecular_group"},
			Strength:       0.12,
			Interpretation: "L1CAM positivity identifies an aggressive subset within the otherwise heterogeneous NSMP group",
		})
	}
	if d.LVSI == domain.LVSISubstantial && d.Grade == domain.GradeG3 {
		interactions = append(interactions, domain.FeatureInteraction{
			Features:       [2]string{"lvsi", "grade"},
			Strength:       0.05,
			Interpretation: "Substantial LVSI with grade 3 histology indicates elevated lymphatic spread potential",
		})
	}
	return interactions
}

func buildSummary(probability float64, contributions []domain.FeatureContribution) string {
	category := domain.RiskCategoryFor(probability)
	percent := int(math.Round(probability * 100))

	switch len(contributions) {
	case 0:
		return fmt.Sprintf("%s risk (%d%% recurrence probability) with no single dominant driver",
			category, percent)
	case 1:
		return fmt.Sprintf("%s risk (%d%% recurrence probability) driven primarily by %s (%s)",
			category, percent, contributions[0].DisplayName, contributions[0].Value)
	default:
		return fmt.Sprintf("%s risk (%d%% recurrence probability) driven primarily by %s (%s) and %s (%s)",
			category, percent,
			contributions[0].DisplayName, contributions[0].Value,
			contributions[1].DisplayName, contributions[1].Value)
	}
}
