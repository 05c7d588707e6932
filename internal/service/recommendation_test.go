package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorisk-server/internal/domain"
)

func TestRecommendPOLEmut(t *testing.T) {
	engine := NewRecommendationEngine()

	rec := engine.Recommend(&domain.MolecularClassification{Group: domain.GroupPOLEmut}, nil)

	assert.Equal(t, domain.GroupPOLEmut, rec.MolecularGroup)
	assert.Contains(t, rec.Headline, "de-escalation")
	require.NotEmpty(t, rec.Evidence)
	assert.Contains(t, rec.Evidence[0].Finding, "100% recurrence-free survival")
	require.NotEmpty(t, rec.Trials)
	assert.Equal(t, "RAINBO POLEmut-BLUE", rec.Trials[0].Name)
	assert.Empty(t, rec.Alerts)
}

func TestRecommendMMRdIncludesLynchAlert(t *testing.T) {
	engine := NewRecommendationEngine()

	rec := engine.Recommend(&domain.MolecularClassification{Group: domain.GroupMMRd}, nil)

	assert.Contains(t, rec.Headline, "immune checkpoint")
	assert.Len(t, rec.Evidence, 2)
	require.NotEmpty(t, rec.Alerts)
	assert.Equal(t, "warning", rec.Alerts[0].Severity)
	assert.Contains(t, rec.Alerts[0].Message, "Lynch syndrome")
}

func TestRecommendP53abn(t *testing.T) {
	engine := NewRecommendationEngine()

	t.Run("without reclassification", func(t *testing.T) {
		rec := engine.Recommend(&domain.MolecularClassification{Group: domain.GroupP53abn}, &domain.RiskAssessment{
			RiskCategory: domain.RiskHigh,
		})
		assert.Contains(t, rec.Headline, "chemoradiation")
		assert.Empty(t, rec.Alerts)
	})

	t.Run("upward reclassification raises a critical alert", func(t *testing.T) {
		rec := engine.Recommend(&domain.MolecularClassification{Group: domain.GroupP53abn}, &domain.RiskAssessment{
			RiskCategory:   domain.RiskIntermediate,
			Reclassified:   true,
			RiskDifference: 0.09,
		})
		require.NotEmpty(t, rec.Alerts)
		assert.Equal(t, "critical", rec.Alerts[0].Severity)
		assert.Contains(t, rec.Alerts[0].Message, "higher recurrence risk")
	})
}

func TestRecommendNSMPBranches(t *testing.T) {
	engine := NewRecommendationEngine()

	tests := []struct {
		name           string
		classification domain.MolecularClassification
		risk           *domain.RiskAssessment
		headline       string
	}{
		{
			"L1CAM positive overrides risk category",
			domain.MolecularClassification{Group: domain.GroupNSMP, Subtype: "NSMP-L1CAM-positive"},
			&domain.RiskAssessment{RiskCategory: domain.RiskLow},
			"L1CAM-positive",
		},
		{
			"high risk NSMP",
			domain.MolecularClassification{Group: domain.GroupNSMP, Subtype: "NSMP-favorable"},
			&domain.RiskAssessment{RiskCategory: domain.RiskHigh},
			"High-risk NSMP",
		},
		{
			"low risk NSMP",
			domain.MolecularClassification{Group: domain.GroupNSMP, Subtype: "NSMP-favorable"},
			&domain.RiskAssessment{RiskCategory: domain.RiskLow},
			"Low-risk NSMP",
		},
		{
			"intermediate NSMP",
			domain.MolecularClassification{Group: domain.GroupNSMP, Subtype: "NSMP-favorable"},
			&domain.RiskAssessment{RiskCategory: domain.RiskIntermediate},
			"Intermediate-risk NSMP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := engine.Recommend(&tt.classification, tt.risk)
			assert.Contains(t, rec.Headline, tt.headline)
			assert.NotEmpty(t, rec.AdjuvantTherapy)
		})
	}
}

func TestRecommendAmbiguousNSMPWarns(t *testing.T) {
	engine := NewRecommendationEngine()

	rec := engine.Recommend(&domain.MolecularClassification{
		Group:     domain.GroupNSMP,
		Subtype:   "NSMP-favorable",
		Ambiguous: true,
	}, &domain.RiskAssessment{RiskCategory: domain.RiskIntermediate})

	require.NotEmpty(t, rec.Alerts)
	assert.Contains(t, rec.Alerts[0].Message, "without any primary molecular testing")
}
