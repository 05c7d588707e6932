package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/endorisk-server/internal/domain"
)

var allStages = []domain.FIGOStage{
	domain.StageIA, domain.StageIB, domain.StageII,
	domain.StageIIIA, domain.StageIIIB, domain.StageIIIC1,
	domain.StageIIIC2, domain.StageIVA, domain.StageIVB,
}

func TestStageRiskBaselines(t *testing.T) {
	estimator := NewStageRiskEstimator()

	expected := map[domain.FIGOStage]float64{
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

	for stage, want := range expected {
		panel := testPanel(func(p *domain.BiomarkerPanel) { p.Stage = stage })
		assert.InDelta(t, want, estimator.Estimate(panel), 1e-9, "stage %s", stage)
	}
}

func TestStageRiskMonotonicInStage(t *testing.T) {
	estimator := NewStageRiskEstimator()

	// Monotonicity must hold for favorable and adverse panels alike.
	mutations := []func(*domain.BiomarkerPanel){
		nil,
		func(p *domain.BiomarkerPanel) {
			p.Grade = domain.GradeG3
			p.Histology = domain.HistologySerous
			p.MyometrialInvasion = domain.InvasionHalfOrMore
			p.LVSI = domain.LVSISubstantial
			p.LymphNodes = domain.NodesParaAortic
		},
	}

	for _, mutate := range mutations {
		previous := -1.0
		for _, stage := range allStages {
			panel := testPanel(mutate)
			panel.Stage = stage
			risk := estimator.Estimate(panel)
			assert.Greater(t, risk, previous, "stage %s", stage)
			assert.LessOrEqual(t, risk, maxStageBasedRisk)
			previous = risk
		}
	}
}

func TestStageRiskMonotonicInGrade(t *testing.T) {
	estimator := NewStageRiskEstimator()

	for _, stage := range allStages {
		previous := -1.0
		for _, grade := range []domain.Grade{domain.GradeG1, domain.GradeG2, domain.GradeG3} {
			panel := testPanel(func(p *domain.BiomarkerPanel) {
				p.Stage = stage
				p.Grade = grade
			})
			risk := estimator.Estimate(panel)
			assert.GreaterOrEqual(t, risk, previous, "stage %s grade %s", stage, grade)
			previous = risk
		}
	}
}

func TestStageRiskModifiers(t *testing.T) {
	estimator := NewStageRiskEstimator()

	tests := []struct {
		name     string
		mutate   func(*domain.BiomarkerPanel)
		expected float64
	}{
		{
			"IA G3 remains within early-stage band",
			func(p *domain.BiomarkerPanel) { p.Grade = domain.GradeG3 },
			0.10,
		},
		{
			"serous histology adds risk",
			func(p *domain.BiomarkerPanel) { p.Histology = domain.HistologySerous },
			0.10,
		},
		{
			"deep invasion with focal LVSI",
			func(p *domain.BiomarkerPanel) {
				p.MyometrialInvasion = domain.InvasionHalfOrMore
				p.LVSI = domain.LVSIFocal
			},
			0.10,
		},
		{
			"fully adverse advanced panel clamps",
			func(p *domain.BiomarkerPanel) {
				p.Stage = domain.StageIVB
				p.Grade = domain.GradeG3
				p.Histology = domain.HistologyCarcinosarcoma
				p.MyometrialInvasion = domain.InvasionHalfOrMore
				p.LVSI = domain.LVSISubstantial
				p.LymphNodes = domain.NodesParaAortic
			},
			maxStageBasedRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, estimator.Estimate(testPanel(tt.mutate)), 1e-9)
		})
	}
}
