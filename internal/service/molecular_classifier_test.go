package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorisk-server/internal/domain"
)

func testPanel(mutate func(*domain.BiomarkerPanel)) *domain.BiomarkerPanel {
	panel := &domain.BiomarkerPanel{
		Age:                62,
		BMI:                28.0,
		Stage:              domain.StageIA,
		Histology:          domain.HistologyEndometrioid,
		Grade:              domain.GradeG1,
		MyometrialInvasion: domain.InvasionLessThanHalf,
		LVSI:               domain.LVSINone,
		LymphNodes:         domain.NodesNegative,
		POLE:               domain.POLEWildType,
		MMR:                domain.MMRProficient,
		P53:                domain.P53WildType,
		L1CAM:              domain.L1CAMNegative,
		CTNNB1:             domain.CTNNB1WildType,
	}
	if mutate != nil {
		mutate(panel)
	}
	return panel
}

func TestClassifyHierarchy(t *testing.T) {
	classifier := NewMolecularClassifier(nil)

	tests := []struct {
		name    string
		mutate  func(*domain.BiomarkerPanel)
		group   domain.MolecularGroup
		subtype string
	}{
		{
			"POLE mutation alone",
			func(p *domain.BiomarkerPanel) { p.POLE = domain.POLEMutated },
			domain.GroupPOLEmut, "POLEmut",
		},
		{
			"POLE dominates MMR deficiency and p53 abnormality",
			func(p *domain.BiomarkerPanel) {
				p.POLE = domain.POLEMutated
				p.MMR = domain.MMRDeficient
				p.P53 = domain.P53Abnormal
			},
			domain.GroupPOLEmut, "POLEmut",
		},
		{
			"MMR deficiency dominates p53 abnormality",
			func(p *domain.BiomarkerPanel) {
				p.MMR = domain.MMRDeficient
				p.MMRProteinLost = domain.ProteinMLH1
				p.P53 = domain.P53Abnormal
			},
			domain.GroupMMRd, "MMRd-MLH1",
		},
		{
			"MMR deficiency without protein identified",
			func(p *domain.BiomarkerPanel) { p.MMR = domain.MMRDeficient },
			domain.GroupMMRd, "MMRd-unspecified protein",
		},
		{
			"p53 abnormal null pattern",
			func(p *domain.BiomarkerPanel) {
				p.P53 = domain.P53Abnormal
				p.P53Pattern = domain.PatternNull
			},
			domain.GroupP53abn, "p53abn-Null",
		},
		{
			"p53 abnormal missense pattern",
			func(p *domain.BiomarkerPanel) {
				p.P53 = domain.P53Abnormal
				p.P53Pattern = domain.PatternMissense
			},
			domain.GroupP53abn, "p53abn-Missense",
		},
		{
			"all markers negative is favorable NSMP",
			nil,
			domain.GroupNSMP, "NSMP-favorable",
		},
		{
			"CTNNB1 mutation refines NSMP",
			func(p *domain.BiomarkerPanel) { p.CTNNB1 = domain.CTNNB1Mutated },
			domain.GroupNSMP, "NSMP-CTNNB1mut",
		},
		{
			"L1CAM positivity refines NSMP",
			func(p *domain.BiomarkerPanel) { p.L1CAM = domain.L1CAMPositive },
			domain.GroupNSMP, "NSMP-L1CAM-positive",
		},
		{
			"CTNNB1 takes priority over L1CAM in NSMP refinement",
			func(p *domain.BiomarkerPanel) {
				p.CTNNB1 = domain.CTNNB1Mutated
				p.L1CAM = domain.L1CAMPositive
			},
			domain.GroupNSMP, "NSMP-CTNNB1mut",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(testPanel(tt.mutate))
			assert.Equal(t, tt.group, result.Group)
			assert.Equal(t, tt.subtype, result.Subtype)
			assert.NotEmpty(t, result.Rationale)
			assert.Greater(t, result.Confidence, 0.0)
		})
	}
}

func TestClassifySupersededMarkersDisclosed(t *testing.T) {
	classifier := NewMolecularClassifier(nil)

	result := classifier.Classify(testPanel(func(p *domain.BiomarkerPanel) {
		p.POLE = domain.POLEMutated
		p.MMR = domain.MMRDeficient
		p.P53 = domain.P53Abnormal
	}))

	require.Equal(t, domain.GroupPOLEmut, result.Group)
	joined := ""
	for _, line := range result.Rationale {
		joined += line + "\n"
	}
	assert.Contains(t, joined, "MMR deficiency present but superseded")
	assert.Contains(t, joined, "p53 abnormality present but superseded")
}

func TestClassifyNotTestedIsNotNegative(t *testing.T) {
	classifier := NewMolecularClassifier(nil)

	// p53 abnormal with untested POLE and MMR still classifies p53abn, but
	// with reduced confidence and explicit disclosure.
	result := classifier.Classify(testPanel(func(p *domain.BiomarkerPanel) {
		p.POLE = domain.POLENotTested
		p.MMR = domain.MMRNotTested
		p.P53 = domain.P53Abnormal
	}))

	require.Equal(t, domain.GroupP53abn, result.Group)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)

	fullyTested := classifier.Classify(testPanel(func(p *domain.BiomarkerPanel) {
		p.P53 = domain.P53Abnormal
	}))
	assert.Greater(t, fullyTested.Confidence, result.Confidence)
}

func TestClassifyConfidencePenalties(t *testing.T) {
	classifier := NewMolecularClassifier(nil)

	tests := []struct {
		name       string
		mutate     func(*domain.BiomarkerPanel)
		confidence float64
	}{
		{
			"fully tested MMRd",
			func(p *domain.BiomarkerPanel) { p.MMR = domain.MMRDeficient },
			0.95,
		},
		{
			"MMRd with untested POLE",
			func(p *domain.BiomarkerPanel) {
				p.POLE = domain.POLENotTested
				p.MMR = domain.MMRDeficient
			},
			0.85,
		},
		{
			"fully tested NSMP",
			nil,
			0.80,
		},
		{
			"NSMP missing one primary marker",
			func(p *domain.BiomarkerPanel) { p.POLE = domain.POLENotTested },
			0.65,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(testPanel(tt.mutate))
			assert.InDelta(t, tt.confidence, result.Confidence, 1e-9)
		})
	}
}

func TestClassifyAllPrimariesUntestedIsAmbiguous(t *testing.T) {
	classifier := NewMolecularClassifier(nil)

	allUntested := classifier.Classify(testPanel(func(p *domain.BiomarkerPanel) {
		p.POLE = domain.POLENotTested
		p.MMR = domain.MMRNotTested
		p.P53 = domain.P53NotTested
		p.L1CAM = domain.L1CAMNotTested
		p.CTNNB1 = domain.CTNNB1NotTested
	}))

	require.Equal(t, domain.GroupNSMP, allUntested.Group)
	assert.True(t, allUntested.Ambiguous)
	assert.InDelta(t, minConfidence, allUntested.Confidence, 1e-9)

	allNegative := classifier.Classify(testPanel(nil))
	assert.False(t, allNegative.Ambiguous)
	assert.Greater(t, allNegative.Confidence, allUntested.Confidence)
}
