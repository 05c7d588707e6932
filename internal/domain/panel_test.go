package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPanel() *BiomarkerPanel {
	return &BiomarkerPanel{
		Age:                62,
		BMI:                28.5,
		ECOG:               1,
		Stage:              StageIA,
		Histology:          HistologyEndometrioid,
		Grade:              GradeG1,
		MyometrialInvasion: InvasionLessThanHalf,
		LVSI:               LVSINone,
		LymphNodes:         NodesNegative,
		POLE:               POLEWildType,
		MMR:                MMRProficient,
		P53:                P53WildType,
		L1CAM:              L1CAMNegative,
		CTNNB1:             CTNNB1WildType,
	}
}

func TestBiomarkerPanelValidate(t *testing.T) {
	t.Run("valid panel passes", func(t *testing.T) {
		assert.NoError(t, validPanel().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*BiomarkerPanel)
		field  string
	}{
		{"age below minimum", func(p *BiomarkerPanel) { p.Age = 17 }, "age"},
		{"age above maximum", func(p *BiomarkerPanel) { p.Age = 111 }, "age"},
		{"implausible bmi", func(p *BiomarkerPanel) { p.BMI = 5.0 }, "bmi"},
		{"ecog out of range", func(p *BiomarkerPanel) { p.ECOG = 5 }, "ecog_status"},
		{"bad stage", func(p *BiomarkerPanel) { p.Stage = "IIID" }, "figo_stage"},
		{"bad histology", func(p *BiomarkerPanel) { p.Histology = "Sarcoma" }, "histology"},
		{"bad grade", func(p *BiomarkerPanel) { p.Grade = "G4" }, "grade"},
		{"bad invasion", func(p *BiomarkerPanel) { p.MyometrialInvasion = "deep" }, "myometrial_invasion"},
		{"bad lvsi", func(p *BiomarkerPanel) { p.LVSI = "Extensive" }, "lvsi"},
		{"bad nodes", func(p *BiomarkerPanel) { p.LymphNodes = "Distant" }, "lymph_nodes"},
		{"bad pole", func(p *BiomarkerPanel) { p.POLE = "Positive" }, "pole_status"},
		{"bad mmr protein", func(p *BiomarkerPanel) { p.MMRProteinLost = "BRCA1" }, "mmr_protein_lost"},
		{"bad p53 pattern", func(p *BiomarkerPanel) { p.P53Pattern = "Overexpressed" }, "p53_pattern"},
		{"er over 100", func(p *BiomarkerPanel) {
			v := 120.0
			p.ERPercent = &v
		}, "er_percent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panel := validPanel()
			tt.mutate(panel)
			err := panel.Validate()
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestBiomarkerPanelNormalize(t *testing.T) {
	panel := &BiomarkerPanel{}
	panel.Normalize()

	assert.Equal(t, POLENotTested, panel.POLE)
	assert.Equal(t, MMRNotTested, panel.MMR)
	assert.Equal(t, P53NotTested, panel.P53)
	assert.Equal(t, L1CAMNotTested, panel.L1CAM)
	assert.Equal(t, CTNNB1NotTested, panel.CTNNB1)
}

func TestUntestedPrimaryMarkers(t *testing.T) {
	panel := validPanel()
	assert.Empty(t, panel.UntestedPrimaryMarkers())

	panel.POLE = POLENotTested
	panel.P53 = P53NotTested
	assert.Equal(t, []string{"POLE", "p53"}, panel.UntestedPrimaryMarkers())
}

func TestAssessmentErrorWrapping(t *testing.T) {
	inner := NewValidationError("age", "age must be between 18 and 110", 12)
	ae := InvalidPanelError(inner)

	assert.Equal(t, ErrCodeInvalidPanel, ae.Code)
	assert.Equal(t, "age", ae.Details["field"])

	var ve *ValidationError
	assert.True(t, errors.As(ae, &ve))

	mu := ModelUnavailableError("probability out of range")
	assert.ErrorIs(t, mu, ErrModelUnavailable)
	assert.Contains(t, mu.Error(), "MODEL_UNAVAILABLE")
}
