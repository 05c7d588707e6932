package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorisk-server/internal/domain"
)

func fullPanel() *domain.BiomarkerPanel {
	return &domain.BiomarkerPanel{
		Age:                67,
		BMI:                31.2,
		ECOG:               1,
		Diabetes:           true,
		Stage:              domain.StageIIIC1,
		Histology:          domain.HistologySerous,
		Grade:              domain.GradeG3,
		MyometrialInvasion: domain.InvasionHalfOrMore,
		LVSI:               domain.LVSISubstantial,
		LymphNodes:         domain.NodesPelvic,
		POLE:               domain.POLEWildType,
		MMR:                domain.MMRProficient,
		P53:                domain.P53Abnormal,
		L1CAM:              domain.L1CAMPositive,
		CTNNB1:             domain.CTNNB1WildType,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		panel *domain.BiomarkerPanel
		group domain.MolecularGroup
	}{
		{"fully tested aggressive panel", fullPanel(), domain.GroupP53abn},
		{
			"untested markers preserved",
			&domain.BiomarkerPanel{
				Age:                55,
				BMI:                24.0,
				Stage:              domain.StageIA,
				Histology:          domain.HistologyEndometrioid,
				Grade:              domain.GradeG1,
				MyometrialInvasion: domain.InvasionLessThanHalf,
				LVSI:               domain.LVSINone,
				LymphNodes:         domain.NodesNegative,
				POLE:               domain.POLENotTested,
				MMR:                domain.MMRNotTested,
				P53:                domain.P53NotTested,
				L1CAM:              domain.L1CAMNotTested,
				CTNNB1:             domain.CTNNB1NotTested,
			},
			domain.GroupNSMP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := Encode(tt.panel, tt.group)
			require.NoError(t, err)
			require.Len(t, vec, FeatureCount)

			decoded, err := Decode(vec)
			require.NoError(t, err)

			assert.Equal(t, tt.group, decoded.Group)
			assert.Equal(t, tt.panel.Stage, decoded.Stage)
			assert.Equal(t, tt.panel.Histology, decoded.Histology)
			assert.Equal(t, tt.panel.Grade, decoded.Grade)
			assert.Equal(t, tt.panel.MyometrialInvasion, decoded.MyometrialInvasion)
			assert.Equal(t, tt.panel.LVSI, decoded.LVSI)
			assert.Equal(t, tt.panel.LymphNodes, decoded.LymphNodes)
			assert.Equal(t, tt.panel.POLE, decoded.POLE)
			assert.Equal(t, tt.panel.MMR, decoded.MMR)
			assert.Equal(t, tt.panel.P53, decoded.P53)
			assert.Equal(t, tt.panel.L1CAM, decoded.L1CAM)
			assert.Equal(t, tt.panel.CTNNB1, decoded.CTNNB1)
			assert.Equal(t, tt.panel.Age, decoded.Age)
			assert.Equal(t, tt.panel.BMI, decoded.BMI)
			assert.Equal(t, tt.panel.ECOG, decoded.ECOG)
			assert.Equal(t, tt.panel.Diabetes, decoded.Diabetes)
		})
	}
}

func TestNotTestedDistinctFromNegative(t *testing.T) {
	panel := fullPanel()
	panel.P53 = domain.P53WildType
	tested, err := Encode(panel, domain.GroupNSMP)
	require.NoError(t, err)

	panel.P53 = domain.P53NotTested
	untested, err := Encode(panel, domain.GroupNSMP)
	require.NoError(t, err)

	assert.Equal(t, 0.0, tested[idxP53])
	assert.Equal(t, NotTestedCode, untested[idxP53])
	assert.NotEqual(t, tested[idxP53], untested[idxP53])
}

func TestDecodeRejectsUnknownCodes(t *testing.T) {
	vec, err := Encode(fullPanel(), domain.GroupP53abn)
	require.NoError(t, err)

	vec[idxHistology] = 9
	_, err = Decode(vec)
	assert.ErrorContains(t, err, "histology")

	_, err = Decode(vec[:5])
	assert.ErrorContains(t, err, "expected 16")
}

func TestEncodeRejectsInvalidGroup(t *testing.T) {
	_, err := Encode(fullPanel(), domain.MolecularGroup("unknown"))
	assert.ErrorIs(t, err, domain.ErrInvalidMolecularGroup)
}

func TestValidateVector(t *testing.T) {
	vec, err := Encode(fullPanel(), domain.GroupP53abn)
	require.NoError(t, err)
	assert.NoError(t, ValidateVector(vec))

	vec[idxBMI] = math.NaN()
	assert.ErrorContains(t, ValidateVector(vec), "bmi")

	assert.ErrorContains(t, ValidateVector(make([]float64, 3)), "expected 16")
}
