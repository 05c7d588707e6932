package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskCategoryFor(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		expected    RiskCategory
	}{
		{"well below low threshold", 0.05, RiskLow},
		{"just below low threshold", 0.149999, RiskLow},
		{"exactly low threshold", 0.15, RiskIntermediate},
		{"mid intermediate", 0.25, RiskIntermediate},
		{"just below high threshold", 0.399999, RiskIntermediate},
		{"exactly high threshold", 0.40, RiskHigh},
		{"well above high threshold", 0.75, RiskHigh},
		{"zero probability", 0.0, RiskLow},
		{"certain recurrence", 1.0, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RiskCategoryFor(tt.probability))
		})
	}
}

func TestFIGOStageRank(t *testing.T) {
	ordered := []FIGOStage{
		StageIA, StageIB, StageII, StageIIIA, StageIIIB,
		StageIIIC1, StageIIIC2, StageIVA, StageIVB,
	}

	for i, stage := range ordered {
		assert.Equal(t, i, stage.Rank(), "stage %s", stage)
	}
	assert.Equal(t, -1, FIGOStage("V").Rank())
}

func TestFIGOStageGroup(t *testing.T) {
	assert.Equal(t, "I", StageIA.StageGroup())
	assert.Equal(t, "I", StageIB.StageGroup())
	assert.Equal(t, "II", StageII.StageGroup())
	assert.Equal(t, "III", StageIIIC2.StageGroup())
	assert.Equal(t, "IV", StageIVB.StageGroup())
}

func TestHistologyIsAggressive(t *testing.T) {
	assert.True(t, HistologySerous.IsAggressive())
	assert.True(t, HistologyClearCell.IsAggressive())
	assert.True(t, HistologyCarcinosarcoma.IsAggressive())
	assert.False(t, HistologyEndometrioid.IsAggressive())
	assert.False(t, HistologyMixed.IsAggressive())
}

func TestMolecularGroupIsValid(t *testing.T) {
	for _, g := range []MolecularGroup{GroupPOLEmut, GroupMMRd, GroupNSMP, GroupP53abn} {
		assert.True(t, g.IsValid(), "group %s", g)
	}
	assert.False(t, MolecularGroup("POLE-mutant").IsValid())
	assert.False(t, MolecularGroup("").IsValid())
}

func TestValidProbability(t *testing.T) {
	assert.True(t, ValidProbability(0.0))
	assert.True(t, ValidProbability(0.5))
	assert.True(t, ValidProbability(1.0))
	assert.False(t, ValidProbability(math.NaN()))
	assert.False(t, ValidProbability(math.Inf(1)))
	assert.False(t, ValidProbability(-0.01))
	assert.False(t, ValidProbability(1.01))
}

func TestParseStage(t *testing.T) {
	stage, err := ParseStage("IIIC1")
	assert.NoError(t, err)
	assert.Equal(t, StageIIIC1, stage)

	_, err = ParseStage("IIID")
	assert.ErrorIs(t, err, ErrInvalidStage)
}
