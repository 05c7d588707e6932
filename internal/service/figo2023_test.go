package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/endorisk-server/internal/domain"
)

func TestDetermineFIGO2023Stage(t *testing.T) {
	stager := NewFIGO2023Stager(nil)

	tests := []struct {
		name    string
		mutate  func(*domain.BiomarkerPanel)
		group   domain.MolecularGroup
		stage   string
		changed bool
		impact  string
	}{
		{
			"NSMP stage IA unchanged",
			nil,
			domain.GroupNSMP, "IA", false, PrognosisIntermediate,
		},
		{
			"POLEmut stage IA gains m1 modifier",
			nil,
			domain.GroupPOLEmut, "IAm1", true, PrognosisFavorable,
		},
		{
			"p53abn upstages IA to ICm2",
			nil,
			domain.GroupP53abn, "ICm2", true, PrognosisAggressive,
		},
		{
			"p53abn upstages IB to ICm2",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageIB },
			domain.GroupP53abn, "ICm2", true, PrognosisAggressive,
		},
		{
			"serous histology upstages stage I without molecular modifier",
			func(p *domain.BiomarkerPanel) { p.Histology = domain.HistologySerous },
			domain.GroupNSMP, "IC", true, PrognosisAggressive,
		},
		{
			"p53abn stage II becomes IICm2",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageII },
			domain.GroupP53abn, "IICm2", true, PrognosisAggressive,
		},
		{
			"substantial LVSI assigns stage II to IIB",
			func(p *domain.BiomarkerPanel) {
				p.Stage = domain.StageII
				p.LVSI = domain.LVSISubstantial
			},
			domain.GroupNSMP, "IIB", true, PrognosisIntermediate,
		},
		{
			"POLEmut stage II becomes IIAm1",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageII },
			domain.GroupPOLEmut, "IIAm1", true, PrognosisFavorable,
		},
		{
			"MMRd stage II defaults to IIA",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageII },
			domain.GroupMMRd, "IIA", true, PrognosisIntermediate,
		},
		{
			"advanced p53abn keeps stage with m2 modifier",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageIIIC1 },
			domain.GroupP53abn, "IIIC1m2", true, PrognosisAggressive,
		},
		{
			"advanced POLEmut keeps stage with m1 modifier",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageIVA },
			domain.GroupPOLEmut, "IVAm1", true, PrognosisFavorable,
		},
		{
			"advanced NSMP unchanged",
			func(p *domain.BiomarkerPanel) { p.Stage = domain.StageIVB },
			domain.GroupNSMP, "IVB", false, PrognosisIntermediate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panel := testPanel(tt.mutate)
			staging := stager.DetermineStage(panel, tt.group)

			assert.Equal(t, panel.Stage, staging.AnatomicalStage)
			assert.Equal(t, tt.stage, staging.MolecularStage)
			assert.Equal(t, tt.changed, staging.Changed)
			assert.Equal(t, tt.impact, staging.PrognosisImpact)
			if tt.changed {
				assert.NotEmpty(t, staging.ClinicalImplications)
			}
		})
	}
}
