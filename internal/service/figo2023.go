package service

import (
	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// Prognosis impact labels for FIGO 2023 molecular staging.
const (
	PrognosisFavorable    = "FAVORABLE"
	PrognosisIntermediate = "INTERMEDIATE"
	PrognosisAggressive   = "AGGRESSIVE"
)

// FIGO2023Stager derives the molecular-integrated FIGO 2023 stage. The
// 2023 revision incorporates molecular classification directly: POLEmut
// disease carries an "m1" modifier with favorable prognosis, while p53abn
// and aggressive histotypes upstage early disease.
type FIGO2023Stager struct {
	logger *logrus.Logger
}

// NewFIGO2023Stager creates a stager.
func NewFIGO2023Stager(logger *logrus.Logger) *FIGO2023Stager {
	if logger == nil {
		logger = logrus.New()
	}
	return &FIGO2023Stager{logger: logger}
}

// DetermineStage maps an anatomical stage and molecular group to the FIGO
// 2023 stage.
func (s *FIGO2023Stager) DetermineStage(panel *domain.BiomarkerPanel, group domain.MolecularGroup) domain.FIGO2023Staging {
	anatomical := panel.Stage
	base := string(anatomical)
	modifier := ""
	impact := PrognosisIntermediate
	var implications []string

	switch anatomical.StageGroup() {
	case "I":
		switch {
		case group == domain.GroupP53abn:
			base = "IC"
			modifier = "m2"
			impact = PrognosisAggressive
			implications = append(implications,
				"p53abn molecular class upstages early disease to IC under FIGO 2023",
				"Manage as high-risk disease regardless of depth of invasion")
		case panel.Histology.IsAggressive():
			base = "IC"
			impact = PrognosisAggressive
			implications = append(implications,
				"Aggressive histotype upstages stage I disease to IC under FIGO 2023")
		case group == domain.GroupPOLEmut:
			modifier = "m1"
			impact = PrognosisFavorable
			implications = append(implications,
				"POLEmut molecular class carries the favorable m1 modifier",
				"Consider de-escalation of adjuvant therapy")
		}
	case "II":
		switch {
		case group == domain.GroupP53abn:
			base = "IIC"
			modifier = "m2"
			impact = PrognosisAggressive
			implications = append(implications,
				"p53abn molecular class assigns stage II disease to IIC under FIGO 2023")
		case panel.Histology.IsAggressive():
			base = "IIC"
			impact = PrognosisAggressive
			implications = append(implications,
				"Aggressive histotype assigns stage II disease to IIC under FIGO 2023")
		case panel.LVSI == domain.LVSISubstantial:
			base = "IIB"
			implications = append(implications,
				"Substantial LVSI assigns stage II disease to IIB under FIGO 2023")
		case group == domain.GroupPOLEmut:
			base = "IIA"
			modifier = "m1"
			impact = PrognosisFavorable
			implications = append(implications,
				"POLEmut molecular class carries the favorable m1 modifier")
		default:
			base = "IIA"
			implications = append(implications,
				"FIGO 2023 subdivides stage II; IIA applies absent substantial LVSI or aggressive features")
		}
	default:
		// Advanced disease keeps its anatomical stage; the molecular
		// modifier still annotates prognosis.
		switch group {
		case domain.GroupPOLEmut:
			modifier = "m1"
			impact = PrognosisFavorable
			implications = append(implications,
				"POLEmut retains favorable prognosis even in advanced disease")
		case domain.GroupP53abn:
			modifier = "m2"
			impact = PrognosisAggressive
			implications = append(implications,
				"p53abn in advanced disease predicts the highest recurrence risk")
		}
	}

	staging := domain.FIGO2023Staging{
		AnatomicalStage:      anatomical,
		MolecularStage:       base + modifier,
		StageModifier:        modifier,
		Changed:              base+modifier != string(anatomical),
		PrognosisImpact:      impact,
		ClinicalImplications: implications,
	}

	if staging.Changed {
		s.logger.WithFields(logrus.Fields{
			"anatomical_stage": string(anatomical),
			"figo_2023_stage":  staging.MolecularStage,
			"molecular_group":  string(group),
		}).Info("FIGO 2023 molecular staging differs from anatomical stage")
	}
	return staging
}
