// Package service implements the clinical assessment pipeline: molecular
// classification, stage-based risk estimation, model/stage reconciliation,
// FIGO 2023 molecular staging and treatment recommendations.
package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// Classification confidence model. Dominant-group assignments start high
// and lose confidence for each untested marker that could have taken
// precedence. NSMP is a diagnosis of exclusion, so untested primary markers
// cost more there.
const (
	dominantBaseConfidence  = 0.95
	dominantUntestedPenalty = 0.10
	nsmpBaseConfidence      = 0.80
	nsmpPrimaryPenalty      = 0.15
	nsmpSecondaryPenalty    = 0.05
	minConfidence           = 0.35
)

// MolecularClassifier assigns the TCGA/ProMisE molecular group using the
// hierarchical precedence POLE > MMR > p53 > NSMP. Classification is total:
// every valid panel receives exactly one group.
type MolecularClassifier struct {
	logger *logrus.Logger
}

// NewMolecularClassifier creates a classifier.
func NewMolecularClassifier(logger *logrus.Logger) *MolecularClassifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &MolecularClassifier{logger: logger}
}

// Classify applies the hierarchical rules to a normalized panel. An
// untested primary marker falls through to the next rule; it is never
// treated as a negative finding, and the resulting confidence reflects
// what could not be ruled out.
func (c *MolecularClassifier) Classify(panel *domain.BiomarkerPanel) domain.MolecularClassification {
	var result domain.MolecularClassification

	switch {
	case panel.POLE == domain.POLEMutated:
		result = c.classifyPOLEmut(panel)
	case panel.MMR == domain.MMRDeficient:
		result = c.classifyMMRd(panel)
	case panel.P53 == domain.P53Abnormal:
		result = c.classifyP53abn(panel)
	default:
		result = c.classifyNSMP(panel)
	}

	entry := c.logger.WithFields(logrus.Fields{
		"molecular_group": string(result.Group),
		"subtype":         result.Subtype,
		"confidence":      result.Confidence,
	})
	if result.Ambiguous {
		entry.Warn("Molecular classification is ambiguous: no primary marker tested")
	} else {
		entry.Debug("Molecular classification assigned")
	}
	return result
}

func (c *MolecularClassifier) classifyPOLEmut(panel *domain.BiomarkerPanel) domain.MolecularClassification {
	rationale := []string{
		"POLE exonuclease domain mutation detected; POLEmut takes precedence over all other molecular findings",
	}
	if panel.MMR == domain.MMRDeficient {
		rationale = append(rationale, "MMR deficiency present but superseded by POLE mutation")
	}
	if panel.P53 == domain.P53Abnormal {
		rationale = append(rationale, "p53 abnormality present but superseded by POLE mutation")
	}

	return domain.MolecularClassification{
		Group:                domain.GroupPOLEmut,
		Subtype:              "POLEmut",
		Confidence:           dominantBaseConfidence,
		Rationale:            rationale,
		ClinicalSignificance: "Excellent prognosis regardless of grade or histotype; candidate for de-escalation of adjuvant therapy",
	}
}

func (c *MolecularClassifier) classifyMMRd(panel *domain.BiomarkerPanel) domain.MolecularClassification {
	confidence := dominantBaseConfidence
	rationale := []string{"Mismatch repair deficiency detected by IHC"}

	if panel.POLE == domain.POLENotTested {
		confidence -= dominantUntestedPenalty
		rationale = append(rationale,
			"POLE not tested; an undetected POLE mutation would take precedence over MMRd")
	}
	if panel.P53 == domain.P53Abnormal {
		rationale = append(rationale,
			"p53 abnormality present but superseded by MMR deficiency (likely secondary TP53 event)")
	}

	subtype := "MMRd-unspecified protein"
	if panel.MMRProteinLost != "" {
		subtype = fmt.Sprintf("MMRd-%s", panel.MMRProteinLost)
		rationale = append(rationale, fmt.Sprintf("Loss of %s expression", panel.MMRProteinLost))
	} else {
		rationale = append(rationale, "Deficient protein not specified")
	}

	return domain.MolecularClassification{
		Group:                domain.GroupMMRd,
		Subtype:              subtype,
		Confidence:           confidence,
		Rationale:            rationale,
		ClinicalSignificance: "Intermediate prognosis; candidate for immune checkpoint inhibition; refer for Lynch syndrome screening",
	}
}

func (c *MolecularClassifier) classifyP53abn(panel *domain.BiomarkerPanel) domain.MolecularClassification {
	confidence := dominantBaseConfidence
	rationale := []string{"Abnormal p53 expression pattern by IHC"}

	if panel.POLE == domain.POLENotTested {
		confidence -= dominantUntestedPenalty
		rationale = append(rationale,
			"POLE not tested; an undetected POLE mutation would take precedence over p53abn")
	}
	if panel.MMR == domain.MMRNotTested {
		confidence -= dominantUntestedPenalty
		rationale = append(rationale,
			"MMR not tested; undetected MMR deficiency would take precedence over p53abn")
	}

	subtype := "p53abn-unspecified"
	switch panel.P53Pattern {
	case domain.PatternNull:
		subtype = "p53abn-Null"
		rationale = append(rationale, "Null pattern: complete absence of p53 staining")
	case domain.PatternMissense:
		subtype = "p53abn-Missense"
		rationale = append(rationale, "Missense pattern: strong diffuse overexpression")
	default:
		rationale = append(rationale, "Abnormality pattern not specified")
	}

	return domain.MolecularClassification{
		Group:                domain.GroupP53abn,
		Subtype:              subtype,
		Confidence:           confidence,
		Rationale:            rationale,
		ClinicalSignificance: "Poorest prognosis of the four groups; adjuvant chemoradiation should be considered even in early-stage disease",
	}
}

func (c *MolecularClassifier) classifyNSMP(panel *domain.BiomarkerPanel) domain.MolecularClassification {
	confidence := nsmpBaseConfidence
	untested := panel.UntestedPrimaryMarkers()
	ambiguous := len(untested) == 3

	var rationale []string
	if ambiguous {
		rationale = append(rationale,
			"No primary molecular marker tested; NSMP assigned by exclusion only and should be confirmed with molecular testing")
	} else {
		rationale = append(rationale, "No POLE mutation, MMR deficiency or p53 abnormality identified")
	}
	for _, marker := range untested {
		confidence -= nsmpPrimaryPenalty
		if !ambiguous {
			rationale = append(rationale,
				fmt.Sprintf("%s not tested; a positive finding would reassign the molecular group", marker))
		}
	}

	// Secondary markers refine NSMP prognosis; CTNNB1 takes priority.
	subtype := "NSMP-favorable"
	significance := "Generally favorable prognosis with confirmed negative secondary markers"
	switch {
	case panel.CTNNB1 == domain.CTNNB1Mutated:
		subtype = "NSMP-CTNNB1mut"
		significance = "CTNNB1 exon 3 mutation confers increased recurrence risk in low-stage disease"
		rationale = append(rationale, "CTNNB1 mutation present")
	case panel.L1CAM == domain.L1CAMPositive:
		subtype = "NSMP-L1CAM-positive"
		significance = "L1CAM overexpression marks an aggressive NSMP subset with elevated recurrence risk"
		rationale = append(rationale, "L1CAM expression above the 10% positivity cutoff")
	}

	if panel.CTNNB1 == domain.CTNNB1NotTested {
		confidence -= nsmpSecondaryPenalty
		rationale = append(rationale, "CTNNB1 not tested; NSMP subtype may be incomplete")
	}
	if panel.L1CAM == domain.L1CAMNotTested {
		confidence -= nsmpSecondaryPenalty
		rationale = append(rationale, "L1CAM not tested; NSMP subtype may be incomplete")
	}

	if confidence < minConfidence {
		confidence = minConfidence
	}

	return domain.MolecularClassification{
		Group:                domain.GroupNSMP,
		Subtype:              subtype,
		Confidence:           confidence,
		Rationale:            rationale,
		Ambiguous:            ambiguous,
		ClinicalSignificance: significance,
	}
}
