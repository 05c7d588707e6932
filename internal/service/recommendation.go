package service

import (
	"github.com/endorisk-server/internal/domain"
)

// RecommendationEngine maps the molecular group and reconciled risk to
// adjuvant therapy guidance with supporting evidence. Output is decision
// support for a treating clinician, never a treatment order.
type RecommendationEngine struct{}

// NewRecommendationEngine creates a recommendation engine.
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Recommend builds the treatment recommendation for a completed
// classification and risk assessment.
func (e *RecommendationEngine) Recommend(
	classification *domain.MolecularClassification,
	risk *domain.RiskAssessment,
) *domain.TreatmentRecommendation {
	switch classification.Group {
	case domain.GroupPOLEmut:
		return e.recommendPOLEmut()
	case domain.GroupMMRd:
		return e.recommendMMRd()
	case domain.GroupP53abn:
		return e.recommendP53abn(risk)
	default:
		return e.recommendNSMP(classification, risk)
	}
}

func (e *RecommendationEngine) recommendPOLEmut() *domain.TreatmentRecommendation {
	return &domain.TreatmentRecommendation{
		MolecularGroup:  domain.GroupPOLEmut,
		Headline:        "Consider de-escalation of adjuvant therapy",
		AdjuvantTherapy: "Omission of adjuvant therapy is reasonable in stage I-II disease given excellent outcomes; discuss within a molecular tumor board",
		Surveillance:    "Standard surveillance; recurrence is rare and salvage outcomes are favorable",
		Evidence: []domain.EvidenceItem{
			{
				Source:   "PORTEC-3 molecular analysis",
				Finding:  "100% recurrence-free survival in POLEmut patients regardless of treatment arm",
				Strength: "Level 1",
			},
		},
		Trials: []domain.ClinicalTrial{
			{
				Name:        "RAINBO POLEmut-BLUE",
				Description: "De-escalation trial omitting adjuvant therapy in POLEmut endometrial cancer",
			},
		},
	}
}

func (e *RecommendationEngine) recommendMMRd() *domain.TreatmentRecommendation {
	return &domain.TreatmentRecommendation{
		MolecularGroup:  domain.GroupMMRd,
		Headline:        "Candidate for immune checkpoint inhibition; screen for Lynch syndrome",
		AdjuvantTherapy: "Radiotherapy per stage-based risk; immune checkpoint inhibitors are active in advanced or recurrent MMRd disease",
		Surveillance:    "Standard surveillance plus germline evaluation",
		Evidence: []domain.EvidenceItem{
			{
				Source:   "KEYNOTE-158",
				Finding:  "Objective response rate 57.1% with pembrolizumab in MSI-H/dMMR endometrial cancer",
				Strength: "Level 2",
			},
			{
				Source:   "GARNET",
				Finding:  "Objective response rate 42.3% with dostarlimab in dMMR endometrial cancer",
				Strength: "Level 2",
			},
		},
		Trials: []domain.ClinicalTrial{
			{
				Name:        "RAINBO MMRd-GREEN",
				Description: "Adjuvant radiotherapy with or without durvalumab in MMRd endometrial cancer",
			},
		},
		Alerts: []domain.Alert{
			{
				Severity: "warning",
				Message:  "MMR deficiency may indicate Lynch syndrome; germline testing and family counseling are indicated",
			},
		},
	}
}

func (e *RecommendationEngine) recommendP53abn(risk *domain.RiskAssessment) *domain.TreatmentRecommendation {
	rec := &domain.TreatmentRecommendation{
		MolecularGroup:  domain.GroupP53abn,
		Headline:        "Adjuvant chemoradiation should be considered regardless of stage",
		AdjuvantTherapy: "Combined chemoradiation; p53abn disease derives the largest benefit from the addition of chemotherapy to radiotherapy",
		Surveillance:    "Intensified surveillance; distant recurrence predominates in this group",
		Evidence: []domain.EvidenceItem{
			{
				Source:   "PORTEC-3 molecular analysis",
				Finding:  "Chemoradiation improved 10-year overall survival in p53abn disease (HR 0.52, p=0.021)",
				Strength: "Level 1",
			},
		},
		Trials: []domain.ClinicalTrial{
			{
				Name:        "RAINBO p53abn-RED",
				Description: "Chemoradiation with or without olaparib in p53abn endometrial cancer",
			},
		},
	}

	if risk != nil && risk.Reclassified && risk.RiskDifference > 0 {
		rec.Alerts = append(rec.Alerts, domain.Alert{
			Severity: "critical",
			Message:  "Molecular profile indicates substantially higher recurrence risk than anatomical stage suggests; stage-based de-escalation is not appropriate",
		})
	}
	return rec
}

func (e *RecommendationEngine) recommendNSMP(
	classification *domain.MolecularClassification,
	risk *domain.RiskAssessment,
) *domain.TreatmentRecommendation {
	rec := &domain.TreatmentRecommendation{
		MolecularGroup: domain.GroupNSMP,
		Surveillance:   "Standard surveillance adjusted to final risk category",
		Trials: []domain.ClinicalTrial{
			{
				Name:        "RAINBO NSMP-ORANGE",
				Description: "Progestin-based de-escalation versus radiotherapy in NSMP endometrial cancer",
			},
		},
	}

	switch {
	case classification.Subtype == "NSMP-L1CAM-positive":
		rec.Headline = "L1CAM-positive NSMP: treat per high-intermediate risk"
		rec.AdjuvantTherapy = "External beam radiotherapy; consider chemotherapy for additional risk factors"
		rec.Evidence = []domain.EvidenceItem{
			{
				Source:   "Bosse et al. 2018 pooled PORTEC analysis",
				Finding:  "L1CAM overexpression independently predicts recurrence (HR 2.5, p=0.002)",
				Strength: "Level 2",
			},
		}
	case risk != nil && risk.RiskCategory == domain.RiskHigh:
		rec.Headline = "High-risk NSMP: adjuvant therapy recommended"
		rec.AdjuvantTherapy = "External beam radiotherapy with consideration of chemotherapy"
	case risk != nil && risk.RiskCategory == domain.RiskLow:
		rec.Headline = "Low-risk NSMP: observation is appropriate"
		rec.AdjuvantTherapy = "No adjuvant therapy; vaginal brachytherapy only for selected intermediate-risk features"
	default:
		rec.Headline = "Intermediate-risk NSMP: individualize adjuvant therapy"
		rec.AdjuvantTherapy = "Vaginal brachytherapy; escalate to external beam radiotherapy for adverse features"
	}

	if classification.Ambiguous {
		rec.Alerts = append(rec.Alerts, domain.Alert{
			Severity: "warning",
			Message:  "NSMP assigned without any primary molecular testing; complete the molecular panel before finalizing adjuvant therapy",
		})
	}
	return rec
}
