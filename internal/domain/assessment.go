package domain

import (
	"time"

	"github.com/google/uuid"
)

// MolecularClassification is the outcome of applying the hierarchical
// TCGA/ProMisE rules to a biomarker panel.
type MolecularClassification struct {
	Group      MolecularGroup `json:"molecular_group"`
	Subtype    string         `json:"subtype"`
	Confidence float64        `json:"confidence"`
	Rationale  []string       `json:"rationale"`
	// Ambiguous is set when all three primary markers are untested and the
	// NSMP assignment is a default rather than a confirmed finding.
	Ambiguous            bool   `json:"ambiguous,omitempty"`
	ClinicalSignificance string `json:"clinical_significance,omitempty"`
}

// RiskAssessment reconciles the model-based recurrence probability with the
// stage-based baseline estimate.
type RiskAssessment struct {
	RecurrenceProbability float64      `json:"recurrence_probability"`
	RiskCategory          RiskCategory `json:"risk_category"`
	StageBasedRisk        float64      `json:"stage_based_risk"`
	StageBasedCategory    RiskCategory `json:"stage_based_category"`
	RiskDifference        float64      `json:"risk_difference"`
	Reclassified          bool         `json:"reclassified"`
	RiskPercentile        int          `json:"risk_percentile"`
	ModelVersion          string       `json:"model_version"`
	AssessmentDate        time.Time    `json:"assessment_date"`
}

// FIGO2023Staging is the molecular-integrated FIGO 2023 stage, which may
// differ from the anatomical stage when molecular findings upstage or
// downstage the tumor.
type FIGO2023Staging struct {
	AnatomicalStage      FIGOStage `json:"anatomical_stage"`
	MolecularStage       string    `json:"figo_2023_stage"`
	StageModifier        string    `json:"stage_modifier,omitempty"`
	Changed              bool      `json:"changed"`
	PrognosisImpact      string    `json:"prognosis_impact"`
	ClinicalImplications []string  `json:"clinical_implications,omitempty"`
}

// FeatureContribution is one feature's SHAP-style additive contribution to
// the predicted recurrence probability.
type FeatureContribution struct {
	Feature        string  `json:"feature"`
	DisplayName    string  `json:"display_name"`
	Value          string  `json:"value"`
	Contribution   float64 `json:"contribution"`
	Direction      string  `json:"direction"` // "risk" or "protective"
	Color          string  `json:"color"`
	ImportanceRank int     `json:"importance_rank"`
}

// FeatureInteraction captures a clinically established interaction between
// two features that amplifies risk beyond their individual contributions.
type FeatureInteraction struct {
	Features       [2]string `json:"features"`
	Strength       float64   `json:"strength"`
	Interpretation string    `json:"interpretation"`
}

// RiskExplanation is the full explanation of one prediction.
type RiskExplanation struct {
	Probability   float64               `json:"probability"`
	BaseValue     float64               `json:"base_value"`
	Contributions []FeatureContribution `json:"contributions"`
	Interactions  []FeatureInteraction  `json:"interactions,omitempty"`
	Summary       string                `json:"summary"`
	ModelVersion  string                `json:"model_version"`
}

// EvidenceItem is one literature or trial citation supporting a
// recommendation.
type EvidenceItem struct {
	Source   string `json:"source"`
	Finding  string `json:"finding"`
	Strength string `json:"strength"` // "Level 1", "Level 2", "Level 3"
}

// ClinicalTrial references an actively recruiting or reported trial
// relevant to the molecular group.
type ClinicalTrial struct {
	Name        string `json:"name"`
	Identifier  string `json:"identifier,omitempty"`
	Description string `json:"description"`
}

// Alert is an actionable clinical warning attached to a recommendation.
type Alert struct {
	Severity string `json:"severity"` // "info", "warning", "critical"
	Message  string `json:"message"`
}

// TreatmentRecommendation summarizes adjuvant therapy guidance for the
// assigned molecular group and risk level.
type TreatmentRecommendation struct {
	MolecularGroup  MolecularGroup  `json:"molecular_group"`
	Headline        string          `json:"headline"`
	AdjuvantTherapy string          `json:"adjuvant_therapy"`
	Surveillance    string          `json:"surveillance"`
	Evidence        []EvidenceItem  `json:"evidence,omitempty"`
	Trials          []ClinicalTrial `json:"trials,omitempty"`
	Alerts          []Alert         `json:"alerts,omitempty"`
}

// AssessmentRecord is the persisted form of a completed assessment for
// audit and retrieval.
type AssessmentRecord struct {
	ID                    uuid.UUID      `json:"id"`
	Panel                 BiomarkerPanel `json:"panel"`
	MolecularGroup        MolecularGroup `json:"molecular_group"`
	Subtype               string         `json:"subtype"`
	Confidence            float64        `json:"confidence"`
	RecurrenceProbability float64        `json:"recurrence_probability"`
	RiskCategory          RiskCategory   `json:"risk_category"`
	StageBasedRisk        float64        `json:"stage_based_risk"`
	RiskDifference        float64        `json:"risk_difference"`
	Reclassified          bool           `json:"reclassified"`
	RiskPercentile        int            `json:"risk_percentile"`
	FIGO2023Stage         string         `json:"figo_2023_stage"`
	ModelVersion          string         `json:"model_version"`
	RequestID             string         `json:"request_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}
