// Package domain contains core business entities and types for endometrial
// cancer recurrence risk assessment based on the TCGA/ProMisE molecular
// classification (POLEmut, MMRd, NSMP, p53abn).
//
// Reference: Kandoth et al. (2013) Integrated genomic characterization of
// endometrial carcinoma. Nature 497:67-73. doi: 10.1038/nature12113
package domain

import (
	"errors"
	"fmt"
	"math"
)

// MolecularGroup represents the TCGA/ProMisE molecular classification group.
// Every assessment assigns exactly one of the four canonical groups; there is
// no "unknown" group, co-occurring markers are resolved by precedence.
type MolecularGroup string

const (
	GroupPOLEmut MolecularGroup = "POLEmut"
	GroupMMRd    MolecularGroup = "MMRd"
	GroupNSMP    MolecularGroup = "NSMP"
	GroupP53abn  MolecularGroup = "p53abn"
)

// RiskCategory represents the 5-year recurrence risk category.
type RiskCategory string

const (
	RiskLow          RiskCategory = "LOW"
	RiskIntermediate RiskCategory = "INTERMEDIATE"
	RiskHigh         RiskCategory = "HIGH"
)

// Risk category thresholds. Applied identically to stage-based and
// model-based probabilities when deciding whether reclassification occurred.
const (
	LowRiskThreshold  = 0.15
	HighRiskThreshold = 0.40
)

// FIGOStage represents anatomical FIGO staging for endometrial cancer.
type FIGOStage string

const (
	StageIA    FIGOStage = "IA"
	StageIB    FIGOStage = "IB"
	StageII    FIGOStage = "II"
	StageIIIA  FIGOStage = "IIIA"
	StageIIIB  FIGOStage = "IIIB"
	StageIIIC1 FIGOStage = "IIIC1"
	StageIIIC2 FIGOStage = "IIIC2"
	StageIVA   FIGOStage = "IVA"
	StageIVB   FIGOStage = "IVB"
)

// Histology represents the histological tumor type.
type Histology string

const (
	HistologyEndometrioid   Histology = "Endometrioid"
	HistologySerous         Histology = "Serous"
	HistologyClearCell      Histology = "Clear Cell"
	HistologyCarcinosarcoma Histology = "Carcinosarcoma"
	HistologyMixed          Histology = "Mixed"
	HistologyOther          Histology = "Other"
)

// Grade represents tumor differentiation grade.
type Grade string

const (
	GradeG1 Grade = "G1"
	GradeG2 Grade = "G2"
	GradeG3 Grade = "G3"
)

// MyometrialInvasion represents depth of invasion into the uterine muscle.
type MyometrialInvasion string

const (
	InvasionLessThanHalf MyometrialInvasion = "<50%"
	InvasionHalfOrMore   MyometrialInvasion = ">=50%"
)

// LVSIStatus represents lymphovascular space invasion.
type LVSIStatus string

const (
	LVSINone        LVSIStatus = "None"
	LVSIFocal       LVSIStatus = "Focal"
	LVSISubstantial LVSIStatus = "Substantial"
)

// LymphNodeStatus represents lymph node involvement.
type LymphNodeStatus string

const (
	NodesNegative   LymphNodeStatus = "Negative"
	NodesPelvic     LymphNodeStatus = "Pelvic+"
	NodesParaAortic LymphNodeStatus = "Para-aortic+"
)

// POLEStatus represents POLE exonuclease domain mutation status.
// "Not Tested" is a first-class value distinct from Wild-type.
type POLEStatus string

const (
	POLEMutated   POLEStatus = "Mutated"
	POLEWildType  POLEStatus = "Wild-type"
	POLENotTested POLEStatus = "Not Tested"
)

// MMRStatus represents mismatch repair protein status by IHC.
type MMRStatus string

const (
	MMRProficient MMRStatus = "Proficient"
	MMRDeficient  MMRStatus = "Deficient"
	MMRNotTested  MMRStatus = "Not Tested"
)

// MMRProtein identifies which mismatch repair protein is lost.
type MMRProtein string

const (
	ProteinMLH1 MMRProtein = "MLH1"
	ProteinMSH2 MMRProtein = "MSH2"
	ProteinMSH6 MMRProtein = "MSH6"
	ProteinPMS2 MMRProtein = "PMS2"
)

// P53Status represents p53 immunohistochemistry status.
type P53Status string

const (
	P53WildType  P53Status = "Wild-type"
	P53Abnormal  P53Status = "Abnormal"
	P53NotTested P53Status = "Not Tested"
)

// P53Pattern identifies the pattern of p53 abnormality on IHC.
type P53Pattern string

const (
	PatternNull     P53Pattern = "Null"
	PatternMissense P53Pattern = "Missense"
)

// L1CAMStatus represents L1CAM expression (>10% cutoff).
type L1CAMStatus string

const (
	L1CAMPositive  L1CAMStatus = "Positive"
	L1CAMNegative  L1CAMStatus = "Negative"
	L1CAMNotTested L1CAMStatus = "Not Tested"
)

// CTNNB1Status represents CTNNB1 (beta-catenin) mutation status.
type CTNNB1Status string

const (
	CTNNB1Mutated   CTNNB1Status = "Mutated"
	CTNNB1WildType  CTNNB1Status = "Wild-type"
	CTNNB1NotTested CTNNB1Status = "Not Tested"
)

// Validation errors for clinical data integrity
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidMolecularGroup = errors.New("invalid molecular group")
	ErrInvalidRiskCategory   = errors.New("invalid risk category")
	ErrInvalidStage          = errors.New("invalid FIGO stage")
	ErrModelUnavailable      = errors.New("recurrence model unavailable")
)

// RiskCategoryFor converts a recurrence probability to its risk category.
// LOW < 0.15 <= INTERMEDIATE < 0.40 <= HIGH.
func RiskCategoryFor(probability float64) RiskCategory {
	switch {
	case probability < LowRiskThreshold:
		return RiskLow
	case probability < HighRiskThreshold:
		return RiskIntermediate
	default:
		return RiskHigh
	}
}

// IsValid validates that the molecular group is one of the four TCGA groups.
func (g MolecularGroup) IsValid() bool {
	switch g {
	case GroupPOLEmut, GroupMMRd, GroupNSMP, GroupP53abn:
		return true
	default:
		return false
	}
}

// String returns the string representation of the molecular group.
func (g MolecularGroup) String() string {
	return string(g)
}

// Prognosis returns a short prognosis descriptor for the molecular group,
// used in clinical reporting.
func (g MolecularGroup) Prognosis() string {
	switch g {
	case GroupPOLEmut:
		return "Excellent (5-year RFS >95%)"
	case GroupMMRd:
		return "Intermediate (5-year RFS ~85-90%)"
	case GroupNSMP:
		return "Variable (depends on L1CAM/CTNNB1)"
	case GroupP53abn:
		return "Poor (5-year RFS ~50-60%)"
	default:
		return "Unknown"
	}
}

// LogFields returns structured logging fields for audit trails.
func (g MolecularGroup) LogFields() map[string]any {
	return map[string]any{
		"molecular_group": string(g),
		"prognosis":       g.Prognosis(),
		"is_valid":        g.IsValid(),
	}
}

// IsValid validates the risk category.
func (rc RiskCategory) IsValid() bool {
	switch rc {
	case RiskLow, RiskIntermediate, RiskHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk category.
func (rc RiskCategory) String() string {
	return string(rc)
}

// IsValid validates the FIGO stage.
func (s FIGOStage) IsValid() bool {
	switch s {
	case StageIA, StageIB, StageII, StageIIIA, StageIIIB, StageIIIC1, StageIIIC2, StageIVA, StageIVB:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage.
func (s FIGOStage) String() string {
	return string(s)
}

// Rank returns the severity ordinal of the stage (IA=0 .. IVB=8).
// Used for monotonicity checks and feature encoding.
func (s FIGOStage) Rank() int {
	switch s {
	case StageIA:
		return 0
	case StageIB:
		return 1
	case StageII:
		return 2
	case StageIIIA:
		return 3
	case StageIIIB:
		return 4
	case StageIIIC1:
		return 5
	case StageIIIC2:
		return 6
	case StageIVA:
		return 7
	case StageIVB:
		return 8
	default:
		return -1
	}
}

// StageGroup returns the major stage group (I, II, III or IV).
func (s FIGOStage) StageGroup() string {
	switch s {
	case StageIA, StageIB:
		return "I"
	case StageII:
		return "II"
	case StageIIIA, StageIIIB, StageIIIC1, StageIIIC2:
		return "III"
	case StageIVA, StageIVB:
		return "IV"
	default:
		return ""
	}
}

// IsValid validates the histology type.
func (h Histology) IsValid() bool {
	switch h {
	case HistologyEndometrioid, HistologySerous, HistologyClearCell,
		HistologyCarcinosarcoma, HistologyMixed, HistologyOther:
		return true
	default:
		return false
	}
}

// IsAggressive reports whether the histotype is considered aggressive
// per FIGO 2023 (serous, clear cell, carcinosarcoma).
func (h Histology) IsAggressive() bool {
	switch h {
	case HistologySerous, HistologyClearCell, HistologyCarcinosarcoma:
		return true
	default:
		return false
	}
}

// IsValid validates the grade.
func (g Grade) IsValid() bool {
	switch g {
	case GradeG1, GradeG2, GradeG3:
		return true
	default:
		return false
	}
}

// Rank returns the grade ordinal (G1=0, G2=1, G3=2).
func (g Grade) Rank() int {
	switch g {
	case GradeG1:
		return 0
	case GradeG2:
		return 1
	case GradeG3:
		return 2
	default:
		return -1
	}
}

// IsValid validates the invasion depth.
func (mi MyometrialInvasion) IsValid() bool {
	switch mi {
	case InvasionLessThanHalf, InvasionHalfOrMore:
		return true
	default:
		return false
	}
}

// IsValid validates the LVSI status.
func (l LVSIStatus) IsValid() bool {
	switch l {
	case LVSINone, LVSIFocal, LVSISubstantial:
		return true
	default:
		return false
	}
}

// IsValid validates the lymph node status.
func (ln LymphNodeStatus) IsValid() bool {
	switch ln {
	case NodesNegative, NodesPelvic, NodesParaAortic:
		return true
	default:
		return false
	}
}

// IsValid validates the POLE status.
func (p POLEStatus) IsValid() bool {
	switch p {
	case POLEMutated, POLEWildType, POLENotTested:
		return true
	default:
		return false
	}
}

// IsValid validates the MMR status.
func (m MMRStatus) IsValid() bool {
	switch m {
	case MMRProficient, MMRDeficient, MMRNotTested:
		return true
	default:
		return false
	}
}

// IsValid validates the MMR protein identifier.
func (p MMRProtein) IsValid() bool {
	switch p {
	case ProteinMLH1, ProteinMSH2, ProteinMSH6, ProteinPMS2:
		return true
	default:
		return false
	}
}

// IsValid validates the p53 status.
func (p P53Status) IsValid() bool {
	switch p {
	case P53WildType, P53Abnormal, P53NotTested:
		return true
	default:
		return false
	}
}

// IsValid validates the p53 pattern.
func (p P53Pattern) IsValid() bool {
	switch p {
	case PatternNull, PatternMissense:
		return true
	default:
		return false
	}
}

// IsValid validates the L1CAM status.
func (l L1CAMStatus) IsValid() bool {
	switch l {
	case L1CAMPositive, L1CAMNegative, L1CAMNotTested:
		return true
	default:
		return false
	}
}

// IsValid validates the CTNNB1 status.
func (c CTNNB1Status) IsValid() bool {
	switch c {
	case CTNNB1Mutated, CTNNB1WildType, CTNNB1NotTested:
		return true
	default:
		return false
	}
}

// ValidProbability reports whether p is a usable probability for risk
// reconciliation: finite and within [0,1].
func ValidProbability(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0 && p <= 1
}

// ParseStage normalizes a string value into a FIGOStage.
func ParseStage(value string) (FIGOStage, error) {
	s := FIGOStage(value)
	if !s.IsValid() {
		return "", fmt.Errorf("parsing FIGO stage %q: %w", value, ErrInvalidStage)
	}
	return s, nil
}
