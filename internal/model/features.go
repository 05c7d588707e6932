// Package model implements the gradient boosted recurrence predictor:
// feature encoding, tree ensemble scoring and per-feature explanation.
package model

import (
	"fmt"
	"math"

	"github.com/endorisk-server/internal/domain"
)

// EncodingVersion identifies the feature encoding scheme. A model artifact
// trained against a different encoding version must be rejected at load
// time; scoring a vector with mismatched semantics would produce silently
// wrong probabilities.
const EncodingVersion = "ec-features-v1"

// FeatureCount is the fixed length of every feature vector.
const FeatureCount = 16

// Feature indices in model training order. The order is part of the model
// contract and must never change within an encoding version.
const (
	idxMolecularGroup = iota
	idxP53
	idxPOLE
	idxLVSI
	idxL1CAM
	idxMyometrial
	idxGrade
	idxStage
	idxAge
	idxMMR
	idxCTNNB1
	idxHistology
	idxLymphNodes
	idxBMI
	idxECOG
	idxDiabetes
)

// NotTestedCode encodes an untested molecular marker. It is deliberately
// distinct from 0 (negative finding) so tree splits can branch on missing
// data.
const NotTestedCode = -1.0

// FeatureNames lists the features in model training order.
var FeatureNames = [FeatureCount]string{
	"molecular_group",
	"p53_status",
	"pole_status",
	"lvsi",
	"l1cam_status",
	"myometrial_invasion",
	"grade",
	"stage",
	"age",
	"mmr_status",
	"ctnnb1_status",
	"histology",
	"lymph_nodes",
	"bmi",
	"ecog_status",
	"diabetes",
}

// DisplayNames maps feature identifiers to clinician-facing labels.
var DisplayNames = map[string]string{
	"molecular_group":     "Molecular group",
	"p53_status":          "p53 status",
	"pole_status":         "POLE status",
	"lvsi":                "LVSI",
	"l1cam_status":        "L1CAM expression",
	"myometrial_invasion": "Myometrial invasion",
	"grade":               "Tumor grade",
	"stage":               "FIGO stage",
	"age":                 "Age",
	"mmr_status":          "MMR status",
	"ctnnb1_status":       "CTNNB1 status",
	"histology":           "Histology",
	"lymph_nodes":         "Lymph node status",
	"bmi":                 "BMI",
	"ecog_status":         "ECOG performance status",
	"diabetes":            "Diabetes",
}

var groupCodes = map[domain.MolecularGroup]float64{
	domain.GroupPOLEmut: 0,
	domain.GroupMMRd:    1,
	domain.GroupNSMP:    2,
	domain.GroupP53abn:  3,
}

var histologyCodes = map[domain.Histology]float64{
	domain.HistologyEndometrioid:   0,
	domain.HistologySerous:         1,
	domain.HistologyClearCell:      2,
	domain.HistologyCarcinosarcoma: 3,
	domain.HistologyMixed:          4,
	domain.HistologyOther:          5,
}

var lvsiCodes = map[domain.LVSIStatus]float64{
	domain.LVSINone:        0,
	domain.LVSIFocal:       1,
	domain.LVSISubstantial: 2,
}

var nodeCodes = map[domain.LymphNodeStatus]float64{
	domain.NodesNegative:   0,
	domain.NodesPelvic:     1,
	domain.NodesParaAortic: 2,
}

// Encode builds the fixed-order feature vector for a validated panel and
// its assigned molecular group. Untested markers encode as NotTestedCode,
// never as the negative value.
func Encode(panel *domain.BiomarkerPanel, group domain.MolecularGroup) ([]float64, error) {
	groupCode, ok := groupCodes[group]
	if !ok {
		return nil, fmt.Errorf("encoding panel: %w: %q", domain.ErrInvalidMolecularGroup, group)
	}

	vec := make([]float64, FeatureCount)
	vec[idxMolecularGroup] = groupCode
	vec[idxP53] = encodeP53(panel.P53)
	vec[idxPOLE] = encodePOLE(panel.POLE)
	vec[idxLVSI] = lvsiCodes[panel.LVSI]
	vec[idxL1CAM] = encodeL1CAM(panel.L1CAM)
	vec[idxMyometrial] = encodeInvasion(panel.MyometrialInvasion)
	vec[idxGrade] = float64(panel.Grade.Rank())
	vec[idxStage] = float64(panel.Stage.Rank())
	vec[idxAge] = float64(panel.Age)
	vec[idxMMR] = encodeMMR(panel.MMR)
	vec[idxCTNNB1] = encodeCTNNB1(panel.CTNNB1)
	vec[idxHistology] = histologyCodes[panel.Histology]
	vec[idxLymphNodes] = nodeCodes[panel.LymphNodes]
	vec[idxBMI] = panel.BMI
	vec[idxECOG] = float64(panel.ECOG)
	if panel.Diabetes {
		vec[idxDiabetes] = 1
	}
	return vec, nil
}

func encodeP53(s domain.P53Status) float64 {
	switch s {
	case domain.P53Abnormal:
		return 1
	case domain.P53WildType:
		return 0
	default:
		return NotTestedCode
	}
}

func encodePOLE(s domain.POLEStatus) float64 {
	switch s {
	case domain.POLEMutated:
		return 1
	case domain.POLEWildType:
		return 0
	default:
		return NotTestedCode
	}
}

func encodeMMR(s domain.MMRStatus) float64 {
	switch s {
	case domain.MMRDeficient:
		return 1
	case domain.MMRProficient:
		return 0
	default:
		return NotTestedCode
	}
}

func encodeL1CAM(s domain.L1CAMStatus) float64 {
	switch s {
	case domain.L1CAMPositive:
		return 1
	case domain.L1CAMNegative:
		return 0
	default:
		return NotTestedCode
	}
}

func encodeCTNNB1(s domain.CTNNB1Status) float64 {
	switch s {
	case domain.CTNNB1Mutated:
		return 1
	case domain.CTNNB1WildType:
		return 0
	default:
		return NotTestedCode
	}
}

func encodeInvasion(mi domain.MyometrialInvasion) float64 {
	if mi == domain.InvasionHalfOrMore {
		return 1
	}
	return 0
}

// DecodedFeatures is the categorical view of an encoded vector, used when
// rendering explanations back in clinical terms.
type DecodedFeatures struct {
	Group              domain.MolecularGroup
	P53                domain.P53Status
	POLE               domain.POLEStatus
	LVSI               domain.LVSIStatus
	L1CAM              domain.L1CAMStatus
	MyometrialInvasion domain.MyometrialInvasion
	Grade              domain.Grade
	Stage              domain.FIGOStage
	Age                int
	MMR                domain.MMRStatus
	CTNNB1             domain.CTNNB1Status
	Histology          domain.Histology
	LymphNodes         domain.LymphNodeStatus
	BMI                float64
	ECOG               int
	Diabetes           bool
}

// Decode reverses Encode. Encoding then decoding a valid panel restores
// every categorical value exactly; unknown codes are an error.
func Decode(vec []float64) (*DecodedFeatures, error) {
	if len(vec) != FeatureCount {
		return nil, fmt.Errorf("decoding features: expected %d values, got %d", FeatureCount, len(vec))
	}

	d := &DecodedFeatures{
		Age:      int(vec[idxAge]),
		BMI:      vec[idxBMI],
		ECOG:     int(vec[idxECOG]),
		Diabetes: vec[idxDiabetes] == 1,
	}

	var err error
	if d.Group, err = reverseLookup(groupCodes, vec[idxMolecularGroup], "molecular_group"); err != nil {
		return nil, err
	}
	if d.LVSI, err = reverseLookup(lvsiCodes, vec[idxLVSI], "lvsi"); err != nil {
		return nil, err
	}
	if d.Histology, err = reverseLookup(histologyCodes, vec[idxHistology], "histology"); err != nil {
		return nil, err
	}
	if d.LymphNodes, err = reverseLookup(nodeCodes, vec[idxLymphNodes], "lymph_nodes"); err != nil {
		return nil, err
	}

	if d.P53, err = decodeTernary(vec[idxP53], domain.P53WildType, domain.P53Abnormal, domain.P53NotTested, "p53_status"); err != nil {
		return nil, err
	}
	if d.POLE, err = decodeTernary(vec[idxPOLE], domain.POLEWildType, domain.POLEMutated, domain.POLENotTested, "pole_status"); err != nil {
		return nil, err
	}
	if d.MMR, err = decodeTernary(vec[idxMMR], domain.MMRProficient, domain.MMRDeficient, domain.MMRNotTested, "mmr_status"); err != nil {
		return nil, err
	}
	if d.L1CAM, err = decodeTernary(vec[idxL1CAM], domain.L1CAMNegative, domain.L1CAMPositive, domain.L1CAMNotTested, "l1cam_status"); err != nil {
		return nil, err
	}
	if d.CTNNB1, err = decodeTernary(vec[idxCTNNB1], domain.CTNNB1WildType, domain.CTNNB1Mutated, domain.CTNNB1NotTested, "ctnnb1_status"); err != nil {
		return nil, err
	}

	switch vec[idxMyometrial] {
	case 0:
		d.MyometrialInvasion = domain.InvasionLessThanHalf
	case 1:
		d.MyometrialInvasion = domain.InvasionHalfOrMore
	default:
		return nil, fmt.Errorf("decoding features: unknown myometrial_invasion code %v", vec[idxMyometrial])
	}

	switch int(vec[idxGrade]) {
	case 0:
		d.Grade = domain.GradeG1
	case 1:
		d.Grade = domain.GradeG2
	case 2:
		d.Grade = domain.GradeG3
	default:
		return nil, fmt.Errorf("decoding features: unknown grade code %v", vec[idxGrade])
	}

	d.Stage = stageForRank(int(vec[idxStage]))
	if d.Stage == "" {
		return nil, fmt.Errorf("decoding features: unknown stage code %v", vec[idxStage])
	}
	return d, nil
}

func reverseLookup[K comparable](codes map[K]float64, code float64, feature string) (K, error) {
	for k, v := range codes {
		if v == code {
			return k, nil
		}
	}
	var zero K
	return zero, fmt.Errorf("decoding features: unknown %s code %v", feature, code)
}

func decodeTernary[T ~string](code float64, negative, positive, untested T, feature string) (T, error) {
	switch code {
	case 0:
		return negative, nil
	case 1:
		return positive, nil
	case NotTestedCode:
		return untested, nil
	default:
		return "", fmt.Errorf("decoding features: unknown %s code %v", feature, code)
	}
}

func stageForRank(rank int) domain.FIGOStage {
	stages := []domain.FIGOStage{
		domain.StageIA, domain.StageIB, domain.StageII,
		domain.StageIIIA, domain.StageIIIB, domain.StageIIIC1,
		domain.StageIIIC2, domain.StageIVA, domain.StageIVB,
	}
	if rank < 0 || rank >= len(stages) {
		return ""
	}
	return stages[rank]
}

// DisplayValue renders one encoded feature value as a clinician-readable
// string.
func DisplayValue(decoded *DecodedFeatures, feature string) string {
	switch feature {
	case "molecular_group":
		return string(decoded.Group)
	case "p53_status":
		return string(decoded.P53)
	case "pole_status":
		return string(decoded.POLE)
	case "lvsi":
		return string(decoded.LVSI)
	case "l1cam_status":
		return string(decoded.L1CAM)
	case "myometrial_invasion":
		return string(decoded.MyometrialInvasion)
	case "grade":
		return string(decoded.Grade)
	case "stage":
		return string(decoded.Stage)
	case "age":
		return fmt.Sprintf("%d years", decoded.Age)
	case "mmr_status":
		return string(decoded.MMR)
	case "ctnnb1_status":
		return string(decoded.CTNNB1)
	case "histology":
		return string(decoded.Histology)
	case "lymph_nodes":
		return string(decoded.LymphNodes)
	case "bmi":
		return fmt.Sprintf("%.1f", decoded.BMI)
	case "ecog_status":
		return fmt.Sprintf("ECOG %d", decoded.ECOG)
	case "diabetes":
		if decoded.Diabetes {
			return "Yes"
		}
		return "No"
	default:
		return ""
	}
}

// ValidateVector checks a feature vector before scoring.
func ValidateVector(vec []float64) error {
	if len(vec) != FeatureCount {
		return fmt.Errorf("feature vector has %d values, expected %d", len(vec), FeatureCount)
	}
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feature %s is not finite", FeatureNames[i])
		}
	}
	return nil
}
