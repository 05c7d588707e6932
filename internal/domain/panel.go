package domain

import "fmt"

// Panel validation bounds.
const (
	MinPatientAge = 18
	MaxPatientAge = 110
	MinBMI        = 10.0
	MaxBMI        = 80.0
	MinECOG       = 0
	MaxECOG       = 4
)

// BiomarkerPanel is the complete clinical and molecular input for one
// assessment. Molecular markers default to "Not Tested" rather than
// negative; the classifier treats untested and negative differently.
type BiomarkerPanel struct {
	// Demographics
	Age      int     `json:"age"`
	BMI      float64 `json:"bmi"`
	ECOG     int     `json:"ecog_status"`
	Diabetes bool    `json:"diabetes"`

	// Clinicopathological
	Stage              FIGOStage          `json:"figo_stage"`
	Histology          Histology          `json:"histology"`
	Grade              Grade              `json:"grade"`
	MyometrialInvasion MyometrialInvasion `json:"myometrial_invasion"`
	LVSI               LVSIStatus         `json:"lvsi"`
	LymphNodes         LymphNodeStatus    `json:"lymph_nodes"`

	// Molecular markers (primary, in classification precedence order)
	POLE           POLEStatus `json:"pole_status"`
	MMR            MMRStatus  `json:"mmr_status"`
	MMRProteinLost MMRProtein `json:"mmr_protein_lost,omitempty"`
	P53            P53Status  `json:"p53_status"`
	P53Pattern     P53Pattern `json:"p53_pattern,omitempty"`

	// Molecular markers (secondary, NSMP refinement)
	L1CAM  L1CAMStatus  `json:"l1cam_status"`
	CTNNB1 CTNNB1Status `json:"ctnnb1_status"`

	// Optional hormone receptor expression (percent of cells)
	ERPercent *float64 `json:"er_percent,omitempty"`
	PRPercent *float64 `json:"pr_percent,omitempty"`
}

// Normalize fills empty molecular marker fields with "Not Tested" so that
// partially populated panels classify correctly instead of failing.
func (p *BiomarkerPanel) Normalize() {
	if p.POLE == "" {
		p.POLE = POLENotTested
	}
	if p.MMR == "" {
		p.MMR = MMRNotTested
	}
	if p.P53 == "" {
		p.P53 = P53NotTested
	}
	if p.L1CAM == "" {
		p.L1CAM = L1CAMNotTested
	}
	if p.CTNNB1 == "" {
		p.CTNNB1 = CTNNB1NotTested
	}
}

// Validate checks the panel for clinical plausibility and enum validity.
// It returns the first violation found as a *ValidationError.
func (p *BiomarkerPanel) Validate() error {
	if p.Age < MinPatientAge || p.Age > MaxPatientAge {
		return NewValidationError("age",
			fmt.Sprintf("age must be between %d and %d", MinPatientAge, MaxPatientAge), p.Age)
	}
	if p.BMI < MinBMI || p.BMI > MaxBMI {
		return NewValidationError("bmi",
			fmt.Sprintf("bmi must be between %.0f and %.0f", MinBMI, MaxBMI), p.BMI)
	}
	if p.ECOG < MinECOG || p.ECOG > MaxECOG {
		return NewValidationError("ecog_status", "ECOG performance status must be 0-4", p.ECOG)
	}
	if !p.Stage.IsValid() {
		return NewValidationError("figo_stage", "unrecognized FIGO stage", string(p.Stage))
	}
	if !p.Histology.IsValid() {
		return NewValidationError("histology", "unrecognized histology", string(p.Histology))
	}
	if !p.Grade.IsValid() {
		return NewValidationError("grade", "grade must be G1, G2 or G3", string(p.Grade))
	}
	if !p.MyometrialInvasion.IsValid() {
		return NewValidationError("myometrial_invasion", "invasion must be <50% or >=50%", string(p.MyometrialInvasion))
	}
	if !p.LVSI.IsValid() {
		return NewValidationError("lvsi", "LVSI must be None, Focal or Substantial", string(p.LVSI))
	}
	if !p.LymphNodes.IsValid() {
		return NewValidationError("lymph_nodes", "unrecognized lymph node status", string(p.LymphNodes))
	}
	if !p.POLE.IsValid() {
		return NewValidationError("pole_status", "unrecognized POLE status", string(p.POLE))
	}
	if !p.MMR.IsValid() {
		return NewValidationError("mmr_status", "unrecognized MMR status", string(p.MMR))
	}
	if p.MMRProteinLost != "" && !p.MMRProteinLost.IsValid() {
		return NewValidationError("mmr_protein_lost", "protein must be MLH1, MSH2, MSH6 or PMS2", string(p.MMRProteinLost))
	}
	if !p.P53.IsValid() {
		return NewValidationError("p53_status", "unrecognized p53 status", string(p.P53))
	}
	if p.P53Pattern != "" && !p.P53Pattern.IsValid() {
		return NewValidationError("p53_pattern", "pattern must be Null or Missense", string(p.P53Pattern))
	}
	if !p.L1CAM.IsValid() {
		return NewValidationError("l1cam_status", "unrecognized L1CAM status", string(p.L1CAM))
	}
	if !p.CTNNB1.IsValid() {
		return NewValidationError("ctnnb1_status", "unrecognized CTNNB1 status", string(p.CTNNB1))
	}
	if p.ERPercent != nil && (*p.ERPercent < 0 || *p.ERPercent > 100) {
		return NewValidationError("er_percent", "ER expression must be 0-100", *p.ERPercent)
	}
	if p.PRPercent != nil && (*p.PRPercent < 0 || *p.PRPercent > 100) {
		return NewValidationError("pr_percent", "PR expression must be 0-100", *p.PRPercent)
	}
	return nil
}

// UntestedPrimaryMarkers returns the primary molecular markers that were
// not tested, in classification precedence order (POLE, MMR, p53).
func (p *BiomarkerPanel) UntestedPrimaryMarkers() []string {
	var untested []string
	if p.POLE == POLENotTested {
		untested = append(untested, "POLE")
	}
	if p.MMR == MMRNotTested {
		untested = append(untested, "MMR")
	}
	if p.P53 == P53NotTested {
		untested = append(untested, "p53")
	}
	return untested
}

// LogFields returns structured logging fields describing the panel without
// any direct patient identifiers.
func (p *BiomarkerPanel) LogFields() map[string]any {
	return map[string]any{
		"figo_stage": string(p.Stage),
		"histology":  string(p.Histology),
		"grade":      string(p.Grade),
		"pole":       string(p.POLE),
		"mmr":        string(p.MMR),
		"p53":        string(p.P53),
		"l1cam":      string(p.L1CAM),
		"ctnnb1":     string(p.CTNNB1),
	}
}
