package services

import (
	"strconv"
	"strings"
)

var (
	categoryThreeKeywords = []string{"black", "sewage", "contaminated"}
	categoryTwoKeywords   = []string{"grey", "washing"}
)

// PreviewCategory derives an advisory water category ("1".."3") from the
// free-text water source.
func PreviewCategory(waterSource string) string {
	src := strings.ToLower(waterSource)
	for _, kw := range categoryThreeKeywords {
		if strings.Contains(src, kw) {
			return "3"
		}
	}
	for _, kw := range categoryTwoKeywords {
		if strings.Contains(src, kw) {
			return "2"
		}
	}
	return "1"
}

// PreviewClass derives an advisory water class ("1".."4") from the total
// affected area. Thresholds are exclusive, so exactly 200 is class 3.
func PreviewClass(totalArea float64) string {
	switch {
	case totalArea > 200:
		return "4"
	case totalArea > 100:
		return "3"
	case totalArea > 30:
		return "2"
	default:
		return "1"
	}
}

// Preview computes the advisory classification for a set of affected areas.
// The category is the most severe across all water sources. The result is
// always marked advisory and must never be stored as the classification of
// record.
func Preview(areas []AffectedArea) Classification {
	category := "1"
	for _, a := range areas {
		if c := PreviewCategory(a.WaterSource); c > category {
			category = c
		}
	}
	return Classification{
		Category: category,
		Class:    PreviewClass(TotalArea(areas)),
		Source:   ClassificationSourcePreview,
		Advisory: true,
	}
}

// ApplyOverride returns the technician override when one is set, filling any
// half left at zero from base.
func ApplyOverride(base Classification, o ClassificationOverride) Classification {
	if !o.IsSet() {
		return base
	}
	out := base
	if o.Category != 0 {
		out.Category = strconv.Itoa(o.Category)
	}
	if o.Class != 0 {
		out.Class = strconv.Itoa(o.Class)
	}
	out.Source = ClassificationSourceOverride
	out.Advisory = false
	return out
}

// ServiceClassification is the coarse service type detected in free text.
type ServiceClassification struct {
	ServiceType string `json:"serviceType"`
	Standard    string `json:"standard,omitempty"`
}

// serviceKeywords is checked in order; the first hit wins.
var serviceKeywords = []struct {
	keyword string
	class   ServiceClassification
}{
	{"water", ServiceClassification{"Water Damage", "S500"}},
	{"mould", ServiceClassification{"Mould Remediation", "S520"}},
	{"mold", ServiceClassification{"Mould Remediation", "S520"}},
	{"fire", ServiceClassification{"Fire & Smoke", "S700"}},
	{"smoke", ServiceClassification{"Fire & Smoke", "S700"}},
	{"bio", ServiceClassification{"Biohazard", "S540"}},
	{"crime", ServiceClassification{"Crime Scene", "S540"}},
}

// QuickClassify detects the service type of a technician report by keyword.
func QuickClassify(text string) ServiceClassification {
	lower := strings.ToLower(text)
	for _, sk := range serviceKeywords {
		if strings.Contains(lower, sk.keyword) {
			return sk.class
		}
	}
	return ServiceClassification{ServiceType: "General"}
}

// Analysis is the structured result of analysing a technician report.
type Analysis struct {
	ReportGrade       int      `json:"reportGrade"`
	ServiceType       string   `json:"serviceType"`
	Summary           string   `json:"summary"`
	Sections          []string `json:"sections"`
	Hazards           []string `json:"hazards"`
	DetectedStandards []string `json:"detectedStandards"`
	Questions         []string `json:"questions"`
}

// FallbackAnalysis is returned when no analysis service is available. It
// still carries the keyword classification so callers get a service type.
func FallbackAnalysis(text string) Analysis {
	qc := QuickClassify(text)
	a := Analysis{
		ReportGrade:       2,
		ServiceType:       qc.ServiceType,
		Summary:           "AI analysis unavailable - no analysis service configured",
		Sections:          []string{},
		Hazards:           []string{},
		DetectedStandards: []string{},
		Questions:         []string{},
	}
	if qc.Standard != "" {
		a.DetectedStandards = append(a.DetectedStandards, "IICRC "+qc.Standard)
	}
	return a
}

// Normalize fills the defaults a partial analysis document may be missing.
func (a *Analysis) Normalize() {
	if a.ReportGrade == 0 {
		a.ReportGrade = 2
	}
	if a.ServiceType == "" {
		a.ServiceType = "General"
	}
	if a.Sections == nil {
		a.Sections = []string{}
	}
	if a.Hazards == nil {
		a.Hazards = []string{}
	}
	if a.DetectedStandards == nil {
		a.DetectedStandards = []string{}
	}
	if a.Questions == nil {
		a.Questions = []string{}
	}
}
