package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ReportHeader identifies a report.
type ReportHeader struct {
	ReportNumber string `json:"reportNumber"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	PreparedBy   string `json:"preparedBy"`
	Company      string `json:"company"`
}

// Validate implements validation.Validatable.
func (h ReportHeader) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.ReportNumber, validation.Required),
	)
}

// ReportProperty describes the inspected property.
type ReportProperty struct {
	Address      string `json:"address"`
	Postcode     string `json:"postcode"`
	PropertyType string `json:"propertyType"`
	ClientName   string `json:"clientName"`
	ClientPhone  string `json:"clientPhone"`
}

// Validate implements validation.Validatable.
func (p ReportProperty) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Address, validation.Required),
	)
}

// ReportIncident describes the loss event.
type ReportIncident struct {
	DateOfLoss  string `json:"dateOfLoss"`
	Cause       string `json:"cause"`
	WaterSource string `json:"waterSource"`
	Description string `json:"description"`
}

// IsEmpty reports whether no incident detail was recorded.
func (i ReportIncident) IsEmpty() bool {
	return i.DateOfLoss == "" && i.Cause == "" && i.WaterSource == "" && i.Description == ""
}

// ReportClassification is the classification printed on a report.
type ReportClassification struct {
	Category      string `json:"category"`
	Class         string `json:"class"`
	Justification string `json:"justification"`
	Advisory      bool   `json:"advisory"`
}

// Validate implements validation.Validatable.
func (c ReportClassification) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Category, validation.In("1", "2", "3")),
		validation.Field(&c.Class, validation.In("1", "2", "3", "4")),
	)
}

// ReportEquipment is deployed equipment as printed on a report.
type ReportEquipment struct {
	Type      string  `json:"type"`
	Quantity  int     `json:"quantity"`
	Days      int     `json:"days"`
	DailyRate float64 `json:"dailyRate"`
}

// CostEstimate is one priced line of a report's estimate.
type CostEstimate struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
	Total       float64 `json:"total"`
}

// ReportPhoto is a photo printed in the gallery.
type ReportPhoto struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Category string `json:"category"`
}

// ReportSummary holds the executive summary text.
type ReportSummary struct {
	Executive       string   `json:"executive"`
	Recommendations []string `json:"recommendations"`
}

// Report is the read-only report document rendered by the viewer.
type Report struct {
	ID                  string                `json:"id,omitempty"`
	ReportID            string                `json:"reportId"`
	Header              ReportHeader          `json:"header"`
	Property            ReportProperty        `json:"property"`
	Incident            ReportIncident        `json:"incident"`
	Environmental       *EnvironmentalReading `json:"environmental,omitempty"`
	Classification      *ReportClassification `json:"classification,omitempty"`
	Hazards             []string              `json:"hazards"`
	AffectedAreas       []AffectedArea        `json:"affectedAreas"`
	MoistureReadings    []MoistureReading     `json:"moistureReadings"`
	ScopeItems          []ScopeItem           `json:"scopeItems"`
	CostEstimates       []CostEstimate        `json:"costEstimates"`
	Equipment           []ReportEquipment     `json:"equipment"`
	Photos              []ReportPhoto         `json:"photos"`
	Summary             ReportSummary         `json:"summary"`
	ComplianceStandards []string              `json:"complianceStandards"`
	Notes               string                `json:"notes"`
}

// ParseReport decodes and validates a report document.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if err := ValidateReport(r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ValidateReport checks the fields the viewer cannot render without.
func ValidateReport(r Report) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Header),
		validation.Field(&r.Property),
		validation.Field(&r.Classification),
	)
}

// TotalCost sums every cost estimate line.
func (r Report) TotalCost() float64 {
	var total float64
	for _, c := range r.CostEstimates {
		total += c.Total
	}
	return total
}

// MaxMoisture returns the highest recorded moisture level, or zero when there
// are no readings.
func (r Report) MaxMoisture() float64 {
	var peak float64
	for _, m := range r.MoistureReadings {
		if m.Level > peak {
			peak = m.Level
		}
	}
	return peak
}

// PhotoGroup is one category of the photo gallery.
type PhotoGroup struct {
	Category string
	Photos   []ReportPhoto
}

// GroupPhotos buckets photos by category in order of first appearance.
// Photos without a category go under "General".
func GroupPhotos(photos []ReportPhoto) []PhotoGroup {
	var groups []PhotoGroup
	index := make(map[string]int)
	for _, p := range photos {
		cat := strings.TrimSpace(p.Category)
		if cat == "" {
			cat = "General"
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, PhotoGroup{Category: cat})
		}
		groups[i].Photos = append(groups[i].Photos, p)
	}
	return groups
}

// Moisture severity wording used by the narrative.
const (
	MoistureSignificant = "significant saturation"
	MoistureElevated    = "elevated"
	MoistureModerate    = "moderate"
)

// MoistureSeverity maps a peak moisture percentage onto narrative wording.
func MoistureSeverity(level float64) string {
	switch {
	case level > 20:
		return MoistureSignificant
	case level > 15:
		return MoistureElevated
	default:
		return MoistureModerate
	}
}

// NarrativeSummary builds the executive summary paragraph from whichever
// report fields are present.
func NarrativeSummary(r Report) string {
	var parts []string

	if addr := strings.TrimSpace(r.Property.Address); addr != "" {
		s := "An inspection was carried out at " + addr
		if r.Header.Date != "" {
			s += " on " + FormatDateString(r.Header.Date)
		}
		parts = append(parts, s+".")
	}
	if r.Incident.Cause != "" {
		parts = append(parts, fmt.Sprintf("The loss was caused by %s.", strings.TrimSuffix(r.Incident.Cause, ".")))
	}
	if c := r.Classification; c != nil && c.Category != "" {
		s := fmt.Sprintf("The water has been classified as Category %s", c.Category)
		if c.Class != "" {
			s += fmt.Sprintf(", Class %s", c.Class)
		}
		if c.Advisory {
			s += " (preliminary)"
		}
		parts = append(parts, s+".")
	}
	if n := len(r.AffectedAreas); n > 0 {
		parts = append(parts, fmt.Sprintf("%d affected %s totalling %.1f m² %s assessed.",
			n, plural(n, "area", "areas"), TotalArea(r.AffectedAreas), plural(n, "was", "were")))
	}
	if len(r.MoistureReadings) > 0 {
		peak := r.MaxMoisture()
		switch MoistureSeverity(peak) {
		case MoistureSignificant:
			parts = append(parts, fmt.Sprintf("Moisture readings indicate significant saturation (peak %.1f%%), requiring immediate structural drying.", peak))
		case MoistureElevated:
			parts = append(parts, fmt.Sprintf("Moisture readings are elevated (peak %.1f%%) and drying equipment is recommended.", peak))
		default:
			parts = append(parts, fmt.Sprintf("Moisture readings show moderate levels (peak %.1f%%) that should be monitored until dry.", peak))
		}
	}
	if n := len(r.Hazards); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s identified on site.", n, plural(n, "hazard was", "hazards were")))
	}
	if n := len(r.Equipment); n > 0 {
		names := make([]string, 0, n)
		for _, e := range r.Equipment {
			names = append(names, fmt.Sprintf("%d x %s", e.Quantity, e.Type))
		}
		parts = append(parts, "Equipment deployed: "+strings.Join(names, ", ")+".")
	}
	if total := r.TotalCost(); total > 0 {
		parts = append(parts, "The estimated cost of restoration is "+FormatCurrency(total)+".")
	}
	return strings.Join(parts, " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Hours after which standing water is treated as a mould risk.
const mouldRiskHours = 48

// BuildReport assembles a report document from a submitted inspection and an
// optional saved scope summary. An inspection without a classification of
// record gets the advisory preview, flagged as such.
func BuildReport(form InspectionForm, summary *ScopeSummary, catalog Catalog, now time.Time) Report {
	r := Report{
		ReportID: form.ReportID,
		Header: ReportHeader{
			ReportNumber: form.ReportID,
			Title:        "Water Damage Inspection Report",
			Date:         now.UTC().Format(time.RFC3339),
			PreparedBy:   form.TechnicianName,
		},
		Property: ReportProperty{
			Address:  form.PropertyAddress,
			Postcode: form.PropertyPostcode,
		},
		Hazards:             []string{},
		AffectedAreas:       form.AffectedAreas,
		MoistureReadings:    form.MoistureReadings,
		ScopeItems:          []ScopeItem{},
		CostEstimates:       []CostEstimate{},
		Equipment:           []ReportEquipment{},
		Photos:              []ReportPhoto{},
		ComplianceStandards: []string{"IICRC S500 Standard for Professional Water Damage Restoration"},
	}

	if env := form.Environmental; env.Temperature != 0 || env.Humidity != 0 {
		env.DewPoint = DewPoint(env.Temperature, env.Humidity)
		r.Environmental = &env
	}

	var sources []string
	var maxHours float64
	for i := range r.AffectedAreas {
		a := &r.AffectedAreas[i]
		if a.Area <= 0 {
			a.Area = Area(a.Length, a.Width)
		}
		if a.WaterSource != "" {
			sources = append(sources, a.WaterSource)
		}
		if a.HoursSinceLoss > maxHours {
			maxHours = a.HoursSinceLoss
		}
	}
	if len(sources) > 0 {
		r.Incident.WaterSource = strings.Join(uniqueStrings(sources), ", ")
	}

	classification := form.Classification
	if classification == nil {
		preview := ApplyOverride(Preview(form.AffectedAreas), form.Override)
		classification = &preview
	}
	r.Classification = &ReportClassification{
		Category: classification.Category,
		Class:    classification.Class,
		Advisory: classification.Advisory,
	}
	switch classification.Source {
	case ClassificationSourceOverride:
		r.Classification.Justification = "Set by the attending technician."
	case ClassificationSourcePreview:
		r.Classification.Justification = "Preliminary estimate from water source and affected area; pending formal classification."
	}

	if r.Classification.Category == "3" {
		r.Hazards = append(r.Hazards, "Category 3 contaminated water: full PPE and containment required")
	}
	if maxHours > mouldRiskHours {
		r.Hazards = append(r.Hazards, fmt.Sprintf("Water present for over %d hours: elevated risk of microbial growth", mouldRiskHours))
		r.ComplianceStandards = append(r.ComplianceStandards, "IICRC S520 Standard for Professional Mould Remediation")
	}

	for _, s := range form.ScopeItems {
		if s.Selected {
			r.ScopeItems = append(r.ScopeItems, s)
		}
	}

	days := form.DryingDays
	for _, e := range form.Equipment {
		r.Equipment = append(r.Equipment, ReportEquipment{
			Type:      e.Type,
			Quantity:  e.Quantity,
			Days:      days,
			DailyRate: catalog.Equipment[e.Type].Day,
		})
	}

	for _, p := range form.Photos {
		if p.URL == "" || p.Uploading {
			continue
		}
		r.Photos = append(r.Photos, ReportPhoto{URL: p.URL, Caption: p.Location, Category: p.Category})
	}

	if summary != nil {
		r.CostEstimates = CostEstimatesFromSummary(*summary)
	}

	r.Summary.Recommendations = recommendations(r)
	r.Summary.Executive = NarrativeSummary(r)
	return r
}

// CostEstimatesFromSummary converts a scope summary into report cost lines.
func CostEstimatesFromSummary(s ScopeSummary) []CostEstimate {
	out := make([]CostEstimate, 0, len(s.Labour)+len(s.Equipment)+len(s.Chemicals))
	for _, l := range s.Labour {
		out = append(out, CostEstimate{
			Category:    CategoryLabour,
			Description: l.Role,
			Quantity:    round2(l.EffectiveHours),
			Unit:        "hr",
			Rate:        round2(l.EffectiveRate),
			Total:       round2(l.Cost),
		})
	}
	for _, e := range s.Equipment {
		if !e.Known {
			continue
		}
		rate := 0.0
		if e.Periods > 0 {
			rate = e.Cost / e.Periods
		}
		out = append(out, CostEstimate{
			Category:    CategoryEquipment,
			Description: e.Type,
			Quantity:    e.Periods,
			Unit:        e.Tier,
			Rate:        round2(rate),
			Total:       round2(e.Cost),
		})
	}
	for _, c := range s.Chemicals {
		if !c.Known {
			continue
		}
		qty := 0.0
		if c.Rate > 0 {
			qty = c.Cost / c.Rate
		}
		out = append(out, CostEstimate{
			Category:    CategoryChemical,
			Description: c.Type,
			Quantity:    round2(qty),
			Unit:        "m²",
			Rate:        c.Rate,
			Total:       round2(c.Cost),
		})
	}
	return out
}

func recommendations(r Report) []string {
	recs := []string{}
	switch MoistureSeverity(r.MaxMoisture()) {
	case MoistureSignificant:
		recs = append(recs, "Commence structural drying immediately and monitor daily until materials reach dry standard.")
	case MoistureElevated:
		recs = append(recs, "Deploy drying equipment and re-test moisture levels within 48 hours.")
	}
	if r.Classification != nil && r.Classification.Category == "3" {
		recs = append(recs, "Remove and dispose of porous materials affected by contaminated water.")
	}
	if len(r.MoistureReadings) > 0 || len(r.AffectedAreas) > 0 {
		recs = append(recs, "Photograph and record final moisture readings before reinstatement.")
	}
	return recs
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(s))
	}
	sort.Strings(out)
	return out
}
