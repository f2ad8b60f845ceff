package services

import (
	"fmt"
	"math"
)

// Rate and hour multipliers applied by the scoping engine.
const (
	AfterHoursRateFactor = 1.25
	WeekendRateFactor    = 1.15

	ConfinedSpaceHoursFactor = 1.1
	PPEHoursFactor           = 1.15
	HeatStressHoursFactor    = 1.1

	ConfinedSpaceEfficiency = 0.75
	PPEEfficiency           = 0.85
	HeatStressEfficiency    = 0.80
	LargeTeamEfficiency     = 0.90

	// DefaultBaseProductivity is square metres per hour before modifiers.
	DefaultBaseProductivity = 10.0
	HoursPerDay             = 8.0
)

// Team sizes.
const (
	TeamSizeSmall  = "small"
	TeamSizeMedium = "medium"
	TeamSizeLarge  = "large"
)

// SiteVariables describe the job site as captured on the Input step.
type SiteVariables struct {
	AffectedArea     float64 `json:"affectedArea"`
	BaseProductivity float64 `json:"baseProductivity"`
	WaterCategory    string  `json:"waterCategory,omitempty"`
	WaterClass       string  `json:"waterClass,omitempty"`
	Notes            string  `json:"notes,omitempty"`
}

// LabourRole is one labour line on the scope.
type LabourRole struct {
	Role       string  `json:"role"`
	HourlyRate float64 `json:"hourlyRate"`
	Hours      float64 `json:"hours"`
	AfterHours bool    `json:"afterHours"`
}

// Modifiers are job-wide conditions that adjust rates, hours and
// productivity.
type Modifiers struct {
	Weekend       bool   `json:"weekend"`
	ConfinedSpace bool   `json:"confinedSpace"`
	PPE           bool   `json:"ppe"`
	HeatStress    bool   `json:"heatStress"`
	TeamSize      string `json:"teamSize"`
}

// EquipmentLine is hired equipment on the scope.
type EquipmentLine struct {
	Type         string  `json:"type"`
	Quantity     int     `json:"quantity"`
	DurationDays float64 `json:"durationDays"`
}

// ChemicalLine is a chemical treatment on the scope.
type ChemicalLine struct {
	Type        string  `json:"type"`
	TreatedArea float64 `json:"treatedArea"`
}

// ComplianceItem is a standard or checklist entry acknowledged on the
// Compliance step.
type ComplianceItem struct {
	Standard     string `json:"standard"`
	Acknowledged bool   `json:"acknowledged"`
}

// ScopeDraft is the full nested scope-of-works structure.
type ScopeDraft struct {
	ReportID   string           `json:"reportId"`
	Site       SiteVariables    `json:"site"`
	Labour     []LabourRole     `json:"labour"`
	Modifiers  Modifiers        `json:"modifiers"`
	Equipment  []EquipmentLine  `json:"equipment"`
	Chemicals  []ChemicalLine   `json:"chemicals"`
	Compliance []ComplianceItem `json:"compliance"`
}

// LabourLineCost is a priced labour role.
type LabourLineCost struct {
	Role           string  `json:"role"`
	EffectiveRate  float64 `json:"effectiveRate"`
	EffectiveHours float64 `json:"effectiveHours"`
	Cost           float64 `json:"cost"`
}

// EquipmentLineCost is a priced equipment line.
type EquipmentLineCost struct {
	Type    string  `json:"type"`
	Tier    string  `json:"tier"`
	Periods float64 `json:"periods"`
	Cost    float64 `json:"cost"`
	Known   bool    `json:"known"`
}

// ChemicalLineCost is a priced chemical line.
type ChemicalLineCost struct {
	Type  string  `json:"type"`
	Rate  float64 `json:"rate"`
	Cost  float64 `json:"cost"`
	Known bool    `json:"known"`
}

// Productivity holds the derived time figures.
type Productivity struct {
	EffectiveProductivity float64 `json:"effectiveProductivity"`
	ManHours              float64 `json:"manHours"`
	DurationDays          int     `json:"durationDays"`
}

// ScopeSummary is the cost and time summary derived from a draft.
type ScopeSummary struct {
	Labour        []LabourLineCost    `json:"labour"`
	Equipment     []EquipmentLineCost `json:"equipment"`
	Chemicals     []ChemicalLineCost  `json:"chemicals"`
	Productivity  Productivity        `json:"productivity"`
	LabourCost    float64             `json:"labourCost"`
	EquipmentCost float64             `json:"equipmentCost"`
	ChemicalCost  float64             `json:"chemicalCost"`
	Total         float64             `json:"total"`
	Warnings      []string            `json:"warnings"`
}

// Equipment rate tiers.
const (
	RateTierDay   = "day"
	RateTierWeek  = "week"
	RateTierMonth = "month"
)

// CalcLabourLine prices one labour role under the job modifiers.
func CalcLabourLine(role LabourRole, mods Modifiers) LabourLineCost {
	rate := role.HourlyRate
	if role.AfterHours {
		rate *= AfterHoursRateFactor
	}
	if mods.Weekend {
		rate *= WeekendRateFactor
	}

	hours := role.Hours
	if mods.ConfinedSpace {
		hours *= ConfinedSpaceHoursFactor
	}
	if mods.PPE {
		hours *= PPEHoursFactor
	}
	if mods.HeatStress {
		hours *= HeatStressHoursFactor
	}

	return LabourLineCost{
		Role:           role.Role,
		EffectiveRate:  rate,
		EffectiveHours: hours,
		Cost:           rate * hours,
	}
}

// CalcEquipmentLine prices one equipment line, choosing the rate tier from the
// hire duration. Known is false when the type is not in the catalog.
func CalcEquipmentLine(line EquipmentLine, catalog Catalog) EquipmentLineCost {
	out := EquipmentLineCost{Type: line.Type}
	rate, ok := catalog.Equipment[line.Type]
	if !ok {
		return out
	}
	out.Known = true
	if line.Quantity <= 0 || line.DurationDays <= 0 {
		return out
	}

	qty := float64(line.Quantity)
	days := line.DurationDays
	switch {
	case days <= 7:
		out.Tier = RateTierDay
		out.Periods = days
		out.Cost = rate.Day * qty * days
	case days <= 30:
		out.Tier = RateTierWeek
		out.Periods = math.Ceil(days / 7)
		out.Cost = rate.Week * qty * out.Periods
	default:
		out.Tier = RateTierMonth
		out.Periods = math.Ceil(days / 30)
		out.Cost = rate.Month * qty * out.Periods
	}
	return out
}

// CalcChemicalLine prices one chemical treatment.
func CalcChemicalLine(line ChemicalLine, catalog Catalog) ChemicalLineCost {
	rate, ok := catalog.Chemicals[line.Type]
	if !ok {
		return ChemicalLineCost{Type: line.Type}
	}
	cost := 0.0
	if line.TreatedArea > 0 {
		cost = rate * line.TreatedArea
	}
	return ChemicalLineCost{Type: line.Type, Rate: rate, Cost: cost, Known: true}
}

// CalcProductivity derives effective productivity, man-hours and duration. An
// area or base productivity of zero yields zero man-hours.
func CalcProductivity(site SiteVariables, mods Modifiers) Productivity {
	base := site.BaseProductivity
	if base <= 0 {
		base = DefaultBaseProductivity
	}
	eff := base
	if mods.ConfinedSpace {
		eff *= ConfinedSpaceEfficiency
	}
	if mods.PPE {
		eff *= PPEEfficiency
	}
	if mods.HeatStress {
		eff *= HeatStressEfficiency
	}
	if mods.TeamSize == TeamSizeLarge {
		eff *= LargeTeamEfficiency
	}

	p := Productivity{EffectiveProductivity: eff}
	if site.AffectedArea <= 0 || eff <= 0 {
		return p
	}
	p.ManHours = site.AffectedArea / eff
	p.DurationDays = int(math.Ceil(p.ManHours / HoursPerDay))
	return p
}

// CalcScopeSummary recomputes every derived figure from the draft. It holds
// no state, so callers re-run it after any input change.
func CalcScopeSummary(d ScopeDraft, catalog Catalog) ScopeSummary {
	s := ScopeSummary{
		Labour:    make([]LabourLineCost, 0, len(d.Labour)),
		Equipment: make([]EquipmentLineCost, 0, len(d.Equipment)),
		Chemicals: make([]ChemicalLineCost, 0, len(d.Chemicals)),
		Warnings:  []string{},
	}

	for _, role := range d.Labour {
		lc := CalcLabourLine(role, d.Modifiers)
		s.Labour = append(s.Labour, lc)
		s.LabourCost += lc.Cost
	}
	for _, line := range d.Equipment {
		ec := CalcEquipmentLine(line, catalog)
		if !ec.Known {
			s.Warnings = append(s.Warnings, fmt.Sprintf("Unknown equipment type %q priced at zero", line.Type))
		}
		s.Equipment = append(s.Equipment, ec)
		s.EquipmentCost += ec.Cost
	}
	for _, line := range d.Chemicals {
		cc := CalcChemicalLine(line, catalog)
		if !cc.Known {
			s.Warnings = append(s.Warnings, fmt.Sprintf("Unknown chemical type %q priced at zero", line.Type))
		}
		s.Chemicals = append(s.Chemicals, cc)
		s.ChemicalCost += cc.Cost
	}

	s.Productivity = CalcProductivity(d.Site, d.Modifiers)
	s.Total = s.LabourCost + s.EquipmentCost + s.ChemicalCost
	return s
}
