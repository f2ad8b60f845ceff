package services

import (
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Custom field categories.
const (
	CategoryLabour    = "labour"
	CategoryEquipment = "equipment"
	CategoryChemical  = "chemical"
	CategoryFees      = "fees"
)

// PricingCategories lists custom field categories in display order.
var PricingCategories = []string{CategoryLabour, CategoryEquipment, CategoryChemical, CategoryFees}

// Subscription tiers.
const (
	TierFree       = "free"
	TierTrial      = "trial"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// CustomField is a user-defined named rate.
type CustomField struct {
	Category string  `json:"category" schema:"category"`
	Name     string  `json:"name" schema:"name"`
	Value    float64 `json:"value" schema:"value"`
	Unit     string  `json:"unit" schema:"unit"`
}

// PricingConfig is a company's flat set of named rates.
type PricingConfig struct {
	MasterTechnicianRate       float64       `json:"masterTechnicianRate" schema:"master_technician_rate"`
	QualifiedTechnicianRate    float64       `json:"qualifiedTechnicianRate" schema:"qualified_technician_rate"`
	LabourerRate               float64       `json:"labourerRate" schema:"labourer_rate"`
	AirMoverDaily              float64       `json:"airMoverDaily" schema:"air_mover_daily"`
	LGRDehumidifierDaily       float64       `json:"lgrDehumidifierDaily" schema:"lgr_dehumidifier_daily"`
	DesiccantDehumidifierDaily float64       `json:"desiccantDehumidifierDaily" schema:"desiccant_dehumidifier_daily"`
	AirScrubberDaily           float64       `json:"airScrubberDaily" schema:"air_scrubber_daily"`
	AntimicrobialPerSqm        float64       `json:"antimicrobialPerSqm" schema:"antimicrobial_per_sqm"`
	MouldRemediationPerSqm     float64       `json:"mouldRemediationPerSqm" schema:"mould_remediation_per_sqm"`
	CalloutFee                 float64       `json:"calloutFee" schema:"callout_fee"`
	AdministrationFee          float64       `json:"administrationFee" schema:"administration_fee"`
	CustomFields               []CustomField `json:"customFields" schema:"custom"`
}

// DefaultPricingConfig returns the rates a new account starts with.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		MasterTechnicianRate:       95,
		QualifiedTechnicianRate:    75,
		LabourerRate:               55,
		AirMoverDaily:              40,
		LGRDehumidifierDaily:       95,
		DesiccantDehumidifierDaily: 150,
		AirScrubberDaily:           80,
		AntimicrobialPerSqm:        4.5,
		MouldRemediationPerSqm:     6,
		CalloutFee:                 150,
		AdministrationFee:          85,
		CustomFields:               []CustomField{},
	}
}

// RateForRole returns the configured hourly rate for a standard labour role,
// or zero for roles it does not know.
func (p PricingConfig) RateForRole(role string) float64 {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "master technician":
		return p.MasterTechnicianRate
	case "qualified technician":
		return p.QualifiedTechnicianRate
	case "labourer":
		return p.LabourerRate
	}
	return 0
}

// ValidatePricingConfig checks that every rate is non-negative and every
// custom field is named and categorised.
func ValidatePricingConfig(p PricingConfig) error {
	nonNeg := validation.Min(0.0)
	return validation.ValidateStruct(&p,
		validation.Field(&p.MasterTechnicianRate, nonNeg),
		validation.Field(&p.QualifiedTechnicianRate, nonNeg),
		validation.Field(&p.LabourerRate, nonNeg),
		validation.Field(&p.AirMoverDaily, nonNeg),
		validation.Field(&p.LGRDehumidifierDaily, nonNeg),
		validation.Field(&p.DesiccantDehumidifierDaily, nonNeg),
		validation.Field(&p.AirScrubberDaily, nonNeg),
		validation.Field(&p.AntimicrobialPerSqm, nonNeg),
		validation.Field(&p.MouldRemediationPerSqm, nonNeg),
		validation.Field(&p.CalloutFee, nonNeg),
		validation.Field(&p.AdministrationFee, nonNeg),
		validation.Field(&p.CustomFields),
	)
}

// Validate implements validation.Validatable so custom fields are checked
// element by element.
func (c CustomField) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Category, validation.Required, validation.In(CategoryLabour, CategoryEquipment, CategoryChemical, CategoryFees)),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Value, validation.Min(0.0)),
	)
}

// GroupCustomFields buckets custom fields by category, each bucket sorted by
// name. Every known category is present in the result, possibly empty.
func GroupCustomFields(fields []CustomField) map[string][]CustomField {
	groups := make(map[string][]CustomField, len(PricingCategories))
	for _, c := range PricingCategories {
		groups[c] = []CustomField{}
	}
	for _, f := range fields {
		groups[f.Category] = append(groups[f.Category], f)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Name < g[j].Name })
	}
	return groups
}

// CanEditPricing reports whether a subscription tier may change its pricing
// configuration. Unknown tiers are treated as free.
func CanEditPricing(tier string) bool {
	switch tier {
	case TierTrial, TierPro, TierEnterprise:
		return true
	}
	return false
}
