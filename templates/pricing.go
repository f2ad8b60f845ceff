package templates

import (
	"strconv"

	"restoreassist/services"
)

// PricingPageData is the view model of the pricing editor.
type PricingPageData struct {
	Config  services.PricingConfig
	Tier    string
	CanEdit bool
	Errors  map[string]string
}

// pricingRate is one flat rate input of the editor. Name is the form field,
// ErrorKey the validation key for it.
type pricingRate struct {
	Name     string
	ErrorKey string
	Label    string
	Unit     string
	Value    float64
}

type pricingRateGroup struct {
	Title string
	Rates []pricingRate
}

func pricingRateGroups(c services.PricingConfig) []pricingRateGroup {
	return []pricingRateGroup{
		{"Labour", []pricingRate{
			{"master_technician_rate", "masterTechnicianRate", "Master technician", "hr", c.MasterTechnicianRate},
			{"qualified_technician_rate", "qualifiedTechnicianRate", "Qualified technician", "hr", c.QualifiedTechnicianRate},
			{"labourer_rate", "labourerRate", "Labourer", "hr", c.LabourerRate},
		}},
		{"Equipment", []pricingRate{
			{"air_mover_daily", "airMoverDaily", "Air mover", "day", c.AirMoverDaily},
			{"lgr_dehumidifier_daily", "lgrDehumidifierDaily", "LGR dehumidifier", "day", c.LGRDehumidifierDaily},
			{"desiccant_dehumidifier_daily", "desiccantDehumidifierDaily", "Desiccant dehumidifier", "day", c.DesiccantDehumidifierDaily},
			{"air_scrubber_daily", "airScrubberDaily", "Air scrubber", "day", c.AirScrubberDaily},
		}},
		{"Chemical", []pricingRate{
			{"antimicrobial_per_sqm", "antimicrobialPerSqm", "Antimicrobial", "m²", c.AntimicrobialPerSqm},
			{"mould_remediation_per_sqm", "mouldRemediationPerSqm", "Mould remediation", "m²", c.MouldRemediationPerSqm},
		}},
		{"Fees", []pricingRate{
			{"callout_fee", "calloutFee", "Callout fee", "", c.CalloutFee},
			{"administration_fee", "administrationFee", "Administration fee", "", c.AdministrationFee},
		}},
	}
}

func (r pricingRate) label() string {
	if r.Unit == "" {
		return r.Label
	}
	return r.Label + " (per " + r.Unit + ")"
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// customFieldRows returns the saved custom fields followed by an empty row.
func customFieldRows(fields []services.CustomField) []services.CustomField {
	return append(append([]services.CustomField{}, fields...), services.CustomField{})
}

func customFieldName(i int, key string) string {
	return "custom." + strconv.Itoa(i) + "." + key
}

func customFieldValue(f services.CustomField) string {
	if f.Name == "" && f.Value == 0 {
		return ""
	}
	return formatRate(f.Value)
}

// customFieldErrors returns the validation messages of row i, labelled by
// field.
func customFieldErrors(errs map[string]string, i int) []string {
	var msgs []string
	for _, key := range []string{"category", "name", "value"} {
		if msg := errs["customFields."+strconv.Itoa(i)+"."+key]; msg != "" {
			msgs = append(msgs, services.TitleCase(key)+": "+msg)
		}
	}
	return msgs
}

func customFieldSummary(f services.CustomField) string {
	s := f.Name + ": " + services.FormatCurrency(f.Value)
	if f.Unit != "" {
		s += " / " + f.Unit
	}
	return s
}

