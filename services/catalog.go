package services

// EquipmentRate holds the hire-rate tiers for one equipment type.
type EquipmentRate struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
}

// Catalog is the set of equipment and chemical rates the scoping engine prices
// against. Types missing from the catalog price at zero.
type Catalog struct {
	Equipment map[string]EquipmentRate `json:"equipment"`
	Chemicals map[string]float64       `json:"chemicals"`
}

// Equipment type names.
const (
	EquipmentAirMover              = "Air Mover"
	EquipmentLGRDehumidifier       = "LGR Dehumidifier"
	EquipmentDesiccantDehumidifier = "Desiccant Dehumidifier"
	EquipmentAirScrubber           = "Air Scrubber"
	EquipmentDryingMat             = "Drying Mat System"
	EquipmentHeater                = "Heater"
)

// Chemical type names.
const (
	ChemicalAntimicrobial  = "Antimicrobial"
	ChemicalMouldInhibitor = "Mould Inhibitor"
	ChemicalDeodoriser     = "Deodoriser"
	ChemicalSanitiser      = "Sanitiser"
)

// DefaultCatalog returns the built-in rate catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Equipment: map[string]EquipmentRate{
			EquipmentAirMover:              {Day: 40, Week: 160, Month: 500},
			EquipmentLGRDehumidifier:       {Day: 95, Week: 380, Month: 1200},
			EquipmentDesiccantDehumidifier: {Day: 150, Week: 600, Month: 1900},
			EquipmentAirScrubber:           {Day: 80, Week: 320, Month: 1000},
			EquipmentDryingMat:             {Day: 120, Week: 480, Month: 1500},
			EquipmentHeater:                {Day: 60, Week: 240, Month: 750},
		},
		Chemicals: map[string]float64{
			ChemicalAntimicrobial:  4.5,
			ChemicalMouldInhibitor: 6.0,
			ChemicalDeodoriser:     2.5,
			ChemicalSanitiser:      3.0,
		},
	}
}

// WithPricing returns a copy of the catalog whose day rates and per-sqm
// chemical rates are taken from the pricing configuration wherever it sets a
// positive value. Week and month tiers keep their catalog values.
func (c Catalog) WithPricing(p PricingConfig) Catalog {
	out := Catalog{
		Equipment: make(map[string]EquipmentRate, len(c.Equipment)),
		Chemicals: make(map[string]float64, len(c.Chemicals)),
	}
	for k, v := range c.Equipment {
		out.Equipment[k] = v
	}
	for k, v := range c.Chemicals {
		out.Chemicals[k] = v
	}

	overrideDay := func(name string, day float64) {
		if day <= 0 {
			return
		}
		r := out.Equipment[name]
		r.Day = day
		out.Equipment[name] = r
	}
	overrideDay(EquipmentAirMover, p.AirMoverDaily)
	overrideDay(EquipmentLGRDehumidifier, p.LGRDehumidifierDaily)
	overrideDay(EquipmentDesiccantDehumidifier, p.DesiccantDehumidifierDaily)
	overrideDay(EquipmentAirScrubber, p.AirScrubberDaily)

	if p.AntimicrobialPerSqm > 0 {
		out.Chemicals[ChemicalAntimicrobial] = p.AntimicrobialPerSqm
	}
	if p.MouldRemediationPerSqm > 0 {
		out.Chemicals[ChemicalMouldInhibitor] = p.MouldRemediationPerSqm
	}
	return out
}

// EquipmentTypes lists the catalog's equipment names in display order.
var EquipmentTypes = []string{
	EquipmentAirMover,
	EquipmentLGRDehumidifier,
	EquipmentDesiccantDehumidifier,
	EquipmentAirScrubber,
	EquipmentDryingMat,
	EquipmentHeater,
}

// ChemicalTypes lists the catalog's chemical names in display order.
var ChemicalTypes = []string{
	ChemicalAntimicrobial,
	ChemicalMouldInhibitor,
	ChemicalDeodoriser,
	ChemicalSanitiser,
}

// MaterialOptions lists the building materials a technician can tick.
var MaterialOptions = []string{
	"Carpet",
	"Underlay",
	"Timber Flooring",
	"Vinyl",
	"Tiles",
	"Plasterboard",
	"Skirting",
	"Cabinetry",
	"Insulation",
	"Concrete Slab",
}

// LabourRoles lists the standard labour roles.
var LabourRoles = []string{
	"Master Technician",
	"Qualified Technician",
	"Labourer",
}
