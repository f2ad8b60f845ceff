package services

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Temperature and humidity bounds accepted on the environmental section.
const (
	MinTemperature = -20.0
	MaxTemperature = 130.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// ValidateForSubmit checks every precondition for final submission and
// returns a map of field -> error message. An empty map means the form may be
// submitted.
func ValidateForSubmit(form InspectionForm) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(form.PropertyAddress) == "" {
		errs["propertyAddress"] = "Property address is required"
	}
	if strings.TrimSpace(form.PropertyPostcode) == "" {
		errs["propertyPostcode"] = "Postcode is required"
	}

	env := form.Environmental
	if env.Temperature < MinTemperature || env.Temperature > MaxTemperature {
		errs["temperature"] = fmt.Sprintf("Temperature must be between %.0f and %.0f", MinTemperature, MaxTemperature)
	}
	if env.Humidity < MinHumidity || env.Humidity > MaxHumidity {
		errs["humidity"] = "Humidity must be between 0 and 100"
	}

	if len(form.MoistureReadings) == 0 {
		errs["moistureReadings"] = "At least one moisture reading is required"
	}
	for i, r := range form.MoistureReadings {
		if r.Level < 0 || r.Level > 100 {
			errs[fmt.Sprintf("moistureReadings.%d.level", i)] = "Moisture level must be between 0 and 100"
		}
	}

	if len(form.AffectedAreas) == 0 {
		errs["affectedAreas"] = "At least one affected area is required"
	}
	for i, a := range form.AffectedAreas {
		if len(a.Materials) == 0 {
			errs[fmt.Sprintf("affectedAreas.%d.materials", i)] = "Select at least one material"
		}
		if a.Length <= 0 {
			errs[fmt.Sprintf("affectedAreas.%d.length", i)] = "Length must be greater than zero"
		}
		if a.Width <= 0 {
			errs[fmt.Sprintf("affectedAreas.%d.width", i)] = "Width must be greater than zero"
		}
	}

	if len(form.Photos) == 0 {
		errs["photos"] = "At least one photo is required"
	}
	for _, p := range form.Photos {
		if p.Uploading {
			errs["photos"] = "Wait for all photos to finish uploading"
			break
		}
	}

	return errs
}

// FirstError returns a deterministic message from an error map, preferring the
// top-level keys the technician sees first.
func FirstError(errs map[string]string) string {
	order := []string{"propertyAddress", "propertyPostcode", "photos", "moistureReadings", "affectedAreas", "temperature", "humidity"}
	for _, k := range order {
		if msg, ok := errs[k]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return ""
}

// ValidateEnvironmental validates one environmental reading at the API boundary.
func ValidateEnvironmental(r EnvironmentalReading) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Temperature, validation.Min(MinTemperature), validation.Max(MaxTemperature)),
		validation.Field(&r.Humidity, validation.Min(MinHumidity), validation.Max(MaxHumidity)),
	)
}

// ValidateMoisture validates one moisture reading at the API boundary.
func ValidateMoisture(r MoistureReading) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Location, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Level, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&r.Depth, validation.In(DepthSurface, DepthSubsurface)),
	)
}

// ValidateAffectedArea validates one affected area at the API boundary.
func ValidateAffectedArea(a AffectedArea) error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RoomType, validation.Required),
		validation.Field(&a.Length, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&a.Width, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&a.Materials, validation.Required),
		validation.Field(&a.HoursSinceLoss, validation.Min(0.0)),
	)
}

// ValidateScopeItem validates one scope item at the API boundary.
func ValidateScopeItem(s ScopeItem) error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ItemType, validation.Required),
	)
}

// ValidateEquipment validates one equipment entry at the API boundary.
func ValidateEquipment(e EquipmentItem) error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required),
		validation.Field(&e.Quantity, validation.Required, validation.Min(1)),
	)
}

// ValidateOverride validates a manual classification override.
func ValidateOverride(o ClassificationOverride) error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Category, validation.Min(1), validation.Max(3)),
		validation.Field(&o.Class, validation.Min(1), validation.Max(4)),
	)
}

// ValidateClassification checks a classification of record returned by the
// classifier. Both values are required.
func ValidateClassification(category, class string) error {
	return validation.Errors{
		"category": validation.Validate(category, validation.Required, validation.In("1", "2", "3")),
		"class":    validation.Validate(class, validation.Required, validation.In("1", "2", "3", "4")),
	}.Filter()
}

// FieldErrors flattens an ozzo validation error into field -> message. Nested
// struct errors are keyed with dotted paths ("header.reportNumber"). Errors
// that are not field errors are reported under "_".
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	if err == nil {
		return out
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	flattenErrors("", verrs, out)
	return out
}

func flattenErrors(prefix string, verrs validation.Errors, out map[string]string) {
	for field, fe := range verrs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(fe, &nested) {
			flattenErrors(key, nested, out)
			continue
		}
		out[key] = fe.Error()
	}
}
