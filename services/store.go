package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// ErrNotFound is returned by the loaders when the requested record does not
// exist.
var ErrNotFound = errors.New("not found")

// FileURL returns the public URL of a file stored on a record.
func FileURL(rec *core.Record, filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/files/%s/%s/%s", rec.Collection().Name, rec.Id, filename)
}

// InspectionHeaderFromRecord maps the top-level inspection fields. Sections
// are left empty.
func InspectionHeaderFromRecord(rec *core.Record) InspectionForm {
	form := InspectionForm{
		ID:               rec.Id,
		ReportID:         rec.GetString("report_id"),
		Status:           rec.GetString("status"),
		PropertyAddress:  rec.GetString("property_address"),
		PropertyPostcode: rec.GetString("property_postcode"),
		TechnicianName:   rec.GetString("technician_name"),
		Override: ClassificationOverride{
			Category: rec.GetInt("override_category"),
			Class:    rec.GetInt("override_class"),
		},
		DryingDays:       rec.GetInt("drying_days"),
		MoistureReadings: []MoistureReading{},
		AffectedAreas:    []AffectedArea{},
		Photos:           []Photo{},
		ScopeItems:       []ScopeItem{},
		Equipment:        []EquipmentItem{},
	}

	var c Classification
	if err := rec.UnmarshalJSONField("classification", &c); err == nil && c.Category != "" {
		form.Classification = &c
	}

	if file := rec.GetString("floor_plan"); file != "" {
		fp := &FloorPlan{ImageURL: FileURL(rec, file), Points: []FloorPlanPoint{}}
		_ = rec.UnmarshalJSONField("floor_plan_points", &fp.Points)
		if fp.Points == nil {
			fp.Points = []FloorPlanPoint{}
		}
		form.FloorPlan = fp
	}
	return form
}

// EnvironmentalFromRecord maps an environmental_readings record.
func EnvironmentalFromRecord(rec *core.Record) EnvironmentalReading {
	return EnvironmentalReading{
		ID:             rec.Id,
		Temperature:    rec.GetFloat("temperature"),
		Humidity:       rec.GetFloat("humidity"),
		DewPoint:       rec.GetFloat("dew_point"),
		AirCirculation: rec.GetBool("air_circulation"),
	}
}

// MoistureFromRecord maps a moisture_readings record.
func MoistureFromRecord(rec *core.Record) MoistureReading {
	return MoistureReading{
		ID:          rec.Id,
		Location:    rec.GetString("location"),
		SurfaceType: rec.GetString("surface_type"),
		Level:       rec.GetFloat("level"),
		Depth:       rec.GetString("depth"),
	}
}

// AffectedAreaFromRecord maps an affected_areas record.
func AffectedAreaFromRecord(rec *core.Record) AffectedArea {
	a := AffectedArea{
		ID:             rec.Id,
		RoomType:       rec.GetString("room_type"),
		Length:         rec.GetFloat("length"),
		Width:          rec.GetFloat("width"),
		Area:           rec.GetFloat("area"),
		WaterSource:    rec.GetString("water_source"),
		HoursSinceLoss: rec.GetFloat("hours_since_loss"),
	}
	_ = rec.UnmarshalJSONField("materials", &a.Materials)
	if a.Materials == nil {
		a.Materials = []string{}
	}
	return a
}

// ScopeItemFromRecord maps a scope_items record.
func ScopeItemFromRecord(rec *core.Record) ScopeItem {
	return ScopeItem{
		ID:          rec.Id,
		ItemType:    rec.GetString("item_type"),
		Description: rec.GetString("description"),
		Selected:    rec.GetBool("selected"),
	}
}

// EquipmentFromRecord maps an inspection_equipment record.
func EquipmentFromRecord(rec *core.Record) EquipmentItem {
	return EquipmentItem{
		ID:       rec.Id,
		Type:     rec.GetString("type"),
		Quantity: rec.GetInt("quantity"),
	}
}

// PhotoFromRecord maps a photos record.
func PhotoFromRecord(rec *core.Record) Photo {
	return Photo{
		ID:       rec.Id,
		URL:      FileURL(rec, rec.GetString("image")),
		Location: rec.GetString("location"),
		Category: rec.GetString("category"),
	}
}

// FindInspectionByReportID returns the inspection for a report, or
// ErrNotFound.
func FindInspectionByReportID(app core.App, reportID string) (*core.Record, error) {
	rec, err := app.FindFirstRecordByFilter(
		"inspections",
		"report_id = {:reportId}",
		map[string]any{"reportId": reportID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find inspection by report %s: %w", reportID, err)
	}
	return rec, nil
}

// findSection returns every record of a section collection for an inspection,
// oldest first.
func findSection(app core.App, collection, inspectionID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		collection,
		"inspection = {:inspectionId}",
		"created,@rowid",
		0,
		0,
		map[string]any{"inspectionId": inspectionID},
	)
	if err != nil {
		return nil, fmt.Errorf("load %s for inspection %s: %w", collection, inspectionID, err)
	}
	return records, nil
}

// LoadInspection reassembles the full inspection form from its stored
// sections. The latest environmental reading wins.
func LoadInspection(app core.App, id string) (*InspectionForm, error) {
	rec, err := app.FindRecordById("inspections", id)
	if err != nil {
		return nil, ErrNotFound
	}
	form := InspectionHeaderFromRecord(rec)

	envs, err := findSection(app, "environmental_readings", id)
	if err != nil {
		return nil, err
	}
	if len(envs) > 0 {
		form.Environmental = EnvironmentalFromRecord(envs[len(envs)-1])
	}

	moisture, err := findSection(app, "moisture_readings", id)
	if err != nil {
		return nil, err
	}
	for _, r := range moisture {
		form.MoistureReadings = append(form.MoistureReadings, MoistureFromRecord(r))
	}

	areas, err := findSection(app, "affected_areas", id)
	if err != nil {
		return nil, err
	}
	for _, r := range areas {
		form.AffectedAreas = append(form.AffectedAreas, AffectedAreaFromRecord(r))
	}

	items, err := findSection(app, "scope_items", id)
	if err != nil {
		return nil, err
	}
	for _, r := range items {
		form.ScopeItems = append(form.ScopeItems, ScopeItemFromRecord(r))
	}

	equipment, err := findSection(app, "inspection_equipment", id)
	if err != nil {
		return nil, err
	}
	for _, r := range equipment {
		form.Equipment = append(form.Equipment, EquipmentFromRecord(r))
	}

	photos, err := findSection(app, "photos", id)
	if err != nil {
		return nil, err
	}
	for _, r := range photos {
		form.Photos = append(form.Photos, PhotoFromRecord(r))
	}

	return &form, nil
}

// UserProfile is the caller's account profile.
type UserProfile struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Company          string `json:"company"`
	SubscriptionTier string `json:"subscriptionTier"`
	QuickFillCredits int    `json:"quickFillCredits"`
}

// CanEditPricing reports whether the profile's tier may edit pricing.
func (p UserProfile) CanEditPricing() bool {
	return CanEditPricing(p.SubscriptionTier)
}

// UserProfileFromRecord maps a user_profiles record.
func UserProfileFromRecord(rec *core.Record) UserProfile {
	return UserProfile{
		ID:               rec.Id,
		UserID:           rec.GetString("user_id"),
		Name:             rec.GetString("name"),
		Email:            rec.GetString("email"),
		Company:          rec.GetString("company"),
		SubscriptionTier: rec.GetString("subscription_tier"),
		QuickFillCredits: rec.GetInt("quick_fill_credits"),
	}
}

// FindUserProfile returns the profile record for a user, or ErrNotFound.
func FindUserProfile(app core.App, userID string) (*core.Record, error) {
	rec, err := app.FindFirstRecordByFilter(
		"user_profiles",
		"user_id = {:userId}",
		map[string]any{"userId": userID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile %s: %w", userID, err)
	}
	return rec, nil
}

// EnsureUserProfile returns the profile for a user, creating a trial profile
// with the given starting credits on first sight.
func EnsureUserProfile(app core.App, userID string, credits int) (*core.Record, error) {
	rec, err := FindUserProfile(app, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	col, err := app.FindCollectionByNameOrId("user_profiles")
	if err != nil {
		return nil, fmt.Errorf("find user_profiles collection: %w", err)
	}
	rec = core.NewRecord(col)
	rec.Set("user_id", userID)
	rec.Set("subscription_tier", TierTrial)
	rec.Set("quick_fill_credits", credits)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("create profile %s: %w", userID, err)
	}
	return rec, nil
}

// ErrNoCredits is returned when a Quick Fill is requested with no credits left.
var ErrNoCredits = errors.New("no quick fill credits remaining")

// ConsumeQuickFillCredit atomically decrements the user's Quick Fill credits
// and returns how many remain.
func ConsumeQuickFillCredit(app core.App, userID string) (int, error) {
	remaining := 0
	err := app.RunInTransaction(func(txApp core.App) error {
		rec, err := FindUserProfile(txApp, userID)
		if err != nil {
			return err
		}
		credits := rec.GetInt("quick_fill_credits")
		if credits <= 0 {
			return ErrNoCredits
		}
		remaining = credits - 1
		rec.Set("quick_fill_credits", remaining)
		return txApp.Save(rec)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// pricingRateColumns pairs pricing_configs columns with their config fields.
func pricingRateColumns(p *PricingConfig) map[string]*float64 {
	return map[string]*float64{
		"master_technician_rate":       &p.MasterTechnicianRate,
		"qualified_technician_rate":    &p.QualifiedTechnicianRate,
		"labourer_rate":                &p.LabourerRate,
		"air_mover_daily":              &p.AirMoverDaily,
		"lgr_dehumidifier_daily":       &p.LGRDehumidifierDaily,
		"desiccant_dehumidifier_daily": &p.DesiccantDehumidifierDaily,
		"air_scrubber_daily":           &p.AirScrubberDaily,
		"antimicrobial_per_sqm":        &p.AntimicrobialPerSqm,
		"mould_remediation_per_sqm":    &p.MouldRemediationPerSqm,
		"callout_fee":                  &p.CalloutFee,
		"administration_fee":           &p.AdministrationFee,
	}
}

// PricingConfigFromRecord maps a pricing_configs record.
func PricingConfigFromRecord(rec *core.Record) PricingConfig {
	var p PricingConfig
	for col, ptr := range pricingRateColumns(&p) {
		*ptr = rec.GetFloat(col)
	}
	_ = rec.UnmarshalJSONField("custom_fields", &p.CustomFields)
	if p.CustomFields == nil {
		p.CustomFields = []CustomField{}
	}
	return p
}

// LoadPricingConfig returns the user's pricing configuration. The second
// result is false when none is stored and defaults were returned.
func LoadPricingConfig(app core.App, userID string) (PricingConfig, bool, error) {
	rec, err := app.FindFirstRecordByFilter(
		"pricing_configs",
		"user_id = {:userId}",
		map[string]any{"userId": userID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultPricingConfig(), false, nil
	}
	if err != nil {
		return PricingConfig{}, false, fmt.Errorf("load pricing config %s: %w", userID, err)
	}
	return PricingConfigFromRecord(rec), true, nil
}

// SavePricingConfig creates or replaces the user's pricing configuration.
func SavePricingConfig(app core.App, userID string, p PricingConfig) error {
	rec, err := app.FindFirstRecordByFilter(
		"pricing_configs",
		"user_id = {:userId}",
		map[string]any{"userId": userID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		col, cerr := app.FindCollectionByNameOrId("pricing_configs")
		if cerr != nil {
			return fmt.Errorf("find pricing_configs collection: %w", cerr)
		}
		rec = core.NewRecord(col)
		rec.Set("user_id", userID)
	} else if err != nil {
		return fmt.Errorf("find pricing config %s: %w", userID, err)
	}

	for col, ptr := range pricingRateColumns(&p) {
		rec.Set(col, *ptr)
	}
	if p.CustomFields == nil {
		p.CustomFields = []CustomField{}
	}
	rec.Set("custom_fields", p.CustomFields)
	if err := app.Save(rec); err != nil {
		return fmt.Errorf("save pricing config %s: %w", userID, err)
	}
	return nil
}

// SavedScope is a persisted scope with its server-computed summary.
type SavedScope struct {
	ID       string       `json:"id"`
	ReportID string       `json:"reportId"`
	Draft    ScopeDraft   `json:"draft"`
	Summary  ScopeSummary `json:"summary"`
	Updated  string       `json:"updated"`
}

// ScopeFromRecord maps a scopes record.
func ScopeFromRecord(rec *core.Record) SavedScope {
	s := SavedScope{
		ID:       rec.Id,
		ReportID: rec.GetString("report_id"),
		Updated:  rec.GetString("updated"),
	}
	_ = rec.UnmarshalJSONField("draft", &s.Draft)
	_ = rec.UnmarshalJSONField("summary", &s.Summary)
	return s
}

// LoadScope returns the saved scope for a report, or ErrNotFound.
func LoadScope(app core.App, reportID string) (*SavedScope, error) {
	rec, err := app.FindFirstRecordByFilter(
		"scopes",
		"report_id = {:reportId}",
		map[string]any{"reportId": reportID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scope %s: %w", reportID, err)
	}
	s := ScopeFromRecord(rec)
	return &s, nil
}

// UpsertScope stores the draft keyed by its report ID, replacing any earlier
// save. The summary is always recomputed from the draft.
func UpsertScope(app core.App, userID string, draft ScopeDraft, catalog Catalog) (*SavedScope, error) {
	if draft.ReportID == "" {
		return nil, errors.New("scope draft has no report id")
	}
	summary := CalcScopeSummary(draft, catalog)

	rec, err := app.FindFirstRecordByFilter(
		"scopes",
		"report_id = {:reportId}",
		map[string]any{"reportId": draft.ReportID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		col, cerr := app.FindCollectionByNameOrId("scopes")
		if cerr != nil {
			return nil, fmt.Errorf("find scopes collection: %w", cerr)
		}
		rec = core.NewRecord(col)
		rec.Set("report_id", draft.ReportID)
	} else if err != nil {
		return nil, fmt.Errorf("find scope %s: %w", draft.ReportID, err)
	}

	rec.Set("user_id", userID)
	rec.Set("draft", draft)
	rec.Set("summary", summary)
	rec.Set("total", round2(summary.Total))
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save scope %s: %w", draft.ReportID, err)
	}

	s := ScopeFromRecord(rec)
	s.Draft = draft
	s.Summary = summary
	return &s, nil
}

// Report statuses.
const (
	ReportStatusDraft     = "draft"
	ReportStatusGenerated = "generated"
)

// ReportFromRecord maps a reports record onto its document.
func ReportFromRecord(rec *core.Record) (*Report, error) {
	var r Report
	if err := rec.UnmarshalJSONField("data", &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", rec.Id, err)
	}
	r.ID = rec.Id
	if r.ReportID == "" {
		r.ReportID = rec.GetString("report_number")
	}
	if r.Header.ReportNumber == "" {
		r.Header.ReportNumber = rec.GetString("report_number")
	}
	return &r, nil
}

// FindReport looks a report up by record ID, falling back to report number.
func FindReport(app core.App, idOrNumber string) (*core.Record, error) {
	if rec, err := app.FindRecordById("reports", idOrNumber); err == nil {
		return rec, nil
	}
	rec, err := app.FindFirstRecordByFilter(
		"reports",
		"report_number = {:number}",
		map[string]any{"number": idOrNumber},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report %s: %w", idOrNumber, err)
	}
	return rec, nil
}

// LoadReport returns the report document by record ID or report number.
func LoadReport(app core.App, idOrNumber string) (*Report, error) {
	rec, err := FindReport(app, idOrNumber)
	if err != nil {
		return nil, err
	}
	return ReportFromRecord(rec)
}

// SaveReport creates or replaces the report stored under r.Header.ReportNumber.
func SaveReport(app core.App, r Report, userID, inspectionID, status string) (*core.Record, error) {
	number := r.Header.ReportNumber
	if number == "" {
		return nil, errors.New("report has no report number")
	}

	rec, err := FindReport(app, number)
	if errors.Is(err, ErrNotFound) {
		col, cerr := app.FindCollectionByNameOrId("reports")
		if cerr != nil {
			return nil, fmt.Errorf("find reports collection: %w", cerr)
		}
		rec = core.NewRecord(col)
		rec.Set("report_number", number)
	} else if err != nil {
		return nil, err
	}

	if userID != "" {
		rec.Set("user_id", userID)
	}
	if inspectionID != "" {
		rec.Set("inspection_id", inspectionID)
	}
	rec.Set("status", status)
	r.ID = ""
	rec.Set("data", r)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save report %s: %w", number, err)
	}
	return rec, nil
}
