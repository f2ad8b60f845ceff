package collections

import (
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// Demo account and report created by Seed.
const (
	DemoUserID   = "demo-user"
	DemoReportID = "DEMO-0001"
)

// Seed inserts a demo profile, its pricing config, a submitted sample
// inspection, a saved scope and the generated report. It does nothing when
// the demo profile already exists.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if the demo profile already exists ──────────
	if _, err := services.FindUserProfile(app, DemoUserID); err == nil {
		return nil
	}

	log.Info("seed: inserting demo data")

	profilesCol, err := app.FindCollectionByNameOrId("user_profiles")
	if err != nil {
		return fmt.Errorf("seed: could not find user_profiles collection: %w", err)
	}
	inspectionsCol, err := app.FindCollectionByNameOrId("inspections")
	if err != nil {
		return fmt.Errorf("seed: could not find inspections collection: %w", err)
	}

	profile := core.NewRecord(profilesCol)
	profile.Set("user_id", DemoUserID)
	profile.Set("name", "Demo Technician")
	profile.Set("email", "demo@example.com")
	profile.Set("company", "Demo Restorations Pty Ltd")
	profile.Set("subscription_tier", services.TierPro)
	profile.Set("quick_fill_credits", 5)
	if err := app.Save(profile); err != nil {
		return fmt.Errorf("seed: could not save profile: %w", err)
	}

	pricing := services.DefaultPricingConfig()
	pricing.CustomFields = []services.CustomField{
		{Category: services.CategoryFees, Name: "Travel (per km)", Value: 1.2, Unit: "km"},
		{Category: services.CategoryLabour, Name: "Supervisor", Value: 110, Unit: "hr"},
	}
	if err := services.SavePricingConfig(app, DemoUserID, pricing); err != nil {
		return fmt.Errorf("seed: could not save pricing config: %w", err)
	}

	// ── sample inspection ─────────────────────────────────────────────
	sample := services.QuickFillSample()
	inspection := core.NewRecord(inspectionsCol)
	inspection.Set("report_id", DemoReportID)
	inspection.Set("user_id", DemoUserID)
	inspection.Set("property_address", sample.PropertyAddress)
	inspection.Set("property_postcode", sample.PropertyPostcode)
	inspection.Set("technician_name", "Demo Technician")
	inspection.Set("status", services.InspectionStatusSubmitted)
	inspection.Set("drying_days", 4)
	inspection.Set("submitted_at", time.Now().UTC())
	if err := app.Save(inspection); err != nil {
		return fmt.Errorf("seed: could not save inspection: %w", err)
	}

	save := func(collection string, fields map[string]any) error {
		col, err := app.FindCollectionByNameOrId(collection)
		if err != nil {
			return fmt.Errorf("seed: could not find %s collection: %w", collection, err)
		}
		rec := core.NewRecord(col)
		rec.Set("inspection", inspection.Id)
		for k, v := range fields {
			rec.Set(k, v)
		}
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("seed: could not save %s: %w", collection, err)
		}
		return nil
	}

	env := sample.Environmental
	if err := save("environmental_readings", map[string]any{
		"temperature":     env.Temperature,
		"humidity":        env.Humidity,
		"dew_point":       env.DewPoint,
		"air_circulation": env.AirCirculation,
	}); err != nil {
		return err
	}
	for _, m := range sample.MoistureReadings {
		if err := save("moisture_readings", map[string]any{
			"location":     m.Location,
			"surface_type": m.SurfaceType,
			"level":        m.Level,
			"depth":        m.Depth,
		}); err != nil {
			return err
		}
	}
	for _, a := range sample.AffectedAreas {
		if err := save("affected_areas", map[string]any{
			"room_type":        a.RoomType,
			"length":           a.Length,
			"width":            a.Width,
			"area":             a.Area,
			"materials":        a.Materials,
			"water_source":     a.WaterSource,
			"hours_since_loss": a.HoursSinceLoss,
		}); err != nil {
			return err
		}
	}
	for _, s := range sample.ScopeItems {
		if err := save("scope_items", map[string]any{
			"item_type":   s.ItemType,
			"description": s.Description,
			"selected":    s.Selected,
		}); err != nil {
			return err
		}
	}
	for _, e := range []services.EquipmentItem{
		{Type: services.EquipmentAirMover, Quantity: 4},
		{Type: services.EquipmentLGRDehumidifier, Quantity: 1},
	} {
		if err := save("inspection_equipment", map[string]any{
			"type":     e.Type,
			"quantity": e.Quantity,
		}); err != nil {
			return err
		}
	}

	// ── scope + report ────────────────────────────────────────────────
	catalog := services.DefaultCatalog().WithPricing(pricing)
	draft := services.ScopeDraft{
		ReportID: DemoReportID,
		Site:     services.SiteVariables{AffectedArea: services.TotalArea(sample.AffectedAreas)},
		Labour: []services.LabourRole{
			{Role: "Qualified Technician", HourlyRate: pricing.QualifiedTechnicianRate, Hours: 6},
			{Role: "Labourer", HourlyRate: pricing.LabourerRate, Hours: 4},
		},
		Modifiers: services.Modifiers{TeamSize: services.TeamSizeSmall},
		Equipment: []services.EquipmentLine{
			{Type: services.EquipmentAirMover, Quantity: 4, DurationDays: 4},
			{Type: services.EquipmentLGRDehumidifier, Quantity: 1, DurationDays: 4},
		},
		Chemicals: []services.ChemicalLine{
			{Type: services.ChemicalAntimicrobial, TreatedArea: services.TotalArea(sample.AffectedAreas)},
		},
		Compliance: services.DefaultCompliance(),
	}
	scope, err := services.UpsertScope(app, DemoUserID, draft, catalog)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	form, err := services.LoadInspection(app, inspection.Id)
	if err != nil {
		return fmt.Errorf("seed: could not reload inspection: %w", err)
	}
	report := services.BuildReport(*form, &scope.Summary, catalog, time.Now())
	report.Header.Company = "Demo Restorations Pty Ltd"
	if _, err := services.SaveReport(app, report, DemoUserID, inspection.Id, services.ReportStatusGenerated); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	log.WithField("report", DemoReportID).Info("seed: demo data inserted")
	return nil
}
