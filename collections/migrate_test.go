package collections_test

import (
	"testing"

	"restoreassist/collections"
	"restoreassist/services"
	"restoreassist/testhelpers"
)

func TestMigrateDefaultPricingConfigs_CreatesDefaults(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProfile(t, app, "user-a", "pro", 3)

	if err := collections.MigrateDefaultPricingConfigs(app); err != nil {
		t.Fatalf("MigrateDefaultPricingConfigs() error: %v", err)
	}

	cfg, found, err := services.LoadPricingConfig(app, "user-a")
	if err != nil || !found {
		t.Fatalf("expected stored config, found=%v err=%v", found, err)
	}
	if cfg.MasterTechnicianRate != services.DefaultPricingConfig().MasterTechnicianRate {
		t.Errorf("master rate = %v, want default", cfg.MasterTechnicianRate)
	}
}

func TestMigrateDefaultPricingConfigs_KeepsExisting(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProfile(t, app, "user-b", "pro", 3)

	custom := services.DefaultPricingConfig()
	custom.LabourerRate = 61
	if err := services.SavePricingConfig(app, "user-b", custom); err != nil {
		t.Fatalf("SavePricingConfig: %v", err)
	}

	if err := collections.MigrateDefaultPricingConfigs(app); err != nil {
		t.Fatalf("MigrateDefaultPricingConfigs() error: %v", err)
	}
	if err := collections.MigrateDefaultPricingConfigs(app); err != nil {
		t.Fatalf("second run error: %v", err)
	}

	records, _ := app.FindRecordsByFilter("pricing_configs", "user_id = 'user-b'", "", 0, 0, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 pricing config, got %d", len(records))
	}
	if records[0].GetFloat("labourer_rate") != 61 {
		t.Errorf("labourer_rate = %v, want 61", records[0].GetFloat("labourer_rate"))
	}
}

func TestMigrateDefaultPricingConfigs_NoProfiles(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.MigrateDefaultPricingConfigs(app); err != nil {
		t.Fatalf("MigrateDefaultPricingConfigs() error: %v", err)
	}
}

func TestMigrateAffectedAreaSizes_Backfills(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	insp := testhelpers.CreateTestInspection(t, app, "RPT-AREA", "1 Area St")
	missing := testhelpers.CreateTestSectionRecord(t, app, "affected_areas", insp.Id, map[string]any{
		"room_type": "Kitchen",
		"length":    4,
		"width":     2.5,
	})
	stored := testhelpers.CreateTestSectionRecord(t, app, "affected_areas", insp.Id, map[string]any{
		"room_type": "Hall",
		"length":    2,
		"width":     2,
		"area":      3.5,
	})

	if err := collections.MigrateAffectedAreaSizes(app); err != nil {
		t.Fatalf("MigrateAffectedAreaSizes() error: %v", err)
	}

	got, _ := app.FindRecordById("affected_areas", missing.Id)
	if got.GetFloat("area") != 10 {
		t.Errorf("backfilled area = %v, want 10", got.GetFloat("area"))
	}
	kept, _ := app.FindRecordById("affected_areas", stored.Id)
	if kept.GetFloat("area") != 3.5 {
		t.Errorf("stored area = %v, want 3.5 unchanged", kept.GetFloat("area"))
	}
}

func TestMigrateAffectedAreaSizes_NothingToDo(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.MigrateAffectedAreaSizes(app); err != nil {
		t.Fatalf("MigrateAffectedAreaSizes() error: %v", err)
	}
}
