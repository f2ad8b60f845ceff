// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProfile creates a user profile with the given tier and Quick Fill
// credits and returns it.
func CreateTestProfile(t *testing.T, app *pocketbase.PocketBase, userID, tier string, credits int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("user_profiles")
	if err != nil {
		t.Fatalf("failed to find user_profiles collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("user_id", userID)
	record.Set("name", "Test "+userID)
	record.Set("subscription_tier", tier)
	record.Set("quick_fill_credits", credits)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test profile: %v", err)
	}

	return record
}

// CreateTestInspection creates a draft inspection for a report and returns it.
func CreateTestInspection(t *testing.T, app *pocketbase.PocketBase, reportID, address string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("inspections")
	if err != nil {
		t.Fatalf("failed to find inspections collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("report_id", reportID)
	record.Set("property_address", address)
	record.Set("property_postcode", "2000")
	record.Set("technician_name", "Test Technician")
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test inspection: %v", err)
	}

	return record
}

// CreateTestSectionRecord creates a record in one of the inspection section
// collections (moisture_readings, affected_areas, ...) and returns it.
func CreateTestSectionRecord(t *testing.T, app *pocketbase.PocketBase, collection, inspectionID string, fields map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	record.Set("inspection", inspectionID)
	for k, v := range fields {
		record.Set(k, v)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}

	return record
}

// CreateTestReport creates a report record whose document carries the given
// number and property address.
func CreateTestReport(t *testing.T, app *pocketbase.PocketBase, reportNumber, address string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("reports")
	if err != nil {
		t.Fatalf("failed to find reports collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("report_number", reportNumber)
	record.Set("status", "generated")
	record.Set("data", map[string]any{
		"reportId": reportNumber,
		"header":   map[string]any{"reportNumber": reportNumber, "title": "Water Damage Inspection Report"},
		"property": map[string]any{"address": address},
	})

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test report: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHTMLNotContains checks that body contains none of the specified fragments.
func AssertHTMLNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if strings.Contains(body, frag) {
			t.Errorf("expected HTML not to contain %q\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
