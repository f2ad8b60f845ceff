package handlers

import (
	"net/http"
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"restoreassist/testhelpers"
)

func TestHandleEnvironmentalAdd_DerivesDewPoint(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	inspection := testhelpers.CreateTestInspection(t, app, "RA-2025-0101", "1 Dew St")

	req := newJSONRequest(t, http.MethodPost, "/", map[string]any{
		"temperature":    25,
		"humidity":       60,
		"dewPoint":       99,
		"airCirculation": true,
	})
	req.SetPathValue("id", inspection.Id)
	rec := serve(t, app, HandleEnvironmentalAdd(app), req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	reading, _ := decodeBody(t, rec)["reading"].(map[string]any)
	if reading["dewPoint"] != 17.0 {
		t.Errorf("expected derived dew point 17, got %v", reading["dewPoint"])
	}

	stored, _ := app.FindAllRecords("environmental_readings")
	if len(stored) != 1 || stored[0].GetFloat("dew_point") != 17 {
		t.Errorf("expected one stored reading with dew point 17")
	}
}

func TestHandleSectionAdd_Validation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	inspection := testhelpers.CreateTestInspection(t, app, "RA-2025-0102", "2 Check St")

	tests := []struct {
		name      string
		handler   func(*core.RequestEvent) error
		body      map[string]any
		wantField string
	}{
		{"humidity out of range", HandleEnvironmentalAdd(app), map[string]any{"temperature": 20, "humidity": 120}, "humidity"},
		{"moisture without location", HandleMoistureAdd(app), map[string]any{"level": 20}, "location"},
		{"moisture level over 100", HandleMoistureAdd(app), map[string]any{"location": "Hall", "level": 140}, "level"},
		{"moisture bad depth", HandleMoistureAdd(app), map[string]any{"location": "Hall", "level": 10, "depth": "Deep"}, "depth"},
		{"area without materials", HandleAffectedAreaAdd(app), map[string]any{"roomType": "Lounge", "length": 3, "width": 3}, "materials"},
		{"area zero width", HandleAffectedAreaAdd(app), map[string]any{"roomType": "Lounge", "length": 3, "width": 0, "materials": []string{"Carpet"}}, "width"},
		{"scope item blank type", HandleScopeItemAdd(app), map[string]any{"itemType": "  "}, "itemType"},
		{"equipment zero quantity", HandleEquipmentAdd(app), map[string]any{"type": "Air Mover", "quantity": 0}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/", tt.body)
			req.SetPathValue("id", inspection.Id)
			rec := serve(t, app, tt.handler, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
			fields, _ := decodeBody(t, rec)["fields"].(map[string]any)
			if _, ok := fields[tt.wantField]; !ok {
				t.Errorf("expected field error for %q, got %v", tt.wantField, fields)
			}
		})
	}
}

func TestHandleSectionAdd_Saves(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	inspection := testhelpers.CreateTestInspection(t, app, "RA-2025-0103", "3 Save St")

	tests := []struct {
		name       string
		handler    func(*core.RequestEvent) error
		body       map[string]any
		key        string
		collection string
		check      func(t *testing.T, got map[string]any)
	}{
		{
			name:       "moisture defaults depth",
			handler:    HandleMoistureAdd(app),
			body:       map[string]any{"location": "Kitchen", "surfaceType": "Plasterboard", "level": 28.5},
			key:        "reading",
			collection: "moisture_readings",
			check: func(t *testing.T, got map[string]any) {
				if got["depth"] != "Surface" {
					t.Errorf("expected default depth Surface, got %v", got["depth"])
				}
			},
		},
		{
			name:       "area derived from dimensions",
			handler:    HandleAffectedAreaAdd(app),
			body:       map[string]any{"roomType": "Bedroom", "length": 4, "width": 3.5, "area": 1, "materials": []string{"Carpet"}},
			key:        "area",
			collection: "affected_areas",
			check: func(t *testing.T, got map[string]any) {
				if got["area"] != 14.0 {
					t.Errorf("expected area 14, got %v", got["area"])
				}
			},
		},
		{
			name:       "scope item",
			handler:    HandleScopeItemAdd(app),
			body:       map[string]any{"itemType": "remove_carpet", "description": "Remove carpet", "selected": true},
			key:        "item",
			collection: "scope_items",
			check: func(t *testing.T, got map[string]any) {
				if got["selected"] != true {
					t.Errorf("expected selected item, got %v", got)
				}
			},
		},
		{
			name:       "equipment",
			handler:    HandleEquipmentAdd(app),
			body:       map[string]any{"type": "Air Mover", "quantity": 4},
			key:        "equipment",
			collection: "inspection_equipment",
			check: func(t *testing.T, got map[string]any) {
				if got["quantity"] != 4.0 {
					t.Errorf("expected quantity 4, got %v", got["quantity"])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/", tt.body)
			req.SetPathValue("id", inspection.Id)
			rec := serve(t, app, tt.handler, req)

			if rec.Code != http.StatusCreated {
				t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
			}
			got, _ := decodeBody(t, rec)[tt.key].(map[string]any)
			if got["id"] == nil || got["id"] == "" {
				t.Error("expected the saved record id in the response")
			}
			tt.check(t, got)

			stored, _ := app.FindAllRecords(tt.collection)
			if len(stored) != 1 {
				t.Errorf("expected 1 stored %s record, got %d", tt.collection, len(stored))
			}
		})
	}
}

func TestHandleSectionAdd_UnknownInspection(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := newJSONRequest(t, http.MethodPost, "/", map[string]any{"location": "Hall", "level": 10})
	req.SetPathValue("id", "missing")
	rec := serve(t, app, HandleMoistureAdd(app), req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
