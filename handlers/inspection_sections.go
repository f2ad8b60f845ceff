package handlers

import (
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// saveSectionRecord appends one record to a section collection.
func saveSectionRecord(app core.App, collection, inspectionID string, fields map[string]any) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, err
	}
	rec := core.NewRecord(col)
	rec.Set("inspection", inspectionID)
	for k, v := range fields {
		rec.Set(k, v)
	}
	if err := app.Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// HandleEnvironmentalAdd appends an environmental reading. The dew point is
// always derived server-side.
// Route: POST /api/inspections/{id}/environmental
func HandleEnvironmentalAdd(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		var r services.EnvironmentalReading
		if err := readJSON(e, &r); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		if err := services.ValidateEnvironmental(r); err != nil {
			return validationFailed(e, err)
		}
		r.DewPoint = services.DewPoint(r.Temperature, r.Humidity)

		rec, err := saveSectionRecord(app, "environmental_readings", inspection.Id, map[string]any{
			"temperature":     r.Temperature,
			"humidity":        r.Humidity,
			"dew_point":       r.DewPoint,
			"air_circulation": r.AirCirculation,
		})
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("environmental_add: could not save reading")
			return jsonError(e, http.StatusInternalServerError, "Could not save environmental reading")
		}
		return e.JSON(http.StatusCreated, map[string]any{"reading": services.EnvironmentalFromRecord(rec)})
	}
}

// HandleMoistureAdd appends one moisture reading.
// Route: POST /api/inspections/{id}/moisture
func HandleMoistureAdd(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		var m services.MoistureReading
		if err := readJSON(e, &m); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		m.Location = strings.TrimSpace(m.Location)
		if m.Depth == "" {
			m.Depth = services.DepthSurface
		}
		if err := services.ValidateMoisture(m); err != nil {
			return validationFailed(e, err)
		}

		rec, err := saveSectionRecord(app, "moisture_readings", inspection.Id, moistureFields(m))
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("moisture_add: could not save reading")
			return jsonError(e, http.StatusInternalServerError, "Could not save moisture reading")
		}
		return e.JSON(http.StatusCreated, map[string]any{"reading": services.MoistureFromRecord(rec)})
	}
}

func moistureFields(m services.MoistureReading) map[string]any {
	return map[string]any{
		"location":     m.Location,
		"surface_type": m.SurfaceType,
		"level":        m.Level,
		"depth":        m.Depth,
	}
}

// HandleAffectedAreaAdd appends an affected area. The area is always derived
// server-side from its dimensions.
// Route: POST /api/inspections/{id}/affected-areas
func HandleAffectedAreaAdd(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		var a services.AffectedArea
		if err := readJSON(e, &a); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		a.RoomType = strings.TrimSpace(a.RoomType)
		if err := services.ValidateAffectedArea(a); err != nil {
			return validationFailed(e, err)
		}
		a.Area = services.Area(a.Length, a.Width)

		rec, err := saveSectionRecord(app, "affected_areas", inspection.Id, map[string]any{
			"room_type":        a.RoomType,
			"length":           a.Length,
			"width":            a.Width,
			"area":             a.Area,
			"materials":        a.Materials,
			"water_source":     strings.TrimSpace(a.WaterSource),
			"hours_since_loss": a.HoursSinceLoss,
		})
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("affected_area_add: could not save area")
			return jsonError(e, http.StatusInternalServerError, "Could not save affected area")
		}
		return e.JSON(http.StatusCreated, map[string]any{"area": services.AffectedAreaFromRecord(rec)})
	}
}

// HandleScopeItemAdd appends a scope item.
// Route: POST /api/inspections/{id}/scope-items
func HandleScopeItemAdd(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		var s services.ScopeItem
		if err := readJSON(e, &s); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		s.ItemType = strings.TrimSpace(s.ItemType)
		if err := services.ValidateScopeItem(s); err != nil {
			return validationFailed(e, err)
		}

		rec, err := saveSectionRecord(app, "scope_items", inspection.Id, map[string]any{
			"item_type":   s.ItemType,
			"description": s.Description,
			"selected":    s.Selected,
		})
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("scope_item_add: could not save item")
			return jsonError(e, http.StatusInternalServerError, "Could not save scope item")
		}
		return e.JSON(http.StatusCreated, map[string]any{"item": services.ScopeItemFromRecord(rec)})
	}
}

// HandleEquipmentAdd appends deployed equipment.
// Route: POST /api/inspections/{id}/equipment
func HandleEquipmentAdd(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		var item services.EquipmentItem
		if err := readJSON(e, &item); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		item.Type = strings.TrimSpace(item.Type)
		if err := services.ValidateEquipment(item); err != nil {
			return validationFailed(e, err)
		}

		rec, err := saveSectionRecord(app, "inspection_equipment", inspection.Id, map[string]any{
			"type":     item.Type,
			"quantity": item.Quantity,
		})
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("equipment_add: could not save equipment")
			return jsonError(e, http.StatusInternalServerError, "Could not save equipment")
		}
		return e.JSON(http.StatusCreated, map[string]any{"equipment": services.EquipmentFromRecord(rec)})
	}
}
