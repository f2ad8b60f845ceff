package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// inspectionCreateRequest is the body of POST /api/inspections.
type inspectionCreateRequest struct {
	ReportID         string `json:"reportId"`
	PropertyAddress  string `json:"propertyAddress"`
	PropertyPostcode string `json:"propertyPostcode"`
	TechnicianName   string `json:"technicianName"`
}

// HandleInspectionLookup returns the inspection for a report ID, or
// {"inspection": null} when none exists yet.
// Route: GET /api/inspections?reportId=
func HandleInspectionLookup(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		reportID := strings.TrimSpace(e.Request.URL.Query().Get("reportId"))
		if reportID == "" {
			return fieldErrors(e, map[string]string{"reportId": "reportId is required"})
		}

		rec, err := services.FindInspectionByReportID(app, reportID)
		if errors.Is(err, services.ErrNotFound) {
			return e.JSON(http.StatusOK, map[string]any{"inspection": nil})
		}
		if err != nil {
			log.WithError(err).WithField("report", reportID).Error("inspection_lookup: query failed")
			return jsonError(e, http.StatusInternalServerError, "Could not load inspection")
		}

		form, err := services.LoadInspection(app, rec.Id)
		if err != nil {
			log.WithError(err).WithField("inspection", rec.Id).Error("inspection_lookup: could not load sections")
			return jsonError(e, http.StatusInternalServerError, "Could not load inspection")
		}
		return e.JSON(http.StatusOK, map[string]any{"inspection": form})
	}
}

// HandleInspectionCreate creates an inspection once address and postcode are
// known. A repeat create for the same report ID returns the existing record.
// Route: POST /api/inspections
func HandleInspectionCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req inspectionCreateRequest
		if err := readJSON(e, &req); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		req.ReportID = strings.TrimSpace(req.ReportID)
		req.PropertyAddress = strings.TrimSpace(req.PropertyAddress)
		req.PropertyPostcode = strings.TrimSpace(req.PropertyPostcode)
		req.TechnicianName = strings.TrimSpace(req.TechnicianName)

		fields := make(map[string]string)
		if req.PropertyAddress == "" {
			fields["propertyAddress"] = "Property address is required"
		}
		if req.PropertyPostcode == "" {
			fields["propertyPostcode"] = "Postcode is required"
		}
		if len(fields) > 0 {
			return fieldErrors(e, fields)
		}

		if req.ReportID == "" {
			number, err := services.GenerateReportNumber(app, time.Now())
			if err != nil {
				log.WithError(err).Error("inspection_create: could not generate report number")
				return jsonError(e, http.StatusInternalServerError, "Could not create inspection")
			}
			req.ReportID = number
		} else if existing, err := services.FindInspectionByReportID(app, req.ReportID); err == nil {
			form, err := services.LoadInspection(app, existing.Id)
			if err != nil {
				return jsonError(e, http.StatusInternalServerError, "Could not load inspection")
			}
			return e.JSON(http.StatusOK, map[string]any{"inspection": form, "created": false})
		}

		col, err := app.FindCollectionByNameOrId("inspections")
		if err != nil {
			log.WithError(err).Error("inspection_create: could not find inspections collection")
			return jsonError(e, http.StatusInternalServerError, "Could not create inspection")
		}

		rec := core.NewRecord(col)
		rec.Set("report_id", req.ReportID)
		rec.Set("user_id", currentUserID(e))
		rec.Set("property_address", req.PropertyAddress)
		rec.Set("property_postcode", req.PropertyPostcode)
		rec.Set("technician_name", req.TechnicianName)
		rec.Set("status", services.InspectionStatusDraft)
		if err := app.Save(rec); err != nil {
			log.WithError(err).WithField("report", req.ReportID).Error("inspection_create: could not save inspection")
			return jsonError(e, http.StatusInternalServerError, "Could not create inspection")
		}

		log.WithField("report", req.ReportID).WithField("inspection", rec.Id).Info("inspection created")
		form := services.InspectionHeaderFromRecord(rec)
		return e.JSON(http.StatusCreated, map[string]any{"inspection": form, "created": true})
	}
}

// HandleInspectionGet returns an inspection with all of its sections.
// Route: GET /api/inspections/{id}
func HandleInspectionGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		form, err := services.LoadInspection(app, e.Request.PathValue("id"))
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}
		if err != nil {
			log.WithError(err).Error("inspection_get: could not load inspection")
			return jsonError(e, http.StatusInternalServerError, "Could not load inspection")
		}
		return e.JSON(http.StatusOK, map[string]any{"inspection": form})
	}
}

// HandleClassificationPreview returns the advisory classification computed
// from the stored affected areas and any technician override.
// Route: GET /api/inspections/{id}/classification-preview
func HandleClassificationPreview(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		form, err := services.LoadInspection(app, e.Request.PathValue("id"))
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}
		if err != nil {
			log.WithError(err).Error("classification_preview: could not load inspection")
			return jsonError(e, http.StatusInternalServerError, "Could not load inspection")
		}

		preview := services.ApplyOverride(services.Preview(form.AffectedAreas), form.Override)
		return e.JSON(http.StatusOK, map[string]any{
			"classification": preview,
			"totalArea":      services.TotalArea(form.AffectedAreas),
			"advisory":       preview.Advisory,
		})
	}
}
