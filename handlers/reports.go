package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/aiclient"
	"restoreassist/services"
	"restoreassist/templates"
)

type reportCreateRequest struct {
	ReportID        string `json:"reportId"`
	PropertyAddress string `json:"propertyAddress"`
	Postcode        string `json:"postcode"`
	ClientName      string `json:"clientName"`
	InspectionID    string `json:"inspectionId"`
}

// HandleReportCreate stores an empty draft report so a number can be reserved
// before the inspection is done.
// Route: POST /api/reports
func HandleReportCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req reportCreateRequest
		if err := readJSON(e, &req); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		req.ReportID = strings.TrimSpace(req.ReportID)
		req.PropertyAddress = strings.TrimSpace(req.PropertyAddress)
		if req.PropertyAddress == "" {
			return fieldErrors(e, map[string]string{"propertyAddress": "Property address is required"})
		}

		now := time.Now()
		if req.ReportID == "" {
			number, err := services.GenerateReportNumber(app, now)
			if err != nil {
				log.WithError(err).Error("report_create: could not generate report number")
				return jsonError(e, http.StatusInternalServerError, "Could not create report")
			}
			req.ReportID = number
		} else if _, err := services.FindReport(app, req.ReportID); err == nil {
			return jsonError(e, http.StatusConflict, "Report "+req.ReportID+" already exists")
		}

		report := services.Report{
			ReportID: req.ReportID,
			Header: services.ReportHeader{
				ReportNumber: req.ReportID,
				Title:        "Water Damage Inspection Report",
				Date:         now.UTC().Format(time.RFC3339),
			},
			Property: services.ReportProperty{
				Address:    req.PropertyAddress,
				Postcode:   strings.TrimSpace(req.Postcode),
				ClientName: strings.TrimSpace(req.ClientName),
			},
		}
		rec, err := services.SaveReport(app, report, currentUserID(e), req.InspectionID, services.ReportStatusDraft)
		if err != nil {
			log.WithError(err).WithField("report", req.ReportID).Error("report_create: save failed")
			return jsonError(e, http.StatusInternalServerError, "Could not create report")
		}

		report.ID = rec.Id
		log.WithField("report", req.ReportID).Info("report shell created")
		return e.JSON(http.StatusCreated, map[string]any{"report": report, "id": rec.Id})
	}
}

// HandleReportGet returns a report document by record ID or report number.
// Route: GET /api/reports/{id}
func HandleReportGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		report, err := services.LoadReport(app, id)
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Report not found")
		}
		if err != nil {
			log.WithError(err).WithField("report", id).Error("report_get: load failed")
			return jsonError(e, http.StatusInternalServerError, "Could not load report")
		}
		return e.JSON(http.StatusOK, map[string]any{"report": report})
	}
}

// HandleReportView renders the printable report.
// Route: GET /reports/{id}/view?variant=standard|detailed|client
func HandleReportView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		report, err := services.LoadReport(app, id)
		if err != nil {
			status, message := http.StatusInternalServerError, ""
			if errors.Is(err, services.ErrNotFound) {
				status, message = http.StatusNotFound, "Report "+id+" was not found."
			} else {
				log.WithError(err).WithField("report", id).Error("report_view: load failed")
			}
			e.Response.WriteHeader(status)
			return templates.ErrorPage(status, message).Render(e.Request.Context(), e.Response)
		}

		variant := templates.ParseVariant(e.Request.URL.Query().Get("variant"))
		component := templates.ReportPage(*report, variant)
		return component.Render(e.Request.Context(), e.Response)
	}
}

// HandleAnalyzeTechnicianReport classifies free text locally and, when an
// analysis service is configured, asks it for a structured analysis. Service
// failures fall back to the local analysis document.
// Route: POST /api/reports/analyze-technician-report
func HandleAnalyzeTechnicianReport(ai *aiclient.Client) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := readJSON(e, &req); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		if strings.TrimSpace(req.Text) == "" {
			return fieldErrors(e, map[string]string{"text": "Report text is required"})
		}

		classification := services.QuickClassify(req.Text)
		source := "fallback"
		analysis := services.FallbackAnalysis(req.Text)
		if ai.Enabled() {
			result, err := ai.Analyze(e.Request.Context(), req.Text)
			if err != nil {
				log.WithError(err).Warn("analyze: ai service failed, using fallback analysis")
			} else {
				analysis = result
				source = "ai"
			}
		}

		return e.JSON(http.StatusOK, map[string]any{
			"classification": classification,
			"analysis":       analysis,
			"source":         source,
		})
	}
}

type generateRequest struct {
	InspectionID string `json:"inspectionId"`
	ReportID     string `json:"reportId"`
	Notes        string `json:"notes"`
}

// HandleGenerateReport builds the report document for an inspection, through
// the AI service when configured and by local assembly otherwise, and stores
// it under the inspection's report number.
// Route: POST /api/reports/generate-enhanced
func HandleGenerateReport(app *pocketbase.PocketBase, ai *aiclient.Client) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req generateRequest
		if err := readJSON(e, &req); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		req.InspectionID = strings.TrimSpace(req.InspectionID)
		req.ReportID = strings.TrimSpace(req.ReportID)

		inspectionID := req.InspectionID
		if inspectionID == "" {
			if req.ReportID == "" {
				return fieldErrors(e, map[string]string{"inspectionId": "inspectionId or reportId is required"})
			}
			rec, err := services.FindInspectionByReportID(app, req.ReportID)
			if errors.Is(err, services.ErrNotFound) {
				return jsonError(e, http.StatusNotFound, "Inspection not found")
			}
			if err != nil {
				log.WithError(err).WithField("report", req.ReportID).Error("generate: inspection lookup failed")
				return jsonError(e, http.StatusInternalServerError, "Could not generate report")
			}
			inspectionID = rec.Id
		}

		form, err := services.LoadInspection(app, inspectionID)
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}
		if err != nil {
			log.WithError(err).WithField("inspection", inspectionID).Error("generate: load failed")
			return jsonError(e, http.StatusInternalServerError, "Could not generate report")
		}

		var summary *services.ScopeSummary
		if saved, err := services.LoadScope(app, form.ReportID); err == nil {
			summary = &saved.Summary
		} else if !errors.Is(err, services.ErrNotFound) {
			log.WithError(err).WithField("report", form.ReportID).Warn("generate: could not load scope")
		}

		var report services.Report
		source := "local"
		if ai.Enabled() {
			generated, err := ai.Generate(e.Request.Context(), aiclient.GenerateRequest{Inspection: *form, Scope: summary})
			if err != nil {
				log.WithError(err).WithField("report", form.ReportID).Warn("generate: ai service failed, assembling locally")
			} else {
				report = *generated
				source = "ai"
			}
		}
		if source == "local" {
			report = services.BuildReport(*form, summary, catalogFor(e), time.Now())
		}

		report.ReportID = form.ReportID
		report.Header.ReportNumber = form.ReportID
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			report.Notes = notes
		}
		if profile := GetUserProfile(e.Request); profile != nil && report.Header.Company == "" {
			report.Header.Company = profile.Company
		}

		rec, err := services.SaveReport(app, report, currentUserID(e), form.ID, services.ReportStatusGenerated)
		if err != nil {
			log.WithError(err).WithField("report", form.ReportID).Error("generate: save failed")
			return jsonError(e, http.StatusInternalServerError, "Could not save report")
		}

		report.ID = rec.Id
		log.WithField("report", form.ReportID).WithField("source", source).Info("report generated")
		return e.JSON(http.StatusOK, map[string]any{
			"report": report,
			"id":     rec.Id,
			"source": source,
		})
	}
}
