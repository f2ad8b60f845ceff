package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// HandleScopeSave upserts the scope for draft.reportId. The summary in the
// response is always recomputed here from the caller's pricing.
// Route: POST /api/scopes
func HandleScopeSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var draft services.ScopeDraft
		if err := readJSON(e, &draft); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		draft.ReportID = strings.TrimSpace(draft.ReportID)
		if draft.ReportID == "" {
			return fieldErrors(e, map[string]string{"reportId": "reportId is required"})
		}

		scope, err := services.UpsertScope(app, currentUserID(e), draft, catalogFor(e))
		if err != nil {
			log.WithError(err).WithField("report", draft.ReportID).Error("scope_save: upsert failed")
			return jsonError(e, http.StatusInternalServerError, "Could not save scope")
		}

		log.WithField("report", draft.ReportID).WithField("total", scope.Summary.Total).Info("scope saved")
		return e.JSON(http.StatusOK, map[string]any{"scope": scope})
	}
}

// HandleScopeGet returns the saved scope for a report.
// Route: GET /api/scopes?reportId=
func HandleScopeGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		reportID := strings.TrimSpace(e.Request.URL.Query().Get("reportId"))
		if reportID == "" {
			return fieldErrors(e, map[string]string{"reportId": "reportId is required"})
		}

		scope, err := services.LoadScope(app, reportID)
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Scope not found")
		}
		if err != nil {
			log.WithError(err).WithField("report", reportID).Error("scope_get: load failed")
			return jsonError(e, http.StatusInternalServerError, "Could not load scope")
		}
		return e.JSON(http.StatusOK, map[string]any{"scope": scope})
	}
}

// HandleScopeExport downloads the saved scope as an .xlsx workbook.
// Route: GET /api/scopes/{reportId}/export
func HandleScopeExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		reportID := e.Request.PathValue("reportId")
		scope, err := services.LoadScope(app, reportID)
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Scope not found")
		}
		if err != nil {
			log.WithError(err).WithField("report", reportID).Error("scope_export: load failed")
			return jsonError(e, http.StatusInternalServerError, "Could not load scope")
		}

		data := services.NewScopeExportData(scope.Draft, scope.Summary, services.FormatDateString(scope.Updated))
		content, err := services.GenerateScopeExcel(data)
		if err != nil {
			log.WithError(err).WithField("report", reportID).Error("scope_export: excel generation failed")
			return jsonError(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("Scope_%s.xlsx", sanitizeFilename(reportID))
		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(content)
		return err
	}
}
