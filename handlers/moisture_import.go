package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// maxImportFile caps moisture meter exports.
const maxImportFile = 5 << 20

// HandleMoistureImport parses a moisture meter export (.csv or .xlsx) and
// appends every valid row to the inspection. With ?dryRun=true nothing is
// saved and only the parse result is returned.
// Route: POST /api/inspections/{id}/moisture/import
func HandleMoistureImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		if err := e.Request.ParseMultipartForm(maxImportFile); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid upload")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return fieldErrors(e, map[string]string{"file": "Choose a .csv or .xlsx file"})
		}
		defer file.Close()

		result, err := services.ParseMoistureFile(file, header.Filename)
		if err != nil {
			return fieldErrors(e, map[string]string{"file": err.Error()})
		}

		if e.Request.URL.Query().Get("dryRun") == "true" {
			return e.JSON(http.StatusOK, map[string]any{"result": result, "imported": 0})
		}

		imported := 0
		err = app.RunInTransaction(func(txApp core.App) error {
			for _, m := range result.Readings {
				if _, err := saveSectionRecord(txApp, "moisture_readings", inspection.Id, moistureFields(m)); err != nil {
					return err
				}
				imported++
			}
			return nil
		})
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("moisture_import: save failed")
			return jsonError(e, http.StatusInternalServerError, "Could not import readings")
		}

		log.WithField("inspection", inspection.Id).
			WithField("imported", imported).
			WithField("errors", result.ErrorRows).
			Info("moisture readings imported")
		return e.JSON(http.StatusOK, map[string]any{"result": result, "imported": imported})
	}
}
