package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/aiclient"
	"restoreassist/services"
)

// submitRequest is the body of POST /api/inspections/{id}/submit.
type submitRequest struct {
	Override   services.ClassificationOverride `json:"override"`
	Equipment  []services.EquipmentItem        `json:"equipment"`
	DryingDays int                             `json:"dryingDays"`
}

// HandleInspectionSubmit finalises an inspection: it checks completeness,
// stores the override, equipment and drying estimate, marks the inspection
// submitted and hands it to the classifier when one is configured.
// Route: POST /api/inspections/{id}/submit
func HandleInspectionSubmit(app *pocketbase.PocketBase, ai *aiclient.Client) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		form, err := services.LoadInspection(app, id)
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}
		if err != nil {
			log.WithError(err).WithField("inspection", id).Error("submit: could not load inspection")
			return jsonError(e, http.StatusInternalServerError, "Could not load inspection")
		}

		var req submitRequest
		if err := readJSON(e, &req); err != nil && !errors.Is(err, errEmptyBody) {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}

		fields := make(map[string]string)
		if err := services.ValidateOverride(req.Override); err != nil {
			for k, v := range services.FieldErrors(err) {
				fields["override."+k] = v
			}
		}
		for i, item := range req.Equipment {
			if err := services.ValidateEquipment(item); err != nil {
				for k, v := range services.FieldErrors(err) {
					fields[fmt.Sprintf("equipment.%d.%s", i, k)] = v
				}
			}
		}
		if req.DryingDays < 0 {
			fields["dryingDays"] = "Drying days cannot be negative"
		}
		if len(fields) > 0 {
			return fieldErrors(e, fields)
		}

		form.Override = req.Override
		if req.Equipment != nil {
			form.Equipment = req.Equipment
		}
		form.DryingDays = req.DryingDays
		if missing := services.ValidateForSubmit(*form); len(missing) > 0 {
			return fieldErrors(e, missing)
		}

		err = app.RunInTransaction(func(txApp core.App) error {
			rec, err := txApp.FindRecordById("inspections", id)
			if err != nil {
				return err
			}
			if req.Equipment != nil {
				if err := replaceEquipment(txApp, id, req.Equipment); err != nil {
					return err
				}
			}
			rec.Set("override_category", req.Override.Category)
			rec.Set("override_class", req.Override.Class)
			rec.Set("drying_days", req.DryingDays)
			rec.Set("status", services.InspectionStatusSubmitted)
			rec.Set("submitted_at", time.Now().UTC())
			return txApp.Save(rec)
		})
		if err != nil {
			log.WithError(err).WithField("inspection", id).Error("submit: could not save submission")
			return jsonError(e, http.StatusInternalServerError, "Could not submit inspection")
		}
		form.Status = services.InspectionStatusSubmitted
		log.WithField("inspection", id).WithField("report", form.ReportID).Info("inspection submitted")

		var classification *services.Classification
		if ai.Enabled() {
			classification = classifySubmission(app, ai, e, form)
		}

		return e.JSON(http.StatusOK, map[string]any{
			"inspection":     form,
			"classification": classification,
		})
	}
}

// classifySubmission asks the classifier for the classification of record
// and stores it. Failures leave the inspection submitted but unclassified.
func classifySubmission(app *pocketbase.PocketBase, ai *aiclient.Client, e *core.RequestEvent, form *services.InspectionForm) *services.Classification {
	logger := log.WithField("inspection", form.ID)

	c, err := ai.Classify(e.Request.Context(), *form)
	if err != nil {
		logger.WithError(err).Warn("submit: classification failed, inspection left submitted")
		return nil
	}
	c = services.ApplyOverride(c, form.Override)

	rec, err := app.FindRecordById("inspections", form.ID)
	if err != nil {
		logger.WithError(err).Error("submit: inspection vanished before classification")
		return nil
	}
	rec.Set("classification", c)
	rec.Set("status", services.InspectionStatusClassified)
	if err := app.Save(rec); err != nil {
		logger.WithError(err).Error("submit: could not store classification")
		return nil
	}

	form.Classification = &c
	form.Status = services.InspectionStatusClassified
	logger.WithField("category", c.Category).WithField("class", c.Class).Info("inspection classified")
	return &c
}

// replaceEquipment swaps the stored equipment list for items.
func replaceEquipment(app core.App, inspectionID string, items []services.EquipmentItem) error {
	existing, err := app.FindRecordsByFilter(
		"inspection_equipment",
		"inspection = {:inspectionId}",
		"", 0, 0,
		map[string]any{"inspectionId": inspectionID},
	)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if err := app.Delete(rec); err != nil {
			return err
		}
	}
	for _, item := range items {
		if _, err := saveSectionRecord(app, "inspection_equipment", inspectionID, map[string]any{
			"type":     item.Type,
			"quantity": item.Quantity,
		}); err != nil {
			return err
		}
	}
	return nil
}
