package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apex/log"

	"restoreassist/apiclient"
	"restoreassist/services"
)

// Submit validates the form and, when it is complete, sends each section in
// order: environmental, every moisture reading, the floor plan, every affected
// area, every scope item and finally the submission itself. The first failure
// stops the sequence; sections already sent stay on the server.
func (c *Controller) Submit(ctx context.Context) (*apiclient.SubmitResult, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	form := cloneForm(c.form)
	if errs := services.ValidateForSubmit(form); len(errs) > 0 {
		c.mu.Unlock()
		verr := &ValidationError{Fields: errs}
		c.notify(ToastError, services.FirstError(errs))
		return nil, verr
	}
	if form.ID == "" {
		c.mu.Unlock()
		c.notify(ToastWarning, "The inspection is still being created")
		return nil, ErrNoInspection
	}
	c.submitting = true
	plan := c.floorPlan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	logger := log.WithField("inspection", form.ID)
	fail := func(step, message string, err error) (*apiclient.SubmitResult, error) {
		logger.WithError(err).WithField("step", step).Error("intake: submission stopped")
		c.notify(ToastError, message)
		return nil, wrapStep(step, err)
	}

	if _, err := c.api.AddEnvironmental(ctx, form.ID, form.Environmental); err != nil {
		return fail("environmental", "Could not save environmental data", err)
	}
	for i, r := range form.MoistureReadings {
		r.ID = ""
		if _, err := c.api.AddMoisture(ctx, form.ID, r); err != nil {
			return fail(fmt.Sprintf("moisture %d", i+1), "Could not save moisture reading "+r.Location, err)
		}
	}
	if plan != nil {
		var content io.Reader
		if len(plan.content) > 0 {
			content = bytes.NewReader(plan.content)
		}
		saved, err := c.api.UploadFloorPlan(ctx, form.ID, plan.fileName, content, plan.points)
		if err != nil {
			return fail("floor plan", "Could not save the floor plan", err)
		}
		c.mu.Lock()
		c.form.FloorPlan = &saved
		c.mu.Unlock()
	}
	for i, a := range form.AffectedAreas {
		a.ID = ""
		if _, err := c.api.AddAffectedArea(ctx, form.ID, a); err != nil {
			return fail(fmt.Sprintf("affected area %d", i+1), "Could not save affected area "+a.RoomType, err)
		}
	}
	for i, s := range form.ScopeItems {
		s.ID = ""
		if _, err := c.api.AddScopeItem(ctx, form.ID, s); err != nil {
			return fail(fmt.Sprintf("scope item %d", i+1), "Could not save scope item "+s.ItemType, err)
		}
	}

	equipment := make([]services.EquipmentItem, len(form.Equipment))
	for i, e := range form.Equipment {
		e.ID = ""
		equipment[i] = e
	}
	result, err := c.api.Submit(ctx, form.ID, apiclient.SubmitRequest{
		Override:   form.Override,
		Equipment:  equipment,
		DryingDays: form.DryingDays,
	})
	if err != nil {
		return fail("submit", submitFailureMessage(err), err)
	}

	c.mu.Lock()
	c.form.Status = result.Inspection.Status
	if result.Classification != nil {
		cl := *result.Classification
		c.form.Classification = &cl
	}
	c.mu.Unlock()

	logger.WithField("status", result.Inspection.Status).Info("intake: inspection submitted")
	c.notify(ToastSuccess, "Inspection submitted")
	return result, nil
}

func submitFailureMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return "Could not submit the inspection"
}

// QuickFill loads sample data into the form, spending one Quick Fill credit.
// The inspection id and report number are kept.
func (c *Controller) QuickFill(ctx context.Context) error {
	credits, err := c.api.QuickFillCredits(ctx)
	if err != nil {
		log.WithError(err).Error("intake: failed to read quick fill credits")
		c.notify(ToastError, "Could not check Quick Fill credits")
		return err
	}
	if credits <= 0 {
		c.notify(ToastWarning, "No Quick Fill credits remaining")
		return ErrNoCredits
	}

	sample, remaining, err := c.api.ConsumeQuickFill(ctx)
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusPaymentRequired {
			c.notify(ToastWarning, "No Quick Fill credits remaining")
			return ErrNoCredits
		}
		log.WithError(err).Error("intake: failed to consume quick fill credit")
		c.notify(ToastError, "Quick Fill failed")
		return err
	}

	c.mu.Lock()
	c.form.PropertyAddress = sample.PropertyAddress
	c.form.PropertyPostcode = sample.PropertyPostcode
	env := sample.Environmental
	c.form.Environmental = services.EnvironmentalReading{
		Temperature:    env.Temperature,
		Humidity:       env.Humidity,
		DewPoint:       services.DewPoint(env.Temperature, env.Humidity),
		AirCirculation: env.AirCirculation,
	}
	c.form.MoistureReadings = nil
	for _, r := range sample.MoistureReadings {
		r.ID = newTempID()
		c.form.MoistureReadings = append(c.form.MoistureReadings, r)
	}
	c.form.AffectedAreas = nil
	for _, a := range sample.AffectedAreas {
		a.ID = newTempID()
		a.Area = services.Area(a.Length, a.Width)
		c.form.AffectedAreas = append(c.form.AffectedAreas, a)
	}
	c.form.ScopeItems = nil
	for _, s := range sample.ScopeItems {
		s.ID = newTempID()
		c.form.ScopeItems = append(c.form.ScopeItems, s)
	}
	c.scheduleCreateLocked()
	c.mu.Unlock()

	c.notify(ToastSuccess, fmt.Sprintf("Sample data loaded (%d credits left)", remaining))
	return nil
}
