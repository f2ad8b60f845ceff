package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"

	"restoreassist/services"
)

// allowedImageTypes are the sniffed types accepted for photos and floor plans.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic"}

var (
	errNoImage       = errors.New("please attach an image")
	errImageTooLarge = errors.New("image is too large")
	errNotAnImage    = errors.New("file is not a supported image")
)

// readImageUpload reads the named multipart file, enforcing maxBytes and
// sniffing the content type from the bytes rather than the client header.
func readImageUpload(e *core.RequestEvent, field string, maxBytes int64) (*filesystem.File, error) {
	file, header, err := e.Request.FormFile(field)
	if err != nil {
		return nil, errNoImage
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, errImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return nil, errNotAnImage
	}

	name := header.Filename
	if name == "" || !strings.Contains(name, ".") {
		name = "upload" + mt.Extension()
	}
	return filesystem.NewFileFromBytes(data, name)
}

// uploadStatus maps upload errors onto HTTP statuses.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, errImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNotAnImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoImage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, errImageTooLarge):
		return "Image is too large"
	case errors.Is(err, errNotAnImage):
		return "File is not a supported image"
	case errors.Is(err, errNoImage):
		return "Please attach an image"
	}
	return "Could not read upload"
}

// HandlePhotoUpload stores one site photo and returns its URL.
// Route: POST /api/inspections/{id}/photos
func HandlePhotoUpload(app *pocketbase.PocketBase, maxBytes int64) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		if err := e.Request.ParseMultipartForm(maxBytes + 1<<20); err != nil {
			return jsonError(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		image, err := readImageUpload(e, "image", maxBytes)
		if err != nil {
			return jsonError(e, uploadStatus(err), uploadMessage(err))
		}

		rec, err := saveSectionRecord(app, "photos", inspection.Id, map[string]any{
			"image":    image,
			"location": strings.TrimSpace(e.Request.FormValue("location")),
			"category": strings.TrimSpace(e.Request.FormValue("category")),
		})
		if err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("photo_upload: could not save photo")
			return jsonError(e, http.StatusInternalServerError, "Could not save photo")
		}

		photo := services.PhotoFromRecord(rec)
		return e.JSON(http.StatusCreated, map[string]any{"photo": photo, "url": photo.URL})
	}
}

// HandleFloorPlanUpload stores the floor plan image and its point overlays.
// POST requires an image; PUT may send only new points.
// Route: POST, PUT /api/inspections/{id}/floor-plan
func HandleFloorPlanUpload(app *pocketbase.PocketBase, maxBytes int64) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inspection, err := app.FindRecordById("inspections", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Inspection not found")
		}

		if err := e.Request.ParseMultipartForm(maxBytes + 1<<20); err != nil {
			return jsonError(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		points := []services.FloorPlanPoint{}
		if raw := strings.TrimSpace(e.Request.FormValue("points")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &points); err != nil {
				return fieldErrors(e, map[string]string{"points": "Points must be a JSON array"})
			}
		}

		image, err := readImageUpload(e, "image", maxBytes)
		switch {
		case err == nil:
			inspection.Set("floor_plan", image)
		case errors.Is(err, errNoImage) && e.Request.Method == http.MethodPut && inspection.GetString("floor_plan") != "":
			// keep the stored image
		default:
			return jsonError(e, uploadStatus(err), uploadMessage(err))
		}
		inspection.Set("floor_plan_points", points)

		if err := app.Save(inspection); err != nil {
			log.WithError(err).WithField("inspection", inspection.Id).Error("floor_plan: could not save floor plan")
			return jsonError(e, http.StatusInternalServerError, "Could not save floor plan")
		}

		url := services.FileURL(inspection, inspection.GetString("floor_plan"))
		return e.JSON(http.StatusOK, map[string]any{
			"floorPlan": services.FloorPlan{ImageURL: url, Points: points},
			"url":       url,
		})
	}
}
