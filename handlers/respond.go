package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// readJSON binds the JSON request body into dst. Bodies larger than
// maxJSONBody fail with *http.MaxBytesError.
func readJSON(e *core.RequestEvent, dst any) error {
	if e.Request.ContentLength == 0 {
		return errEmptyBody
	}
	e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, maxJSONBody)
	if err := e.BindBody(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// jsonError writes {"error": message}.
func jsonError(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, map[string]any{"error": message})
}

// fieldErrors writes a 400 with the first message under "error" and every
// field message under "fields".
func fieldErrors(e *core.RequestEvent, fields map[string]string) error {
	return e.JSON(http.StatusBadRequest, map[string]any{
		"error":  services.FirstError(fields),
		"fields": fields,
	})
}

// validationFailed maps an ozzo validation error onto fieldErrors.
func validationFailed(e *core.RequestEvent, err error) error {
	return fieldErrors(e, services.FieldErrors(err))
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

// catalogFor returns the rate catalog priced with the user's configuration,
// or the defaults for anonymous callers.
func catalogFor(e *core.RequestEvent) services.Catalog {
	catalog := services.DefaultCatalog()
	userID := currentUserID(e)
	if userID == "" {
		return catalog
	}
	cfg, _, err := services.LoadPricingConfig(e.App, userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Warn("pricing: using default rates")
		return catalog
	}
	return catalog.WithPricing(cfg)
}
