package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase/core"
)

// Toast types understood by the page script.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastWarning = "warning"
	ToastInfo    = "info"
)

// flashCookie carries the last toast across a full-page redirect.
const flashCookie = "flash_toast"

type toast struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// SetToast asks the pricing editor to show a toast. The toast is added under
// "showToast" to any HX-Trigger events already on the response, and mirrored
// into a short-lived cookie for responses HTMX does not handle.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	t := toast{Message: message, Type: toastType}
	header := e.Response.Header()

	if trigger, err := mergeTrigger(header.Get("HX-Trigger"), t); err != nil {
		log.WithError(err).WithField("toast", toastType).Error("toast: failed to encode HX-Trigger")
	} else {
		header.Set("HX-Trigger", trigger)
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	http.SetCookie(e.Response, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		MaxAge:   10,
		SameSite: http.SameSiteLaxMode,
	})
}

// mergeTrigger returns the HX-Trigger value with t set as the showToast
// event. An existing value that is not a JSON object is replaced.
func mergeTrigger(existing string, t toast) (string, error) {
	events := map[string]any{}
	if existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			log.WithError(err).Warn("toast: existing HX-Trigger is not a JSON object, replacing it")
			events = map[string]any{}
		}
	}
	events["showToast"] = t

	data, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ErrorToast responds with statusCode and message, shows message as an error
// toast and tells HTMX not to swap the body.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, ToastError, message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}
