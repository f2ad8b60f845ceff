package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

type contextKey string

const UserProfileKey contextKey = "userProfile"

// UserIDHeader carries the caller's identity, set by the upstream gateway.
const UserIDHeader = "X-User-Id"

// GetUserProfile extracts the caller's profile from the request context.
func GetUserProfile(r *http.Request) *services.UserProfile {
	if val, ok := r.Context().Value(UserProfileKey).(*services.UserProfile); ok {
		return val
	}
	return nil
}

// WithUserProfile returns a copy of r carrying profile in its context.
func WithUserProfile(r *http.Request, profile *services.UserProfile) *http.Request {
	ctx := context.WithValue(r.Context(), UserProfileKey, profile)
	return r.WithContext(ctx)
}

// UserProfileMiddleware reads the X-User-Id header, loads (or provisions with
// the default Quick Fill credits) the caller's profile and stores it in the
// request context. Requests without the header pass through anonymously.
func UserProfileMiddleware(app *pocketbase.PocketBase, defaultCredits int) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userID := strings.TrimSpace(e.Request.Header.Get(UserIDHeader))
		if userID == "" {
			return e.Next()
		}

		rec, err := services.EnsureUserProfile(app, userID, defaultCredits)
		if err != nil {
			log.WithError(err).WithField("user", userID).Error("middleware: could not load user profile")
			return e.Next()
		}

		profile := services.UserProfileFromRecord(rec)
		e.Request = WithUserProfile(e.Request, &profile)
		return e.Next()
	}
}

// currentUserID returns the caller's user ID, or "" for anonymous requests.
func currentUserID(e *core.RequestEvent) string {
	if p := GetUserProfile(e.Request); p != nil {
		return p.UserID
	}
	return ""
}
