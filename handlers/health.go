package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"restoreassist/config"
)

// HandleHealth reports liveness and whether the AI service is configured.
// Route: GET /api/health
func HandleHealth(cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, map[string]any{
			"status":    "ok",
			"aiEnabled": cfg.AIEnabled(),
		})
	}
}
