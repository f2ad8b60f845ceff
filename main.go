package main

import (
	"net/http"
	"os"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/aiclient"
	"restoreassist/collections"
	"restoreassist/config"
	"restoreassist/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	config.ConfigureLogging(cfg, os.Stderr)

	ai := aiclient.New(cfg.AIServiceURL, cfg.AIServiceToken, cfg.AITimeout)
	if !ai.Enabled() {
		log.Info("AI_SERVICE_URL not set; using local report assembly and fallback analysis")
	}

	app := pocketbase.New()

	app.RootCmd.AddCommand(newSeedCommand(app))
	app.RootCmd.AddCommand(newEstimateCommand(app))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.WithError(err).Warn("seed data failed")
		}
		if err := collections.MigrateDefaultPricingConfigs(app); err != nil {
			log.WithError(err).Warn("pricing config migration failed")
		}
		if err := collections.MigrateAffectedAreaSizes(app); err != nil {
			log.WithError(err).Warn("affected area migration failed")
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Resolve the caller's profile from X-User-Id on every request
		se.Router.BindFunc(handlers.UserProfileMiddleware(app, cfg.DefaultQuickFillCredits))

		se.Router.GET("/api/health", handlers.HandleHealth(cfg))

		// ── Inspections ──────────────────────────────────────────
		se.Router.GET("/api/inspections", handlers.HandleInspectionLookup(app))
		se.Router.POST("/api/inspections", handlers.HandleInspectionCreate(app))
		se.Router.GET("/api/inspections/{id}", handlers.HandleInspectionGet(app))

		// Sections (append-only)
		se.Router.POST("/api/inspections/{id}/environmental", handlers.HandleEnvironmentalAdd(app))
		se.Router.POST("/api/inspections/{id}/moisture", handlers.HandleMoistureAdd(app))
		se.Router.POST("/api/inspections/{id}/moisture/import", handlers.HandleMoistureImport(app))
		se.Router.POST("/api/inspections/{id}/affected-areas", handlers.HandleAffectedAreaAdd(app))
		se.Router.POST("/api/inspections/{id}/scope-items", handlers.HandleScopeItemAdd(app))
		se.Router.POST("/api/inspections/{id}/equipment", handlers.HandleEquipmentAdd(app))

		// Uploads
		se.Router.POST("/api/inspections/{id}/photos", handlers.HandlePhotoUpload(app, cfg.MaxPhotoBytes()))
		se.Router.POST("/api/inspections/{id}/floor-plan", handlers.HandleFloorPlanUpload(app, cfg.MaxPhotoBytes()))
		se.Router.PUT("/api/inspections/{id}/floor-plan", handlers.HandleFloorPlanUpload(app, cfg.MaxPhotoBytes()))

		// Classification
		se.Router.GET("/api/inspections/{id}/classification-preview", handlers.HandleClassificationPreview(app))
		se.Router.POST("/api/inspections/{id}/submit", handlers.HandleInspectionSubmit(app, ai))

		// ── User ─────────────────────────────────────────────────
		se.Router.GET("/api/user/profile", handlers.HandleUserProfile(app))
		se.Router.GET("/api/user/quick-fill-credits", handlers.HandleQuickFillCredits(app))
		se.Router.POST("/api/user/quick-fill-credits", handlers.HandleQuickFillConsume(app))

		// ── Pricing ──────────────────────────────────────────────
		se.Router.GET("/api/pricing-config", handlers.HandlePricingConfigGet(app))
		se.Router.PUT("/api/pricing-config", handlers.HandlePricingConfigPut(app))
		se.Router.GET("/pricing", handlers.HandlePricingPage(app))
		se.Router.POST("/pricing", handlers.HandlePricingSave(app))

		// ── Reports ──────────────────────────────────────────────
		// Specific /api/reports/* actions before {id}
		se.Router.POST("/api/reports/analyze-technician-report", handlers.HandleAnalyzeTechnicianReport(ai))
		se.Router.POST("/api/reports/generate-enhanced", handlers.HandleGenerateReport(app, ai))
		se.Router.POST("/api/reports", handlers.HandleReportCreate(app))
		se.Router.GET("/api/reports/{id}", handlers.HandleReportGet(app))
		se.Router.GET("/reports/{id}/view", handlers.HandleReportView(app))

		// ── Scopes ───────────────────────────────────────────────
		se.Router.POST("/api/scopes", handlers.HandleScopeSave(app))
		se.Router.GET("/api/scopes", handlers.HandleScopeGet(app))
		se.Router.GET("/api/scopes/{reportId}/export", handlers.HandleScopeExport(app))

		// Redirect home to the pricing editor
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/pricing")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
