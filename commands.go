package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"restoreassist/collections"
	"restoreassist/services"
)

// newSeedCommand creates the collections and inserts the demo data without
// starting the server.
func newSeedCommand(app *pocketbase.PocketBase) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create collections and insert the demo profile, inspection and report",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			if err := collections.Seed(app); err != nil {
				return err
			}
			if err := collections.MigrateDefaultPricingConfigs(app); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "demo data ready (user %s, report %s)\n",
				collections.DemoUserID, collections.DemoReportID)
			return nil
		},
	}
}

// newEstimateCommand prices a scope draft read from a JSON file, or stdin
// when the path is "-".
func newEstimateCommand(app *pocketbase.PocketBase) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "estimate <draft.json>",
		Short: "Print the cost summary of a scope draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readScopeDraft(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			catalog := services.DefaultCatalog()
			if userID != "" {
				collections.Setup(app)
				pricing, _, err := services.LoadPricingConfig(app, userID)
				if err != nil {
					return fmt.Errorf("estimate: pricing for %s: %w", userID, err)
				}
				catalog = catalog.WithPricing(pricing)
			}

			summary := services.CalcScopeSummary(draft, catalog)
			for _, w := range summary.Warnings {
				log.WithField("report", draft.ReportID).Warn(w)
			}
			return writeEstimate(cmd.OutOrStdout(), draft, summary)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "price with this user's pricing config")
	return cmd
}

func readScopeDraft(path string, stdin io.Reader) (services.ScopeDraft, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return services.ScopeDraft{}, fmt.Errorf("estimate: %w", err)
		}
		defer f.Close()
		r = f
	}

	var draft services.ScopeDraft
	if err := json.NewDecoder(r).Decode(&draft); err != nil {
		return services.ScopeDraft{}, fmt.Errorf("estimate: invalid draft: %w", err)
	}
	return draft, nil
}

// writeEstimate prints one line per priced item followed by the totals.
func writeEstimate(w io.Writer, draft services.ScopeDraft, s services.ScopeSummary) error {
	ew := &errWriter{w: w}

	if draft.ReportID != "" {
		ew.printf("Scope %s\n", draft.ReportID)
	}
	for _, l := range s.Labour {
		ew.printf("  %-28s %6.1f h  %12s\n", l.Role, l.EffectiveHours, services.FormatCurrency(l.Cost))
	}
	for _, e := range s.Equipment {
		ew.printf("  %-28s %6.1f %-4s %11s\n", e.Type, e.Periods, e.Tier, services.FormatCurrency(e.Cost))
	}
	for _, c := range s.Chemicals {
		ew.printf("  %-28s %20s\n", c.Type, services.FormatCurrency(c.Cost))
	}
	ew.printf("Labour:    %s\n", services.FormatCurrency(s.LabourCost))
	ew.printf("Equipment: %s\n", services.FormatCurrency(s.EquipmentCost))
	ew.printf("Chemicals: %s\n", services.FormatCurrency(s.ChemicalCost))
	ew.printf("Total:     %s\n", services.FormatCurrency(s.Total))
	ew.printf("Duration:  %d days (%.1f man-hours)\n", s.Productivity.DurationDays, s.Productivity.ManHours)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
