package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aguxez/keecal/agent"
	"github.com/aguxez/keecal/models"
	"github.com/aguxez/keecal/tracker"
)

func withApp(cmd *cobra.Command, withLLM bool, run func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cliLogger(), withLLM)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeEntry(w io.Writer, e models.FoodEntry) {
	fmt.Fprintf(w, "%s  %s  %d kcal  P %dg | C %dg | F %dg\n",
		e.Timestamp.Local().Format("15:04"), e.Name, e.Calories,
		e.Nutrition.Protein, e.Nutrition.Carbs, e.Nutrition.Fat)
	if e.TrainerComment != "" {
		fmt.Fprintf(w, "       %q\n", e.TrainerComment)
	}
}

func writeSummary(w io.Writer, s tracker.Summary) {
	fmt.Fprintf(w, "Date: %s\n", s.Date)
	fmt.Fprintf(w, "Consumed: %d kcal\n", s.Total)
	fmt.Fprintf(w, "Budget: %d kcal\n", s.DailyLimit)
	if s.Remaining >= 0 {
		fmt.Fprintf(w, "Remaining: %d kcal\n", s.Remaining)
	} else {
		fmt.Fprintf(w, "Over budget by %d kcal\n", -s.Remaining)
	}
	if len(s.Entries) == 0 {
		fmt.Fprintln(w, "No meals logged yet.")
		return
	}
	fmt.Fprintln(w)
	for _, e := range s.Entries {
		writeEntry(w, e)
	}
}

func writeHistory(w io.Writer, days []models.DailyAggregate) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No history.")
		return
	}
	for _, d := range days {
		fmt.Fprintf(w, "%s  %d kcal  (%d meals)\n", d.Date, d.Total, len(d.Entries))
	}
}

func readPhotoFile(path string) (agent.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return agent.Photo{}, fmt.Errorf("reading photo: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return agent.Photo{
		Data:      data,
		MIMEType:  mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Reference: abs,
	}, nil
}

func init() {
	var dryRun, asJSON bool

	analyzeCmd := &cobra.Command{
		Use:   "analyze PHOTO",
		Short: "Analyze a meal photo and log it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, err := readPhotoFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, true, func(ctx context.Context, a *app) error {
				entry, err := a.tracker.Analyze(ctx, photo)
				if err != nil {
					return err
				}
				if !dryRun {
					if err := a.tracker.Commit(ctx, entry); err != nil {
						return err
					}
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), entry)
				}
				writeEntry(cmd.OutOrStdout(), entry)
				if dryRun {
					fmt.Fprintln(cmd.OutOrStdout(), "(not logged)")
				}
				return nil
			})
		},
	}
	analyzeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze without logging the entry")
	analyzeCmd.Flags().BoolVar(&asJSON, "json", false, "Print the entry as JSON")
	rootCmd.AddCommand(analyzeCmd)

	var todayJSON bool
	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's meals against the daily budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				s := a.tracker.Today()
				if todayJSON {
					return printJSON(cmd.OutOrStdout(), s)
				}
				writeSummary(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(todayCmd)

	var historyJSON bool
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show daily totals, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				days := a.tracker.History()
				if historyJSON {
					return printJSON(cmd.OutOrStdout(), days)
				}
				writeHistory(cmd.OutOrStdout(), days)
				return nil
			})
		},
	}
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the history as JSON")
	rootCmd.AddCommand(historyCmd)

	var exportOut string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				if exportOut == "" || exportOut == "-" {
					return a.tracker.ExportCSV(cmd.OutOrStdout())
				}
				f, err := os.Create(exportOut)
				if err != nil {
					return err
				}
				if err := a.tracker.ExportCSV(f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Append entries from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				n, err := a.tracker.Import(ctx, f)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", n)
				return err
			})
		},
	}
	rootCmd.AddCommand(importCmd)

	var resetYes bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete history, profile and trainer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !resetYes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				if err := a.tracker.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared.")
				return nil
			})
		},
	}
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
