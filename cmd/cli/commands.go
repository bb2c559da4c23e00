package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mauv0809/tournament-stats/internal/app"
	"github.com/mauv0809/tournament-stats/internal/config"
	"github.com/mauv0809/tournament-stats/internal/scheduler"
	"github.com/mauv0809/tournament-stats/internal/stats"
	"github.com/spf13/cobra"
)

var listCategory string

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only list stats in this category")

	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single computation pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result := a.Loop.RunOnce(ctx)
			if err := printResult(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.State != scheduler.StateSuccess {
				return fmt.Errorf("run %s ended in state %s", result.RunID, result.State)
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the stat store migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if err := a.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stat store is up to date")
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <stat-name>",
	Short: "Print the stored value of a stat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			stat, err := stats.New(a.DB).GetStat(ctx, args[0])
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), []stats.StoredStat{*stat})
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			all, err := stats.New(a.DB).ListStats(ctx, listCategory)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), all)
		})
	},
}

// withApp loads the configuration, wires the application and runs fn.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app.ConfigureLogging(cfg)
	cfg = app.ResolveSecrets(ctx, cfg)

	a, teardown, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer teardown()
	return fn(ctx, a)
}

func printResult(w io.Writer, result scheduler.RunResult) error {
	if outputJSON {
		return writeJSON(w, map[string]any{
			"run_id":        result.RunID,
			"state":         result.State,
			"elapsed":       result.Elapsed.String(),
			"written":       result.Report.Written,
			"failed_jobs":   result.Report.FailedJobs,
			"failed_writes": result.Report.FailedWrites,
		})
	}
	fmt.Fprintf(w, "Run %s: %s in %s\n", result.RunID, result.State, result.Elapsed)
	fmt.Fprintf(w, "Written: %d stats\n", len(result.Report.Written))
	if len(result.Report.FailedJobs) > 0 {
		fmt.Fprintf(w, "Failed jobs: %v\n", result.Report.FailedJobs)
	}
	if len(result.Report.FailedWrites) > 0 {
		fmt.Fprintf(w, "Failed writes: %v\n", result.Report.FailedWrites)
	}
	if result.Err != nil {
		fmt.Fprintf(w, "Error: %s\n", result.Err)
	}
	return nil
}

func printStats(w io.Writer, all []stats.StoredStat) error {
	if outputJSON {
		return writeJSON(w, all)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tVALUE")
	for _, s := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Category, s.Value)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
