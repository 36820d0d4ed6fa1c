package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reflow/adapter/api"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
)

var (
	runsLimit  int
	runsOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted scheduling runs",
	Long:  `List and inspect the recorded history of scheduling runs.`,
}

var runsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recent runs",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ListRunsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		summaries, err := app.ListRunsHandler.Handle(cmd.Context(), queries.ListRunsQuery{Limit: runsLimit})
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if runsOutput == "json" {
			return printJSON(api.NewListRunsResponse(summaries))
		}

		if len(summaries) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Printf("Runs (%d):\n", len(summaries))
		fmt.Println(strings.Repeat("-", 72))
		for _, summary := range summaries {
			fmt.Printf("%s  %s\n", summary.ID, summary.RequestedAt.UTC().Format("2006-01-02 15:04:05"))
			fmt.Printf("   orders: %d, rescheduled: %d, fixed: %d, warnings: %d, tz: %s\n",
				summary.TotalOrders,
				summary.RescheduledCount,
				summary.FixedCount,
				summary.WarningCount,
				summary.Timezone,
			)
		}
		return nil
	},
}

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Show one run in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.GetRunHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("run id must be a UUID: %w", err)
		}

		run, err := app.GetRunHandler.Handle(cmd.Context(), queries.GetRunQuery{RunID: runID})
		if err != nil {
			return fmt.Errorf("failed to get run: %w", err)
		}

		response := api.NewRunResponse(run)
		if runsOutput == "json" {
			return printJSON(response)
		}

		fmt.Printf("Run %s\n", response.ID)
		fmt.Printf("  requested: %s\n", response.RequestedAt)
		fmt.Printf("  timezone:  %s\n", response.Timezone)
		fmt.Printf("  earlier:   %t\n", response.AllowEarlierStart)
		printReflowTable(api.ReflowResponse{
			Results:  response.Results,
			Warnings: response.Warnings,
			Metadata: response.Metadata,
		})
		return nil
	},
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 0, "maximum runs to list")
	runsListCmd.Flags().StringVarP(&runsOutput, "output", "o", "table", "output format (table or json)")
	runsGetCmd.Flags().StringVarP(&runsOutput, "output", "o", "table", "output format (table or json)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsGetCmd)
	rootCmd.AddCommand(runsCmd)
}
