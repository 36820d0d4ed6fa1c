package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reflow/adapter/api"
	reflowapp "github.com/felixgeelhaar/reflow/internal/app"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/reflow/pkg/config"
)

var (
	planInput        string
	planOutput       string
	planAllowEarlier bool
	planTimezone     string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run and validate schedules from request documents",
	Long: `Work with scheduling request documents without the HTTP API.

A request document is a JSON file in the same format as the POST /reflow
body: workOrders, workCenters, and optional allowEarlierStart and
timezone fields.`,
}

var planRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute a schedule from a request document",
	Long: `Run the scheduler on a request document and print the plan.

The run executes offline against in-memory storage: nothing is persisted
and no events are published. Use the HTTP API to record runs.

Examples:
  reflow plan run --input request.json
  reflow plan run --input request.json --output json
  reflow plan run --input request.json --timezone Europe/Berlin --allow-earlier`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequestDocument(planInput)
		if err != nil {
			return err
		}

		if planAllowEarlier {
			req.AllowEarlierStart = true
		}
		if planTimezone != "" {
			req.Timezone = planTimezone
		}
		if req.Timezone == "" {
			if app := GetApp(); app != nil && app.Config != nil {
				req.Timezone = app.Config.DefaultTimezone
			}
		}

		command, err := req.ToCommand()
		if err != nil {
			return err
		}

		container := reflowapp.NewLocalContainer(&config.Config{AppEnv: "local"}, logger)
		defer container.Close()

		result, err := container.ExecuteReflowHandler.Handle(cmd.Context(), command)
		if err != nil {
			return err
		}

		response := api.NewReflowResponse(result)
		if planOutput == "json" {
			return printJSON(response)
		}

		printReflowTable(response)
		return nil
	},
}

var planValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check work order dependencies in a request document",
	Long: `Validate the dependency graph of a request document.

Reports missing dependencies, self references, and cycles. Exits with a
non-zero status when the document has issues, so it works as a pre-flight
check in scripts.

Examples:
  reflow plan validate --input request.json
  reflow plan validate --input request.json --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequestDocument(planInput)
		if err != nil {
			return err
		}

		orders, err := req.ToOrders()
		if err != nil {
			return err
		}

		handler := queries.NewValidateDependenciesHandler()
		report, err := handler.Handle(cmd.Context(), queries.ValidateDependenciesQuery{Orders: orders})
		if err != nil {
			return err
		}

		if planOutput == "json" {
			if err := printJSON(api.ValidationResponse{Valid: report.Valid, Issues: report.Issues}); err != nil {
				return err
			}
		} else {
			printValidationTable(report)
		}

		if !report.Valid {
			return fmt.Errorf("%d dependency issue(s) found", len(report.Issues))
		}
		return nil
	},
}

// readRequestDocument loads and decodes one scheduling request file.
func readRequestDocument(path string) (*api.ReflowRequest, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}

	data, err := security.SafeReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request document: %w", err)
	}

	var req api.ReflowRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("request document is not valid JSON: %w", err)
	}
	return &req, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printReflowTable(response api.ReflowResponse) {
	fmt.Println()
	fmt.Printf("  REFLOW: %d orders, %d rescheduled, %d fixed\n",
		response.Metadata.TotalOrders,
		response.Metadata.RescheduledCount,
		response.Metadata.FixedCount,
	)
	fmt.Println(strings.Repeat("=", 72))

	for _, result := range response.Results {
		marker := "[kept ]"
		switch {
		case result.IsFixed:
			marker = "[fixed]"
		case result.WasRescheduled:
			marker = "[moved]"
		}

		fmt.Printf("  %s %s\n", marker, result.WorkOrderNumber)
		fmt.Printf("          ID: %s\n", result.WorkOrderID)
		if result.WasRescheduled {
			fmt.Printf("          %s -> %s\n", result.OriginalStartDate, result.NewStartDate)
		} else {
			fmt.Printf("          %s\n", result.NewStartDate)
		}
	}

	if len(response.Warnings) > 0 {
		fmt.Println()
		fmt.Println("  WARNINGS")
		fmt.Println(strings.Repeat("-", 72))
		for _, warning := range response.Warnings {
			fmt.Printf("    %s\n", warning)
		}
	}

	fmt.Println()
	fmt.Printf("  Completed in %dms\n", response.Metadata.ProcessingTimeMs)
	fmt.Println()
}

func printValidationTable(report *queries.ValidationReportDTO) {
	if report.Valid {
		fmt.Println("Dependencies OK: no issues found.")
		return
	}

	fmt.Printf("Found %d issue(s):\n", len(report.Issues))
	fmt.Println(strings.Repeat("-", 72))
	for _, issue := range report.Issues {
		fmt.Printf("  [%s] %s\n", issue.Code, issue.Message)
	}
}

func init() {
	planRunCmd.Flags().StringVarP(&planInput, "input", "i", "", "path to the request document (required)")
	planRunCmd.Flags().StringVarP(&planOutput, "output", "o", "table", "output format (table or json)")
	planRunCmd.Flags().BoolVar(&planAllowEarlier, "allow-earlier", false, "allow orders to move earlier than their original start")
	planRunCmd.Flags().StringVar(&planTimezone, "timezone", "", "IANA timezone for shift calendars (default from document)")

	planValidateCmd.Flags().StringVarP(&planInput, "input", "i", "", "path to the request document (required)")
	planValidateCmd.Flags().StringVarP(&planOutput, "output", "o", "table", "output format (table or json)")

	planCmd.AddCommand(planRunCmd)
	planCmd.AddCommand(planValidateCmd)
	rootCmd.AddCommand(planCmd)
}
