package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reflow/pkg/observability"
)

var (
	verbose bool
	logger  *slog.Logger
)

type commandStartKey struct{}

// rootCmd is the base command; subcommands attach themselves in their init
// functions.
var rootCmd = &cobra.Command{
	Use:   "reflow",
	Short: "Reflow - finite-capacity production scheduler",
	Long: `Reflow recomputes production schedules against work center capacity.

It walks work orders in dependency order through shift calendars and
maintenance windows, keeps maintenance orders fixed, and reports which
orders moved and by how much.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		if verbose {
			cfg := observability.DefaultLogConfig()
			cfg.Level = observability.LogLevelDebug
			logger = observability.NewLogger(cfg)
		}

		// Correlation and request IDs ride the command context, so every
		// log line of this invocation carries them.
		ctx := observability.NewRequestContext(cmd.Context(), "")
		ctx = context.WithValue(ctx, commandStartKey{}, time.Now())
		cmd.SetContext(ctx)

		logger.InfoContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			return
		}
		ctx := cmd.Context()
		attrs := []any{"command", cmd.CommandPath()}
		if startedAt, ok := ctx.Value(commandStartKey{}).(time.Time); ok {
			attrs = append(attrs, "duration_ms", time.Since(startedAt).Milliseconds())
		}
		logger.InfoContext(ctx, "command end", attrs...)
	},
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
