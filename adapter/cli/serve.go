package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reflow/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reflow HTTP API server",
	Long: `Start the HTTP API server for scheduling requests.

The server exposes POST /reflow for scheduling, POST /reflow/validate
for dependency checks, and GET /runs for run history. It shuts down
gracefully on SIGINT and SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		serverCfg := api.DefaultServerConfig()
		if app.Config != nil && app.Config.HTTPAddr != "" {
			serverCfg.Addr = app.Config.HTTPAddr
		}
		if serveAddr != "" {
			serverCfg.Addr = serveAddr
		}

		reflowHandler := api.NewReflowHandler(api.ReflowHandlerConfig{
			ExecuteReflow: app.ExecuteReflowHandler,
			ValidateDeps:  app.ValidateDependenciesHandler,
			Logger:        logger,
		})
		runHandler := api.NewRunHandler(api.RunHandlerConfig{
			GetRun:   app.GetRunHandler,
			ListRuns: app.ListRunsHandler,
			Logger:   logger,
		})
		server := api.NewServer(serverCfg, reflowHandler, runHandler, logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from REFLOW_HTTP_ADDR)")

	rootCmd.AddCommand(serveCmd)
}
