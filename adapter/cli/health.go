package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var healthAddr string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe a running reflow server",
	Long: `Send a GET /health request to a running reflow API server and print the
reported status. The target defaults to the configured HTTP address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := healthAddr
		if target == "" {
			target = "127.0.0.1:8080"
			if app := GetApp(); app != nil && app.Config != nil && app.Config.HTTPAddr != "" {
				target = app.Config.HTTPAddr
			}
		}
		// Listen addresses like 0.0.0.0:8080 are not dialable as-is.
		if host, port, err := net.SplitHostPort(target); err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
			target = net.JoinHostPort("127.0.0.1", port)
		}

		client := &http.Client{Timeout: 5 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+target+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("server unreachable at %s: %w", target, err)
		}
		defer func() { _ = resp.Body.Close() }()

		var body struct {
			Status string `json:"status"`
			Time   string `json:"time"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("unexpected health response from %s: %w", target, err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server at %s reported status %d", target, resp.StatusCode)
		}

		fmt.Printf("Server at %s is %s\n", target, body.Status)
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthAddr, "addr", "", "server address to probe (host:port)")
	rootCmd.AddCommand(healthCmd)
}
