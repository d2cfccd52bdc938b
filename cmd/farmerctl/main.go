// Command farmerctl drives the farmer API from a terminal and keeps registrations that could not
// be delivered in a local outbox.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Kotlang/fasalneetiGo/client"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/outbox"
	"github.com/spf13/cobra"
)

const (
	defaultApi        = "http://localhost:5000"
	defaultOutboxPath = "farmerctl-outbox.db"
)

var (
	apiURL     string
	token      string
	outboxPath string
	timeout    time.Duration
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "farmerctl",
	Short:         "Command line client for the FasalNeeti farmer API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("FARMERCTL_API", defaultApi), "Farmer API base URL (or set FARMERCTL_API)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("FARMERCTL_TOKEN"), "Bearer token (or set FARMERCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&outboxPath, "outbox", envOr("FARMERCTL_OUTBOX", defaultOutboxPath), "Local outbox sqlite file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(registerCmd, syncCmd, outboxCmd, loginCmd, profileCmd, cropsCmd, dashboardCmd, adminCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient() *client.Client {
	return client.New(apiURL, client.WithToken(token))
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func openOutbox() (*outbox.Store, error) {
	store, err := outbox.Open(outboxPath)
	if err != nil {
		return nil, fmt.Errorf("opening outbox %s: %w", outboxPath, err)
	}
	return store, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
