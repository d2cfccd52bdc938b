package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kotlang/fasalneetiGo/outbox"
	"github.com/spf13/cobra"
)

var (
	syncWatch    time.Duration
	outboxStatus string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued registrations against the API",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect the local outbox",
}

var outboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued, synced and rejected entries",
	Args:  cobra.NoArgs,
	RunE:  runOutboxList,
}

func init() {
	syncCmd.Flags().DurationVar(&syncWatch, "watch", 0, "Keep syncing at this interval until interrupted")
	outboxListCmd.Flags().StringVar(&outboxStatus, "status", "", "Only entries with this status (pending, synced, rejected)")
	outboxCmd.AddCommand(outboxListCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	store, err := openOutbox()
	if err != nil {
		return err
	}
	defer store.Close()

	reconciler := outbox.NewReconciler(newClient(), store)
	if syncWatch > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		reconciler.Run(ctx, syncWatch)
		return nil
	}

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	report, err := reconciler.SyncOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func runOutboxList(cmd *cobra.Command, args []string) error {
	store, err := openOutbox()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	entries, err := store.List(ctx, outboxStatus)
	if err != nil {
		return err
	}
	// payloads may carry passwords.
	for i := range entries {
		entries[i].Payload = ""
	}
	return printJSON(cmd, entries)
}
