/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tasktrack/apiserver/config"
	"github.com/tasktrack/apiserver/internal/mq"
	"github.com/tasktrack/apiserver/internal/server"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect task lifecycle events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print task events from the configured broker as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.Events.Backend == "" {
			return errors.New("EVENTS_BACKEND is not set")
		}
		logger := server.NewLogger(cfg.Log, os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.Events)
		if err != nil {
			return fmt.Errorf("open events backend: %w", err)
		}
		defer queue.Close()

		encoder := json.NewEncoder(cmd.OutOrStdout())
		err = queue.Subscribe(ctx, cfg.Events.Channel, func(_ context.Context, msg mq.Message) error {
			event, err := mq.DecodeTaskEvent(msg)
			if err != nil {
				// Undecodable payloads are acked so they do not redeliver forever.
				logger.Warn("skipping malformed event", slog.String("message_id", msg.ID), slog.Any("error", err))
				return nil
			}
			return encoder.Encode(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
