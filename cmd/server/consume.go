package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/records-service/internal/queue"
)

var logDir string

func init() {
	consumeCmd.Flags().StringVar(&logDir, "log-dir", "logs", "directory for auth.log")
	rootCmd.AddCommand(consumeCmd)
}

var consumeCmd = &cobra.Command{
	Use:   "consume-events",
	Short: "Append auth audit events from RabbitMQ to <log-dir>/auth.log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("consuming %s into %s/auth.log", queue.AuthEventsQueue, logDir)
		err := queue.StartAuthEventConsumer(ctx, cfg.RabbitURL, logDir)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
