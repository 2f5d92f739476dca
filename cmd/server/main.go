package main // Entry point package

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/records-service/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "records-service",
	Short: "Records API with access/refresh token sessions",
	Long: `records-service serves the records API and carries the operational
commands around it: schema migration, demo seeding, pruning of expired
refresh tokens and the auth audit consumer.

Configuration comes from the environment, optionally loaded from .env.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
