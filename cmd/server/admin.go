package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/records-service/internal/repository"
	"github.com/iliyamo/records-service/internal/service"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(pruneTokensCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return db.Close()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo admin and user accounts",
	Long: `Create admin@example.com (admin) and user@example.com (user) with a few
records each.  Accounts that already exist are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		n, err := service.Seed(ctx, repository.NewUserRepo(db), repository.NewRecordRepo(db), cfg.BcryptCost)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d user(s)\n", n)
		return nil
	},
}

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete refresh tokens past their expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		n, err := repository.NewTokenRepo(db).DeleteExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired refresh token(s)\n", n)
		return nil
	},
}
