package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mystik-app/backend/config"
	"github.com/mystik-app/backend/internal/bootstrap"
	"github.com/mystik-app/backend/internal/registrations"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair the registration email index once",
	Long: `Run one email index reconcile pass against the configured store and print the report as JSON.

The store is selected with the same environment as the server (KV_BACKEND, DATABASE_URL, REDIS_ADDR, SQLITE_PATH).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := bootstrap.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		infra, err := bootstrap.Open(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer infra.Close()

		svc := registrations.NewService(registrations.NewRepository(infra.Store), logger)
		report, err := svc.Reconcile(cmd.Context())
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
