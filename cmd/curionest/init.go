package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curionest/curionest/pkg/budget"
	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/logstore"
	"github.com/curionest/curionest/pkg/retrieval"
)

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database schema and the budget counter row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ledger, err := budget.New(cfg.DBPath, cfg.Budget.DailyTokens, cfg.Budget.HourlyTokens)
			if err != nil {
				return fmt.Errorf("init ledger: %w", err)
			}
			defer ledger.Close()

			store, err := retrieval.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init syllabus store: %w", err)
			}
			defer store.Close()

			logs, err := logstore.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init log store: %w", err)
			}
			defer logs.Close()

			fmt.Printf("database ready: %s\n", cfg.DBPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "curionest.yaml", "path to config file")
	return cmd
}
