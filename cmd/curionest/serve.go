package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/curionest/curionest/pkg/budget"
	"github.com/curionest/curionest/pkg/completion"
	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/engine"
	"github.com/curionest/curionest/pkg/logstore"
	"github.com/curionest/curionest/pkg/notify"
	"github.com/curionest/curionest/pkg/retrieval"
	"github.com/curionest/curionest/pkg/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the triage HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ledger, err := budget.New(cfg.DBPath, cfg.Budget.DailyTokens, cfg.Budget.HourlyTokens)
			if err != nil {
				return fmt.Errorf("init ledger: %w", err)
			}
			defer func() { _ = ledger.Close() }()

			store, err := retrieval.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init syllabus store: %w", err)
			}
			defer func() { _ = store.Close() }()

			logs, err := logstore.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init log store: %w", err)
			}
			defer func() { _ = logs.Close() }()

			client := completion.NewOpenAI(cfg.Provider)
			eng := engine.New(store, ledger, client, logs, cfg.Pipeline)

			var notifier notify.Notifier
			if cfg.Notify.Enabled {
				notifier = notify.NewMailgun(cfg.Notify)
			}

			srv := server.New(cfg, eng, notifier)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting curionest with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "curionest.yaml", "path to config file")
	return cmd
}
