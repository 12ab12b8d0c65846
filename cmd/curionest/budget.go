package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/curionest/curionest/pkg/budget"
	"github.com/curionest/curionest/pkg/config"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show token budget counters against their caps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ledger, err := budget.New(cfg.DBPath, cfg.Budget.DailyTokens, cfg.Budget.HourlyTokens)
			if err != nil {
				return err
			}
			defer ledger.Close()

			st, err := ledger.Status(context.Background())
			if err != nil {
				return err
			}
			daily, hourly := ledger.Caps()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WINDOW\tBUCKET\tUSED\tCAP")
			fmt.Fprintf(w, "daily\t%s\t%d\t%d\n", st.Day, st.DailyTokens, daily)
			fmt.Fprintf(w, "hourly\t%s\t%d\t%d\n", st.Hour, st.HourlyTokens, hourly)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "curionest.yaml", "path to config file")
	return cmd
}
