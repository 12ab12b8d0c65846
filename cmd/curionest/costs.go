package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/logstore"
)

func newCostsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show event counts and aggregated token usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logs, err := logstore.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer logs.Close()

			ctx := context.Background()

			counts, err := logs.EventCounts(ctx)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tCOUNT")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%d\n", c.EventType, c.Count)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			totals, err := logs.UsageTotals(ctx)
			if err != nil {
				return err
			}
			fmt.Println()
			w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROMPT\tCOMPLETION\tTOTAL")
			fmt.Fprintf(w, "%d\t%d\t%d\n", totals.PromptTokens, totals.CompletionTokens, totals.TotalTokens)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "curionest.yaml", "path to config file")
	return cmd
}
