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

func newLogsCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent events",
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

			events, err := logs.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tEVENT\tDETAILS")
			for _, e := range events {
				details := e.Details
				if len(details) > 80 {
					details = details[:80] + "…"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Timestamp.Format("2006-01-02T15:04:05"), e.EventType, details)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "curionest.yaml", "path to config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of events to show")
	return cmd
}
