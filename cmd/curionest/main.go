package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "curionest",
		Short:   "CurioNest — student-support question triage service",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newInitCmd(),
		newIngestCmd(),
		newCostsCmd(),
		newLogsCmd(),
		newBudgetCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
