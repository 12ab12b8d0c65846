package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/models"
	"github.com/curionest/curionest/pkg/retrieval"
)

func newIngestCmd() *cobra.Command {
	var (
		configPath string
		docsPath   string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load syllabus documents from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			data, err := os.ReadFile(docsPath)
			if err != nil {
				return fmt.Errorf("read documents: %w", err)
			}
			var docs []models.SyllabusDocument
			if err := yaml.Unmarshal(data, &docs); err != nil {
				return fmt.Errorf("parse documents: %w", err)
			}

			store, err := retrieval.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init syllabus store: %w", err)
			}
			defer store.Close()

			added, err := store.Ingest(context.Background(), docs)
			if err != nil {
				return err
			}

			total, err := store.Count(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d documents (%d total)\n", added, total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "curionest.yaml", "path to config file")
	cmd.Flags().StringVarP(&docsPath, "file", "f", "documents.yaml", "path to syllabus documents file")
	return cmd
}
