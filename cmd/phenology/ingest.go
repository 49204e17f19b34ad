package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one iNaturalist observation ingestion pass",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.ingestEngine().Run(ctx, a.ingestConfig())
	if err != nil {
		return fmt.Errorf("ingest run: %w", err)
	}

	fmt.Printf("observations=%d photos=%d pages=%d\n", result.Observations, result.Photos, result.Pages)
	return nil
}
