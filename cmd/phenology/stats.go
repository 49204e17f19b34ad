package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a terminal summary of ingestion and classification progress",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.stats.Snapshot(ctx, "openrouter", a.cfg.OpenRouterModel, a.cfg.PromptVersion)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	fmt.Printf("observations=%d photos=%d\n", snapshot.Observations, snapshot.Photos)
	fmt.Printf("classified_succeeded=%d classified_failed=%d classified_permanent_failed=%d\n",
		snapshot.ClassifiedSucceeded, snapshot.ClassifiedFailed, snapshot.ClassifiedPermanent)
	fmt.Printf("backlog=%d\n", snapshot.Backlog)
	fmt.Printf("observations_last_24h=%d photos_last_24h=%d\n", snapshot.ObservationsLast24h, snapshot.PhotosLast24h)
	return nil
}
