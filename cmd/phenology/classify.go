package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kylenessen/monarch-phenology-go/internal/classify"
	"github.com/kylenessen/monarch-phenology-go/internal/collections"
)

var (
	classifyMaxItems  int
	classifyBatchSize int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify pending photos through the vision model gateway",
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().IntVar(&classifyMaxItems, "max-items", 50, "maximum photos to classify in this invocation")
	classifyCmd.Flags().IntVar(&classifyBatchSize, "batch-size", 50, "maximum photos reserved per gateway batch")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.classifyConfig(classifyBatchSize)
	if err != nil {
		return err
	}
	engine := a.classifyEngine()

	// Split a --max-items request larger than the batch size into
	// several bounded engine.Run calls so no single run reserves more
	// than --batch-size rows.
	batches := collections.Chunk(make([]struct{}, classifyMaxItems), classifyBatchSize)

	var total classify.Result
	for _, batch := range batches {
		batchCfg := cfg
		batchCfg.MaxItems = len(batch)

		result, err := engine.Run(ctx, batchCfg)
		if err != nil {
			return fmt.Errorf("classify run: %w", err)
		}

		total.Succeeded += result.Succeeded
		total.Failed += result.Failed

		if result.Succeeded+result.Failed < len(batch) {
			// queue ran dry before filling this batch; no point trying more
			break
		}
	}

	fmt.Printf("succeeded=%d failed=%d\n", total.Succeeded, total.Failed)
	return nil
}
