package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Apply pending schema migrations",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// bootstrap already applies migrations before returning, so a
	// successful call here means the schema is current.
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("ok")
	return nil
}
