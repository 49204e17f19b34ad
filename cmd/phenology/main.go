// Command phenology runs the monarch observation ingestion and photo
// classification pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "phenology",
	Short: "Ingest citizen-science monarch observations and classify their photos",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
