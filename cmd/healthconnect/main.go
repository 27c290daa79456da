package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "healthconnect",
		Short:         "HealthConnect hospital finder and maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(geocodeCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
