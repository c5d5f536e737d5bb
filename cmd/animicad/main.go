package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{Use: "animicad"}
	rootCmd.AddCommand(mineCmd())
	rootCmd.AddCommand(stratumCmd())
	rootCmd.AddCommand(pqCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
