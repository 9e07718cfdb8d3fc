// Command evaluator grades a handwritten exam script against an answer key
// from the command line.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "evaluator",
	Short:        "Evaluate handwritten exam scripts",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
