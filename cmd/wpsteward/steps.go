package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wpsteward/wpsteward/internal/tui"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the update steps in execution order",
	Long: `Steps lists every update step and the order they run in.

The names are the values accepted by the --steps flag and the 'steps' key in
wpsteward.toml. Selection never changes the order.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Print(tui.RenderSteps())
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
