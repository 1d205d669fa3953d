package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wpsteward/wpsteward/internal/app"
	"github.com/wpsteward/wpsteward/internal/domain/config"
	"github.com/wpsteward/wpsteward/internal/tui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify the external toolchain",
	Long: `Doctor checks that the external tools an update run shells out to,
wp-cli and git, are installed and respond.

Examples:
  wpsteward doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a := app.New()
	statuses := a.Doctor(cmd.Context())

	fmt.Print(tui.RenderDoctor(statuses))

	for _, st := range statuses {
		if !st.Available {
			return config.NewToolMissingError(st.Name)
		}
	}
	return nil
}
