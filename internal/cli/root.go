// Package cli defines the talentbridge command tree.
package cli

import (
	"github.com/spf13/cobra"
)

const appName = "talentbridge"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "talentbridge runs the proposal lifecycle and recruiter reputation service",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
