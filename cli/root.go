// Package cli is the feyndora command line: the API server plus maintenance commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "feyndora",
	Short: "Feyndora learning backend",
	Long: `Feyndora serves accounts, courses and the gamification layer
(sign-in streaks, weekly quests, teacher card draws, achievements, rankings)
for the VR learning client.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
