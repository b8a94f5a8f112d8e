// Package app wires the cratery command-line surface: create, mirror,
// update, and serve a local package-registry tree, plus the two reserved
// subcommands the original tool also exposed.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "cratery",
	DisableAutoGenTag: true,
	Short:             "Run and maintain a self-hosted package registry",
	Long: `cratery creates, mirrors, updates, and serves a self-hosted package
registry: a Git-backed index plus a tree of content-addressed archives,
exposed over the Git smart-HTTP protocol and a small stub API.`,
}

// NewRootCmd builds the root cratery command with every subcommand
// attached.
func NewRootCmd() *cobra.Command {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(execCmd)
	return rootCmd
}
