package app

import (
	"github.com/spf13/cobra"

	"github.com/cargomirror/registry/pkg/logger"
	"github.com/cargomirror/registry/pkg/registry"
)

var mirrorName string

var mirrorCmd = &cobra.Command{
	Use:   "mirror <path> <source-url>",
	Short: "Create a registry that mirrors an upstream index",
	Long: `mirror creates a registry at path whose index is a clone of the Git
index at source-url. The upstream's config.json is preserved, and its dl/api
URLs are recorded so later update runs know where to download archives from.`,
	Args: cobra.ExactArgs(2),
	RunE: mirrorCmdFunc,
}

func init() {
	mirrorCmd.Flags().StringVar(&mirrorName, "name", "", "registry name (defaults to the path's basename)")
}

func mirrorCmdFunc(_ *cobra.Command, args []string) error {
	reg, err := registry.Mirror(args[0], mirrorName, args[1])
	if err != nil {
		return err
	}
	logger.Infof("created mirror registry %q at %s (source %s)", reg.Config.Meta.Name, reg.Paths.Root, args[1])
	return nil
}
