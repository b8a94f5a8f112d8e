package app

import (
	"github.com/spf13/cobra"

	"github.com/cargomirror/registry/pkg/logger"
	"github.com/cargomirror/registry/pkg/registry"
)

var createName string

var createCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Create an empty registry",
	Long: `create initializes an empty registry at path: an index/ Git repository,
an empty crates/ tree, and a registry.toml with no mirror section. The
registry's name defaults to the basename of path.`,
	Args: cobra.ExactArgs(1),
	RunE: createCmdFunc,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "registry name (defaults to the path's basename)")
}

func createCmdFunc(_ *cobra.Command, args []string) error {
	reg, err := registry.Create(args[0], createName)
	if err != nil {
		return err
	}
	logger.Infof("created registry %q at %s", reg.Config.Meta.Name, reg.Paths.Root)
	return nil
}
