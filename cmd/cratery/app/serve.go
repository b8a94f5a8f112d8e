package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cargomirror/registry/pkg/httpserver"
	"github.com/cargomirror/registry/pkg/logger"
	"github.com/cargomirror/registry/pkg/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve a registry over HTTP(S)",
	Long: `serve opens the registry at path (or the current directory), stamps its
index's config.json with the registry's externally visible base URL, and
then serves the Git smart-HTTP index, the crate archive tree, and the stub
publish/search API until the process is interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: serveCmdFunc,
}

func init() {
	serveCmd.Flags().String("bind", "", "override the registry.toml bind address (ip:port), also settable via CRATERY_BIND")
	if err := viper.BindPFlag("bind", serveCmd.Flags().Lookup("bind")); err != nil {
		logger.Fatalf("failed to bind --bind flag: %v", err)
	}
	viper.SetEnvPrefix("cratery")
	viper.AutomaticEnv()
}

func serveCmdFunc(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	reg, err := registry.Open(path)
	if err != nil {
		return err
	}

	if bind := viper.GetString("bind"); bind != "" {
		host, port, err := splitHostPort(bind)
		if err != nil {
			return err
		}
		reg.Config.HTTP.IP = host
		reg.Config.HTTP.Port = port
	}

	return httpserver.Serve(cmd.Context(), reg)
}
