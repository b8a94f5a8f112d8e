package app

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cargomirror/registry/pkg/logger"
	"github.com/cargomirror/registry/pkg/mirror"
	"github.com/cargomirror/registry/pkg/registry"
)

// downloadTimeout bounds a single archive GET in the mirror pipeline; a
// stuck upstream must not hang an update run indefinitely.
const downloadTimeout = 60 * time.Second

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Fetch the latest index and download any missing crate archives",
	Long: `update opens the registry at path (or the current directory), fast-forwards
its index to the upstream's master branch, and then downloads every archive
referenced by the index that is not already present on disk, verifying each
one's checksum. It fails if the registry is not a mirror.`,
	Args: cobra.MaximumNArgs(1),
	RunE: updateCmdFunc,
}

func updateCmdFunc(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	reg, err := registry.Open(path)
	if err != nil {
		return err
	}

	if err := reg.FetchIndex(cmd.Context()); err != nil {
		return err
	}

	client := &http.Client{Timeout: downloadTimeout}
	counters, err := mirror.Download(cmd.Context(), reg, client)
	if err != nil {
		return err
	}

	logger.Infof("update complete: checked=%d downloaded=%d failed=%d",
		counters.Checked, counters.Downloaded, counters.Failed)
	return nil
}
