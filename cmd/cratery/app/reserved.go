package app

import (
	"github.com/spf13/cobra"

	regerrors "github.com/cargomirror/registry/pkg/errors"
)

var packageCmd = &cobra.Command{
	Use:    "package",
	Short:  "Reserved for future use",
	Hidden: true,
	RunE: func(*cobra.Command, []string) error {
		return regerrors.NewStaticError("package: unimplemented")
	},
}

var execCmd = &cobra.Command{
	Use:    "exec",
	Short:  "Reserved for future use",
	Hidden: true,
	RunE: func(*cobra.Command, []string) error {
		return regerrors.NewStaticError("exec: unimplemented")
	},
}
