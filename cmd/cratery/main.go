// Package main is the entry point for the cratery command.
package main

import (
	"os"

	"github.com/cargomirror/registry/cmd/cratery/app"
	"github.com/cargomirror/registry/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
