// Package main is the entry point for the keyfold CLI.
package main

import (
	"os"

	"github.com/keyfold/keyfold/internal/cli"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// Build metadata, injected via -ldflags at release time.
//
//nolint:gochecknoglobals // ldflags injection targets
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	err := cli.Execute(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	if err != nil {
		os.Exit(kferr.ExitCode(err))
	}
}
