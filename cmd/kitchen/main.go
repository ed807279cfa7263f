// Package main is the entry point for the kitchen CLI.
//
// kitchen drives remote test instances through their provisioning
// lifecycle: create, converge, setup, verify, destroy, plus login and
// ad-hoc command execution.
//
// For detailed usage information, run:
//
//	kitchen --help
package main

import (
	"fmt"
	"os"

	"github.com/aerickson/test-kitchen/cmd/kitchen/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
