package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aerickson/test-kitchen/cmd/kitchen/handlers"
)

// Login returns the command that opens an interactive session.
func Login() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open an interactive SSH session on the instance",
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Login(configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

// Exec returns the command that runs one ad-hoc command on the instance.
func Exec() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "exec -- <command>",
		Short: "Run an ad-hoc command on the instance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.Exec(configPath, strings.Join(args, " "))
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

var (
	versionString = "dev"
	commitString  = "none"
	dateString    = "unknown"
)

// SetVersionInfo records build-time version information.
func SetVersionInfo(version, commit, date string) {
	versionString = version
	commitString = commit
	dateString = date
}

// Version returns the command that prints version information.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kitchen %s (commit %s, built %s)\n",
				versionString, commitString, dateString)
		},
	}
}
