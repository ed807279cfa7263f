// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the kitchen CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kitchen",
		Short: "Drive remote test instances through their provisioning lifecycle",
	}

	// Lifecycle phases
	cmd.AddCommand(Create())
	cmd.AddCommand(Converge())
	cmd.AddCommand(Setup())
	cmd.AddCommand(Verify())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Test())

	// Utility commands
	cmd.AddCommand(Login())
	cmd.AddCommand(Exec())
	cmd.AddCommand(Version())

	return cmd
}
