package commands

import (
	"github.com/spf13/cobra"

	"github.com/aerickson/test-kitchen/cmd/kitchen/handlers"
)

// configFlag binds the shared --config flag.
func configFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", "kitchen.yaml", "Path to configuration file")
}

// Create returns the command that provisions a new instance.
func Create() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the instance and wait for sshd",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Create(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

// Converge returns the command that runs the provisioner on the instance.
func Converge() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Install and run the provisioner on the instance",
		Long: `Converge the instance: install the provisioning engine, initialize it,
upload the local sandbox, prepare the environment and execute the
provisioning run over a single SSH connection.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Converge(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

// Setup returns the command that installs the test-runner agent.
func Setup() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install the test-runner agent on the instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Setup(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

// Verify returns the command that syncs and runs the test suites.
func Verify() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Sync and run the test suites on the instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

// Destroy returns the command that tears the instance down.
func Destroy() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}

// Test returns the command that runs the full lifecycle end to end.
func Test() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the full cycle: create, converge, setup, verify, destroy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Test(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)
	return cmd
}
