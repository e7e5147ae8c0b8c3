package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "importctl",
		Short:        "Offline tools for equipment inventory imports",
		SilenceUsage: true,
	}
	cmd.AddCommand(newReconcileCmd())
	return cmd
}
