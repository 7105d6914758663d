package cmd

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "svc-workpackages",
		SilenceUsage: true,
		Short:        "Work package query service",
		Long: "Serves filtered, sorted, grouped and paginated work package collections " +
			"in HAL+JSON. Configuration is read from the environment.",
	}

	cmd.AddCommand(
		serveCmd(),
		migrateDbCmd(),
	)

	return cmd
}
