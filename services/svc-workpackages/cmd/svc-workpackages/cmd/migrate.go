package cmd

import (
	"github.com/spf13/cobra"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/runtime"
)

func migrateDbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "migrates the work packages database to the latest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runtime.Migrate(cmd.Context())
		},
	}
}
