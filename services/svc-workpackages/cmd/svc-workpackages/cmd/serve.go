package cmd

import (
	"github.com/spf13/cobra"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/runtime"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "starts the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runtime.New().Run()
		},
	}
}
