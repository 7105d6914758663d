package main

import (
	"os"

	"github.com/architeacher/workpackages/services/svc-workpackages/cmd/svc-workpackages/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
