package main

import (
	"github.com/spf13/cobra"
)

func newModelsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Load the model registry and report what was resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, true)
			if err != nil {
				return err
			}
			reg, err := a.loader.Registry(cmd.Context())
			if err != nil {
				return err
			}
			printRegistry(cmd.OutOrStdout(), reg)
			return nil
		},
	}
}
