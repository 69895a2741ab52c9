package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/navcore/pathfinder"
)

func newConfigCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or check configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.loadConfig()
			if err != nil {
				return err
			}
			return f.Encode(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and the modifier set against the scenario's collaborators",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.loadConfig()
			if err != nil {
				return err
			}
			mods, err := f.PathFinder.Build()
			if err != nil {
				return err
			}
			env := pathfinder.Environment{
				HasLpf:       f.LPF.Enabled,
				HasMesh:      f.Scenario.NavMesh,
				HasCollision: f.Scenario.NavMesh,
				HasCrowd:     true,
			}
			if err := pathfinder.CheckModifierDependencies(mods, env); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
			return nil
		},
	})
	return cmd
}
