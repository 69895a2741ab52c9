package main

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/scenario"
)

func newRunCommand(g *globals) *cobra.Command {
	var (
		realtime      bool
		deterministic bool
		maxFrames     int
		showMetrics   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured scenario until every bot arrives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-frames") {
				f.Scenario.MaxFrames = maxFrames
			}

			opts := scenario.Options{Status: g.reg, Logger: g.logger, Deterministic: deterministic}
			if realtime {
				opts.Clock = engine.NewTimeProvider()
			}
			s, err := scenario.New(f, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext()
			defer cancel()
			report, err := s.Run(ctx)
			report.Write(cmd.OutOrStdout())
			if showMetrics {
				printMetrics(cmd, g)
			}
			if err != nil {
				return err
			}
			if report.Arrived < len(report.Bots) {
				return fmt.Errorf("%d of %d bots did not arrive", len(report.Bots)-report.Arrived, len(report.Bots))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&realtime, "realtime", false, "pace frames on the wall clock instead of simulating time")
	cmd.Flags().BoolVar(&deterministic, "deterministic", false, "wait for async results every frame so replays match")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 0, "override scenario.max_frames (0 = unbounded)")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the status registry after the run")
	return cmd
}

func newVerifyCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check A* against Dijkstra for every bot of the scenario, ignoring obstacles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.loadConfig()
			if err != nil {
				return err
			}
			s, err := scenario.New(f, scenario.Options{Status: g.reg, Logger: g.logger})
			if err != nil {
				return err
			}
			defer s.Close()

			checks, err := scenario.Verify(s.Graph, f.Scenario.Bots)
			if err != nil {
				return err
			}
			failed := 0
			out := cmd.OutOrStdout()
			for _, c := range checks {
				mark := "ok"
				if !c.OK() {
					mark = "MISMATCH"
					failed++
				}
				fmt.Fprintf(out, "  %-12s astar=%.3f dijkstra=%.3f reachable=%t %s\n", c.ID, c.Astar, c.Reference, c.Reachable, mark)
			}
			if failed > 0 {
				g.logger.Error("verification failed", slog.Int("mismatches", failed))
				return fmt.Errorf("%d searches disagree with the reference", failed)
			}
			return nil
		},
	}
}

func printMetrics(cmd *cobra.Command, g *globals) {
	snap := g.reg.Snapshot()
	out := cmd.OutOrStdout()
	for _, key := range slices.Sorted(maps.Keys(snap)) {
		fmt.Fprintf(out, "  %-40s %g\n", key, snap[key])
	}
}
