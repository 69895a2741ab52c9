package main

import (
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/navcore/engine"
	"github.com/lixenwraith/navcore/scenario"
)

func newCostsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Record and inspect aperiodic task cost tables",
	}
	cmd.AddCommand(newCostsRecordCommand(g), newCostsShowCommand())
	return cmd
}

// newCostsRecordCommand measures per-unit task costs on this machine
// The table replays the same time slicing elsewhere when loaded in estimated mode
func newCostsRecordCommand(g *globals) *cobra.Command {
	var (
		out       string
		platform  string
		maxFrames int
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Run the scenario in measured mode and save per-unit task costs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.loadConfig()
			if err != nil {
				return err
			}
			f.Engine.Mode = "measured"
			f.Engine.CostTable = ""
			if cmd.Flags().Changed("max-frames") {
				f.Scenario.MaxFrames = maxFrames
			}

			s, err := scenario.New(f, scenario.Options{Status: g.reg, Logger: g.logger, Deterministic: true})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext()
			defer cancel()
			report, err := s.Run(ctx)
			if err != nil {
				return err
			}

			ct := s.Tasks.CostTable(platform)
			if err := engine.SaveCostTable(out, ct); err != nil {
				return err
			}
			g.logger.Info("cost table recorded",
				slog.String("file", out),
				slog.Uint64("frames", report.Frames),
				slog.String("platform", platform))
			writeCostTable(cmd, ct)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "costs.msgpack", "output file")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 0, "override scenario.max_frames (0 = unbounded)")
	cmd.Flags().StringVar(&platform, "platform", runtime.GOOS+"/"+runtime.GOARCH, "platform label stored in the table")
	return cmd
}

func newCostsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print a recorded cost table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := engine.LoadCostTable(args[0])
			if err != nil {
				return err
			}
			writeCostTable(cmd, ct)
			return nil
		},
	}
}

func writeCostTable(cmd *cobra.Command, ct engine.CostTable) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "platform: %s  version: %d\n", ct.Platform, ct.Version)
	for _, name := range slices.Sorted(maps.Keys(ct.Costs)) {
		fmt.Fprintf(out, "  %-8s %v/unit\n", name, ct.Costs[name])
	}
}
