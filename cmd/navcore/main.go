package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/navcore/config"
	"github.com/lixenwraith/navcore/core"
	"github.com/lixenwraith/navcore/status"
)

// globals holds the persistent flags shared by every command
type globals struct {
	configPath  string
	logLevel    string
	logJSON     bool
	logFile     string
	metricsAddr string

	logger  *slog.Logger
	closer  io.Closer
	reg     *status.Registry
	metrics *http.Server
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globals{reg: status.NewRegistry()}

	root := &cobra.Command{
		Use:           "navcore",
		Short:         "Headless runner for the navcore path finding core",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return g.teardown()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "TOML configuration file (default: embedded crossing scenario)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&g.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&g.logFile, "log-file", "", "write logs to a file instead of stderr")
	pf.StringVar(&g.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	root.AddCommand(newRunCommand(g), newVerifyCommand(g), newCostsCommand(g), newConfigCommand(g))
	return root
}

// setup configures logging, crash handling and the metrics endpoint
func (g *globals) setup(stderr io.Writer) error {
	logger, closer, err := core.SetupLogging(core.LogOptions{
		Level:  g.logLevel,
		JSON:   g.logJSON,
		File:   g.logFile,
		Stderr: stderr,
	})
	if err != nil {
		return err
	}
	g.logger, g.closer = logger, closer

	core.SetCrashHandler(func(r any, stack []byte) {
		logger.Error("worker crashed", slog.Any("panic", r), slog.String("stack", string(stack)))
		os.Exit(2)
	})

	if g.metricsAddr != "" {
		promReg := prometheus.NewRegistry()
		if err := promReg.Register(status.NewCollector(g.reg, "navcore")); err != nil {
			return fmt.Errorf("register collector: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		g.metrics = &http.Server{Addr: g.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		core.Go(func() {
			if err := g.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics endpoint failed", slog.Any("error", err))
			}
		})
		logger.Info("serving metrics", slog.String("addr", g.metricsAddr))
	}
	return nil
}

func (g *globals) teardown() error {
	if g.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = g.metrics.Shutdown(ctx)
	}
	if g.closer != nil {
		return g.closer.Close()
	}
	return nil
}

// loadConfig returns the --config file or the embedded default
func (g *globals) loadConfig() (*config.File, error) {
	if g.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(g.configPath)
}

// signalContext is cancelled on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
