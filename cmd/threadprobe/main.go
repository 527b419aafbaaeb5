// main.go sets up the threadprobe command-line interface using Cobra. It
// resolves configuration from a YAML file, GOTHREAD_* environment variables
// and flags, builds a Spawner with charmbracelet/log logging and optional
// Prometheus metrics, and hands it to the subcommands.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Swind/go-thread/config"
	"github.com/Swind/go-thread/core"
	"github.com/Swind/go-thread/observability/charmlog"
	promexp "github.com/Swind/go-thread/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}

// app carries the resolved configuration and the Spawner built from it
// between the root command's hooks and the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	hold    time.Duration

	cfg     *config.Config
	logger  *charmlog.Logger
	spawner *core.Spawner

	poller      *promexp.SnapshotPoller
	server      *http.Server
	cancel      context.CancelFunc
	metricsAddr string
}

// newRootCmd creates a fresh root command with its own viper instance, so
// tests can execute commands in isolation.
func newRootCmd() *cobra.Command {
	return newApp().command()
}

func newApp() *app {
	return &app{v: viper.New()}
}

// flagBinding maps a persistent flag to its viper key.
type flagBinding struct {
	key  string
	flag string
}

var flagBindings = []flagBinding{
	{key: "spawner.name", flag: "spawner-name"},
	{key: "spawner.max_threads", flag: "max-threads"},
	{key: "log.level", flag: "log-level"},
	{key: "metrics.enabled", flag: "metrics"},
	{key: "metrics.namespace", flag: "metrics-namespace"},
	{key: "metrics.address", flag: "metrics-addr"},
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadprobe",
		Short: "threadprobe starts, joins and inspects OS threads.",
		Long: `threadprobe exercises the go-thread library from the command line.
Every thread it starts is pinned to its own OS thread, so the ids it
prints are kernel thread ids.`,
		SilenceUsage:  true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file")
	flags.DurationVar(&a.hold, "hold", 0, "keep the metrics endpoint up this long after the command finishes")
	flags.String("spawner-name", "", "spawner name used in logs and metrics")
	flags.Int("max-threads", 0, "cap on live threads (0 = unlimited)")
	flags.String("log-level", "", `log level ("debug", "info", "warn", "error")`)
	flags.Bool("metrics", false, "serve Prometheus metrics")
	flags.String("metrics-namespace", "", "Prometheus metric namespace")
	flags.String("metrics-addr", "", "listen address of the /metrics endpoint")

	for _, sub := range []*cobra.Command{newInfoCmd(a), newSpawnCmd(a), newSleepCmd(a)} {
		a.tearDownOnError(sub)
		cmd.AddCommand(sub)
	}

	return cmd
}

// tearDownOnError releases the metrics endpoint when RunE fails, since
// cobra skips PersistentPostRunE in that case.
func (a *app) tearDownOnError(cmd *cobra.Command) {
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil {
			if terr := a.teardown(); terr != nil {
				a.logger.Warn("metrics shutdown failed", core.F("error", terr))
			}
		}
		return err
	}
}

// bindFlags binds each flag of root to its viper key.
func (a *app) bindFlags(root *cobra.Command, bindings []flagBinding) error {
	for _, b := range bindings {
		if err := a.v.BindPFlag(b.key, root.PersistentFlags().Lookup(b.flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", b.flag, err)
		}
	}
	return nil
}

// resolveConfig layers explicitly set flags over the file and environment.
func (a *app) resolveConfig(root *cobra.Command) (*config.Config, error) {
	if err := a.bindFlags(root, flagBindings); err != nil {
		return nil, err
	}

	base, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, err
	}

	a.v.SetDefault("spawner.name", base.Spawner.Name)
	a.v.SetDefault("spawner.max_threads", base.Spawner.MaxThreads)
	a.v.SetDefault("log.level", string(base.Log.Level))
	a.v.SetDefault("metrics.enabled", base.Metrics.Enabled)
	a.v.SetDefault("metrics.namespace", base.Metrics.Namespace)
	a.v.SetDefault("metrics.address", base.Metrics.Address)

	cfg := &config.Config{
		Spawner: config.SpawnerSettings{
			Name:       a.v.GetString("spawner.name"),
			MaxThreads: a.v.GetInt("spawner.max_threads"),
		},
		Log: config.LogSettings{
			Level: config.LogLevel(a.v.GetString("log.level")),
		},
		Metrics: config.MetricsSettings{
			Enabled:   a.v.GetBool("metrics.enabled"),
			Namespace: a.v.GetString("metrics.namespace"),
			Address:   a.v.GetString("metrics.address"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.resolveConfig(cmd.Root())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := charmlog.NewWriter(cmd.ErrOrStderr(), cfg.Log.Level.String())
	if err != nil {
		return err
	}
	a.logger = logger

	var metrics core.Metrics
	var reg *prom.Registry
	if cfg.Metrics.Enabled {
		reg = prom.NewRegistry()
		exporter, err := promexp.NewMetricsExporter(cfg.Metrics.Namespace, reg, promexp.ExporterOptions{})
		if err != nil {
			return err
		}
		metrics = exporter
	}

	a.spawner = core.NewSpawner(cfg.SpawnerConfig(logger, metrics))

	if reg != nil {
		if err := a.serveMetrics(reg); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(reg *prom.Registry) error {
	poller, err := promexp.NewSnapshotPoller(reg, time.Second)
	if err != nil {
		return err
	}
	poller.AddSpawner(a.spawner.Name(), a.spawner)

	ln, err := net.Listen("tcp", a.cfg.Metrics.Address)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.server = server

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.poller = poller
	poller.Start(ctx)

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", core.F("error", err))
		}
	}()
	a.metricsAddr = ln.Addr().String()
	a.logger.Info("serving metrics", core.F("addr", a.metricsAddr))
	return nil
}

func (a *app) teardown() error {
	if a.server == nil {
		return nil
	}
	if a.hold > 0 {
		time.Sleep(a.hold)
	}

	server := a.server
	a.server = nil
	a.poller.Stop()
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
