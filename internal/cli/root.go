// Package cli implements the nebula-io command line: sink and source
// management against the Admin API, plus local runs.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ajitpratap0/nebula-io/internal/localrun"
	"github.com/ajitpratap0/nebula-io/pkg/admin"
	"github.com/ajitpratap0/nebula-io/pkg/clients"
	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/archive"
	"github.com/ajitpratap0/nebula-io/pkg/logger"
	"github.com/ajitpratap0/nebula-io/pkg/metrics"
	"github.com/ajitpratap0/nebula-io/pkg/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "0.1.0"

// App holds what every command shares: client settings and the collaborators
// built from them.
type App struct {
	out    io.Writer
	errOut io.Writer

	v               *viper.Viper
	configPath      string
	trace           bool
	metricsTextfile string

	cfg     *config.ClientConfig
	http    *clients.HTTPClient
	admin   *admin.Client
	fetcher *archive.Fetcher
	metrics *metrics.Collector
	logger  *zap.Logger

	// packages downloads package URLs; it never carries Admin API credentials
	packages *clients.HTTPClient

	// runner overrides the local runner picked from the client settings
	runner localrun.Runner

	shutdownTracing func(context.Context) error
}

// NewApp creates an App writing command output to out and diagnostics to errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{
		out:     out,
		errOut:  errOut,
		v:       config.NewClientViper(),
		metrics: metrics.Default,
	}
}

// Command builds the root command.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "nebula-io",
		Short: "Nebula IO - connector deployment for sinks and sources",
		Long: `Nebula IO resolves sink and source configurations from flags, YAML files and
connector packages into deployment descriptors, and submits them to the Admin API
or runs them locally.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Client config file (default $HOME/.nebula-io/client.yaml)")
	pf.String("admin-url", "", "Admin API service URL")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (console, json)")
	pf.String("connectors-dir", "", "Directory holding connector packages for local-run")
	pf.BoolVar(&a.trace, "trace", false, "Print trace spans to stderr")
	pf.StringVar(&a.metricsTextfile, "metrics-textfile", "", "Write metrics to this file on exit")

	for key, flag := range map[string]string{
		"admin_url":      "admin-url",
		"log_level":      "log-level",
		"log_format":     "log-format",
		"connectors_dir": "connectors-dir",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newConnectorCommand(a, config.KindSink),
		newConnectorCommand(a, config.KindSource),
		a.versionCommand(),
	)
	return root
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "Nebula IO v%s\n", Version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// setup loads the client settings and builds the shared collaborators.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadClientConfig(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogFormat}); err != nil {
		return err
	}
	a.logger = logger.Get().With(zap.String("component", "cli"))

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "nebula-io",
		ServiceVersion: Version,
		Enabled:        a.trace,
		Writer:         a.errOut,
	})
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown

	a.http, err = clients.NewHTTPClient(clients.HTTPConfigFromClient(cfg), a.logger)
	if err != nil {
		return err
	}
	a.http.SetMetrics(a.metrics)

	auth, err := clients.NewAuthenticator(cfg, nil, a.logger)
	if err != nil {
		return err
	}
	a.http.SetAuthenticator(auth)

	a.admin = admin.New(cfg.AdminURL, a.http, a.logger)

	a.packages, err = clients.NewHTTPClient(clients.HTTPConfigFromClient(cfg), a.logger)
	if err != nil {
		return err
	}
	a.fetcher = archive.NewFetcher(a.packages, cfg.GCSCredentialsFile, cfg.S3Region)

	ctx := context.WithValue(cmd.Context(), logger.CommandKey, cmd.CommandPath())
	cmd.SetContext(ctx)
	a.logger.Debug("client configured",
		zap.String("admin_url", cfg.AdminURL),
		zap.String("auth_plugin", cfg.AuthPlugin),
		zap.String("config", a.v.ConfigFileUsed()))
	return nil
}

// finish flushes traces and metrics. It runs whether or not the command failed.
func (a *App) finish(ctx context.Context) {
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			fmt.Fprintf(a.errOut, "failed to flush traces: %v\n", err)
		}
	}
	if a.metricsTextfile != "" {
		if err := a.metrics.WriteTextfile(a.metricsTextfile); err != nil {
			fmt.Fprintf(a.errOut, "failed to write metrics: %v\n", err)
		}
	}
	for _, c := range []*clients.HTTPClient{a.http, a.packages} {
		if c != nil {
			_ = c.Close()
		}
	}
	_ = logger.Sync()
}

// Execute runs the command line args and returns the command error.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.Command()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.finish(ctx)
	return err
}

// Execute runs nebula-io with the process arguments and returns the exit code.
func Execute() int {
	app := NewApp(os.Stdout, os.Stderr)
	if err := app.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
