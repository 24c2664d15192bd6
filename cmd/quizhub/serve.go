package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quizhub/aggregator/pkg/cli"
	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/server"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	probe         bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway and the aggregator API",
	Long: `Start the proxy gateway and the JSON API on the configured address.

The configuration file is watched: allowlist, rate limit and log level
changes apply without a restart.

Examples:
  # Start with default config
  quizhub serve

  # Override listen address and enable the availability probe
  quizhub serve --listen 0.0.0.0:8080 --probe

  # Validate config without starting the server
  quizhub serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.probe, "probe", false, "enable the scheduled provider availability probe")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg)

	logger, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	opts := []server.Option{
		server.WithVersion(Version, GitCommit, BuildDate),
		server.WithOverrides(applyServeFlags),
	}
	if _, err := os.Stat(cfgFile); err == nil {
		opts = append(opts, server.WithConfigPath(cfgFile))
	}
	srv := server.New(cfg, logger, opts...)

	fmt.Fprintf(out, "Quizhub v%s\n", Version)
	fmt.Fprintf(out, "✓ Gateway: http://%s/proxy?url=...\n", cfg.Gateway.ListenAddress)
	fmt.Fprintf(out, "✓ API:     http://%s/api/series\n", cfg.Gateway.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics: http://%s%s\n", cfg.Gateway.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(cmd.Context()); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// applyServeFlags puts the serve flags over cfg. It also runs on every
// config reload.
func applyServeFlags(cfg *config.Config) {
	if serveFlags.listenAddress != "" {
		cfg.Gateway.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	} else if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if serveFlags.probe {
		cfg.Probe.Enabled = true
	}
}
