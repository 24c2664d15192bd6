package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quizhub/aggregator/pkg/cli"
	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	output  string
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "quizhub",
	Short: "Quizhub - test series aggregator and provider gateway",
	Long: `Quizhub aggregates test series from third-party quiz providers.

It provides:
  - A CORS-enabled proxy gateway restricted to allowlisted provider domains
  - A catalog client that normalizes heterogeneous provider payloads
  - Chunked, rate-friendly aggregation of series across every provider
  - A JSON API and Prometheus metrics for front ends and operators`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code that distinguishes
// configuration errors from other failures. The command context is
// cancelled on SIGINT or SIGTERM.
func Execute() {
	if err := rootCmd.ExecuteContext(cli.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path (defaults apply when missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json, csv")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the config file with environment overrides. Validation
// failures are reported as configuration errors.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the default. Logs go to
// stderr so command output stays machine-readable.
func setupLogging(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	logger, err := logging.New(cfg.Telemetry.Logging, w)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Logger)
	return logger, nil
}

func formatter() (cli.Formatter, error) {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format), nil
}
