package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quizhub/aggregator/pkg/cli"
	"quizhub/aggregator/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file with environment overrides applied and
report every invalid field.

Examples:
  quizhub validate --config /etc/quizhub/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, fmt.Sprintf("cannot read config file: %v", err))
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ %s is invalid:\n", cfgFile)
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
		}
		return cli.NewConfigError(cfgFile, err.Error())
	}

	fmt.Fprintf(out, "✓ Configuration valid (%s)\n", cfgFile)
	fmt.Fprintf(out, "  gateway:  %s, %d allowed domains\n", cfg.Gateway.ListenAddress, len(cfg.Gateway.AllowedDomains))
	fmt.Fprintf(out, "  catalog:  concurrency %d, chunk delay %s\n", cfg.Catalog.Concurrency, cfg.Catalog.ChunkDelay)
	fmt.Fprintf(out, "  probe:    enabled=%t schedule=%q\n", cfg.Probe.Enabled, cfg.Probe.Schedule)
	return nil
}
