package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/catalog/batch"
	"quizhub/aggregator/pkg/catalog/loader"
	"quizhub/aggregator/pkg/cli"
	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/gateway"
)

var catalogFlags struct {
	direct bool
}

var seriesFlags struct {
	query       string
	price       string
	sort        string
	provider    string
	concurrency int
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List content providers from the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "providers", func(ctx context.Context, env *catalogEnv) error {
			state := loader.NewProviders(env.client).Load(ctx)
			if state.Err != nil {
				return state.Err
			}
			return env.format.FormatTo(cmd.OutOrStdout(), state.Data)
		})
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List test series across every provider",
	Long: `Fetch the series of every provider in chunks and print them, filtered
and sorted.

Examples:
  quizhub series
  quizhub series --search ssc --price free --sort tests
  quizhub series --provider "Example Academy" -o json`,
	Args: cobra.NoArgs,
	RunE: runSeries,
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects <provider-api> <series-id>",
	Short: "List the subjects of a series",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "subjects", func(ctx context.Context, env *catalogEnv) error {
			return env.format.FormatTo(cmd.OutOrStdout(), env.client.ListSubjects(ctx, args[0], args[1]))
		})
	},
}

var titlesCmd = &cobra.Command{
	Use:   "titles <provider-api> <series-id> <subject-id>",
	Short: "List the tests of a subject",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "titles", func(ctx context.Context, env *catalogEnv) error {
			return env.format.FormatTo(cmd.OutOrStdout(), env.client.ListTestTitles(ctx, args[0], args[1], args[2]))
		})
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz <questions-url>",
	Short: "Print the questions of a test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "quiz", func(ctx context.Context, env *catalogEnv) error {
			return env.format.FormatTo(cmd.OutOrStdout(), env.client.FetchQuizQuestions(ctx, args[0]))
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{providersCmd, seriesCmd, subjectsCmd, titlesCmd, quizCmd} {
		c.Flags().BoolVar(&catalogFlags.direct, "direct", false, "fetch through an in-process gateway instead of catalog.proxy_url")
		rootCmd.AddCommand(c)
	}

	seriesCmd.Flags().StringVarP(&seriesFlags.query, "search", "s", "", "case-insensitive name filter")
	seriesCmd.Flags().StringVar(&seriesFlags.price, "price", "all", "price filter: all, free, paid")
	seriesCmd.Flags().StringVar(&seriesFlags.sort, "sort", "popularity", "sort: popularity, price_low, price_high, tests")
	seriesCmd.Flags().StringVar(&seriesFlags.provider, "provider", "", "only this provider (name or api)")
	seriesCmd.Flags().IntVar(&seriesFlags.concurrency, "concurrency", 0, "providers per chunk (default from config)")
}

// catalogEnv is what every catalog command needs.
type catalogEnv struct {
	cfg    *config.Config
	client *catalog.Client
	format cli.Formatter
}

func withClient(cmd *cobra.Command, name string, run func(ctx context.Context, env *catalogEnv) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	format, err := formatter()
	if err != nil {
		return err
	}

	opts := []catalog.ClientOption{catalog.WithLogger(logger.Logger)}
	if catalogFlags.direct {
		gw := gateway.New(cfg.Gateway, gateway.WithLogger(logger.Logger))
		opts = append(opts, catalog.WithTransport(catalog.InProcess(gw)))
	}
	env := &catalogEnv{
		cfg:    cfg,
		client: catalog.NewClient(cfg.Catalog, opts...),
		format: format,
	}

	if err := run(cmd.Context(), env); err != nil {
		return cli.NewCommandError(name, err)
	}
	return nil
}

func runSeries(cmd *cobra.Command, args []string) error {
	price, err := catalog.ParsePriceFilter(seriesFlags.price)
	if err != nil {
		return err
	}
	order, err := catalog.ParseSortOrder(seriesFlags.sort)
	if err != nil {
		return err
	}

	return withClient(cmd, "series", func(ctx context.Context, env *catalogEnv) error {
		agg := batch.New(env.client.SeriesLister(), env.cfg.Catalog, nil, nil)
		if seriesFlags.concurrency > 0 {
			agg.Concurrency = seriesFlags.concurrency
		}

		state := loader.NewProviders(env.client).Load(ctx)
		if state.Err != nil {
			return state.Err
		}
		providers := catalog.SelectProviders(state.Data, seriesFlags.provider)
		if seriesFlags.provider != "" && len(providers) == 0 {
			return fmt.Errorf("no provider named %q", seriesFlags.provider)
		}

		var progress cli.ProgressReporter = cli.NoProgress{}
		if !quiet && output == string(cli.FormatText) {
			progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		}
		progress.Start(fmt.Sprintf("Loading series from %d providers", len(providers)))
		series := agg.FetchAll(ctx, providers, batch.WithProgress(progress.Update))
		progress.Finish()

		return env.format.FormatTo(cmd.OutOrStdout(), catalog.Filter(series, catalog.FilterOptions{
			Query: seriesFlags.query,
			Price: price,
			Sort:  order,
		}))
	})
}
