/*
Package cli provides the output formatters, progress bar and signal handling
used by the quizhub command.

Catalog lists render as aligned tables, JSON or CSV:

	f := cli.NewFormatter(cli.FormatText)
	if err := f.FormatTo(os.Stdout, series); err != nil {
		return err
	}

The progress reporter plugs straight into the batch aggregator:

	p := cli.NewProgressReporter(os.Stderr)
	p.Start("Loading series")
	all := agg.FetchAll(ctx, providers, batch.WithProgress(p.Update))
	p.Finish()
*/
package cli
