package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(a *app) *cobra.Command {
	var crawlAfter bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every article and category, then re-seed the categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			// a fresh database has no tables to clear yet
			if err := st.Init(ctx); err != nil {
				return err
			}
			if !st.Clear(ctx) {
				return errors.New("clearing the store failed")
			}
			fmt.Fprintln(out, "store cleared")

			if err := st.Init(ctx); err != nil {
				a.log.ErrorObj("re-initialising store failed", "reset_init_error", map[string]any{"error": err.Error()})
				return nil
			}
			fmt.Fprintf(out, "store re-initialised with %d categories\n", len(st.Categories(ctx)))

			if !crawlAfter {
				return nil
			}
			stats, err := a.crawlOnce(ctx, st, "")
			if err != nil {
				a.log.ErrorObj("crawl after reset failed", "reset_crawl_error", map[string]any{"error": err.Error()})
				return nil
			}
			fmt.Fprintf(out, "crawled %d articles: %d saved, %d skipped\n", stats.Total, stats.Saved, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&crawlAfter, "crawl", false, "run one crawl after resetting")
	return cmd
}
