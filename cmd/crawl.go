package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mayaoy/fun-news-crawler/internal/categories"
	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/store"
)

func newCrawlCommand(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a single crawl pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkCategory(category); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Init(ctx); err != nil {
				return err
			}
			stats, err := a.crawlOnce(ctx, st, category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "crawled %d articles: %d saved, %d skipped\n", stats.Total, stats.Saved, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "crawl only this category")
	return cmd
}

// crawlOnce runs one pass over every category, or only the named one.
func (a *app) crawlOnce(ctx context.Context, st store.Store, category string) (domain.CrawlStats, error) {
	p, err := a.newPipeline(ctx, st)
	if err != nil {
		return domain.CrawlStats{}, err
	}
	defer p.Close()

	if category != "" {
		return p.orchestrator.CrawlCategory(ctx, category), nil
	}
	return p.orchestrator.CrawlAll(ctx), nil
}

func checkCategory(name string) error {
	if name == "" {
		return nil
	}
	dir := categories.Default()
	if _, ok := dir.Lookup(name); !ok {
		return fmt.Errorf("unknown category %q, expected one of: %s", name, strings.Join(dir.Names(), ", "))
	}
	return nil
}
