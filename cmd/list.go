package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mayaoy/fun-news-crawler/internal/categories"
	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/store"
)

func newListCommand(a *app) *cobra.Command {
	var (
		category string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Init(ctx); err != nil {
				return err
			}
			var rows []domain.Article
			if category != "" {
				rows = st.ArticlesByCategory(ctx, category)
				if limit > 0 && len(rows) > limit {
					rows = rows[:limit]
				}
			} else {
				rows = st.RecentArticles(ctx, limit)
			}
			renderArticles(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only articles of this category")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultRecentLimit, "maximum number of articles")
	return cmd
}

func newCategoriesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the seeded categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Init(ctx); err != nil {
				return err
			}
			renderCategories(cmd.OutOrStdout(), st.Categories(ctx), a.cfg.Site.BaseURL)
			return nil
		},
	}
}

func renderArticles(w io.Writer, rows []domain.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Published", "Category", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
	for _, r := range rows {
		t.AppendRow(table.Row{r.ID, r.PublishedDate, r.Category, r.Title, r.URL})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(rows)})
	t.Render()
}

func renderCategories(w io.Writer, rows []domain.Category, origin string) {
	dir := categories.New(rows...)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "URL"})
	for _, c := range rows {
		u, _ := dir.URLFor(origin, c.Name)
		t.AppendRow(table.Row{c.ID, c.Name, string(c.Type), u})
	}
	t.AppendFooter(table.Row{"", "", "Total", dir.Len()})
	t.Render()
}
