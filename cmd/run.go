package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mayaoy/fun-news-crawler/internal/scheduler"
)

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Initialise the store, crawl now and then on every interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScheduler(cmd.Context())
		},
	}
}

func (a *app) runScheduler(ctx context.Context) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := a.newPipeline(ctx, st)
	if err != nil {
		return err
	}
	defer p.Close()

	s, err := scheduler.New(p.orchestrator.CrawlAll, a.cfg.Crawl.Interval(), a.log, scheduler.WithInit(st.Init))
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
