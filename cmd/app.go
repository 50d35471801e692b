package cmd

import (
	"context"
	"fmt"

	"github.com/mayaoy/fun-news-crawler/internal/categories"
	"github.com/mayaoy/fun-news-crawler/internal/crawler"
	"github.com/mayaoy/fun-news-crawler/internal/store"
	"github.com/mayaoy/fun-news-crawler/pkg/providers"
	"github.com/mayaoy/fun-news-crawler/pkg/publishers"
)

// openStore opens the configured backend seeded with the default categories.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, a.cfg.Store, categories.Default().All(), a.log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// pipeline is a wired crawl orchestrator plus whatever must be released afterwards.
type pipeline struct {
	orchestrator *crawler.Orchestrator
	dispatcher   *publishers.Dispatcher
}

func (p *pipeline) Close() error {
	return p.dispatcher.Close()
}

func (a *app) newPipeline(ctx context.Context, st store.Store) (*pipeline, error) {
	provider := providers.FromConfig(a.cfg.Site, a.cfg.Crawl)
	fetcher := providers.NewPageFetcher(providers.DefaultHTTPClient(a.cfg.Crawl.RequestTimeout), provider, a.log)

	parser := crawler.NewParser(fetcher, st, crawler.ParserDefaults{
		DefaultCategory: a.cfg.Parser.DefaultCategory,
	}, a.log, crawler.WithReadabilityFallback(a.cfg.Parser.ReadabilityFallback))

	sinks, err := a.sinks()
	if err != nil {
		return nil, err
	}
	var opts []crawler.OrchestratorOption
	var dispatcher *publishers.Dispatcher
	if len(sinks) > 0 {
		d, err := publishers.FromSinks(ctx, provider.ID, sinks, a.log)
		if err != nil {
			return nil, fmt.Errorf("load publishers: %w", err)
		}
		dispatcher = d
		opts = append(opts, crawler.WithPublisher(d))
	}

	o := crawler.NewOrchestrator(categories.Default(), provider, fetcher, parser, a.log, opts...)
	return &pipeline{orchestrator: o, dispatcher: dispatcher}, nil
}

// sinks merges the inline sinks with those of the optional sinks file.
func (a *app) sinks() ([]publishers.Sink, error) {
	sinks := a.cfg.Publishers.Sinks
	if a.cfg.Publishers.File == "" {
		return sinks, nil
	}
	fromFile, err := publishers.LoadSinksFile(a.cfg.Publishers.File)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	return append(append([]publishers.Sink(nil), sinks...), fromFile...), nil
}
