// Package scheduler runs the crawl immediately and then on a fixed interval,
// skipping triggers that arrive while a crawl is still running.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mayaoy/fun-news-crawler/internal/domain"
	"github.com/mayaoy/fun-news-crawler/internal/logger"
)

// State is the scheduler's crawl state.
type State int32

const (
	StateIdle State = iota
	StateCrawling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCrawling:
		return "crawling"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// CrawlFunc performs one full crawl pass.
type CrawlFunc func(ctx context.Context) domain.CrawlStats

// InitFunc prepares storage before the first crawl.
type InitFunc func(ctx context.Context) error

// Scheduler owns the recurring crawl trigger.
type Scheduler struct {
	crawl    CrawlFunc
	init     InitFunc
	interval time.Duration
	log      logger.Logger
	state    atomic.Int32
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithInit runs fn once before the first crawl. A failing init aborts Run.
func WithInit(fn InitFunc) Option {
	return func(s *Scheduler) { s.init = fn }
}

// New builds a scheduler triggering crawl every interval.
func New(crawl CrawlFunc, interval time.Duration, log logger.Logger, opts ...Option) (*Scheduler, error) {
	if crawl == nil {
		return nil, errors.New("crawl function is required")
	}
	if interval < time.Second {
		return nil, fmt.Errorf("interval %s is below one second", interval)
	}
	s := &Scheduler{
		crawl:    crawl,
		interval: interval,
		log:      logger.Ensure(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State reports whether a crawl is running.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// RunOnce runs a crawl unless one is already in progress. The second return
// value is false when the trigger was skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.CrawlStats, bool) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateCrawling)) {
		s.log.WarnObj("crawl still running, skipping trigger", "crawl_skipped", nil)
		return domain.CrawlStats{}, false
	}
	defer s.state.Store(int32(StateIdle))

	started := time.Now()
	s.log.InfoObj("crawl started", "crawl_start", map[string]any{
		"started_at": started.Format(time.RFC3339),
	})
	stats := s.crawl(ctx)
	s.log.InfoObj("crawl finished", "crawl_finish", map[string]any{
		"total":    stats.Total,
		"saved":    stats.Saved,
		"skipped":  stats.Skipped,
		"duration": time.Since(started).String(),
	})
	return stats, true
}

// Run initialises storage, crawls once, then crawls every interval until ctx is
// cancelled. On cancellation it waits for a running crawl to return.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.init != nil {
		if err := s.init(ctx); err != nil {
			return fmt.Errorf("initialise store: %w", err)
		}
	}

	s.RunOnce(ctx)
	if ctx.Err() != nil {
		return nil
	}

	cl := cronLogger{log: s.log}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	spec := "@every " + s.interval.String()
	if _, err := c.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule crawl %q: %w", spec, err)
	}

	c.Start()
	s.log.InfoObj("scheduler started", "scheduler_start", map[string]any{"interval": s.interval.String()})

	<-ctx.Done()

	s.log.InfoObj("scheduler stopping", "scheduler_stop", nil)
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.DebugObj(msg, "cron", kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	l.log.ErrorObj(msg, "cron_error", fields)
}

func kvFields(kv []any) map[string]any {
	out := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
