package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/fetcher"
	"github.com/IshaanNene/TopicPulse/internal/pipeline"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Outcome classifies how a topic task ended.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeFetchError    Outcome = "fetch_error"
	OutcomeParseError    Outcome = "parse_error"
	OutcomePipelineError Outcome = "pipeline_error"
	OutcomeDropped       Outcome = "dropped"
)

// Stats tracks run statistics.
type Stats struct {
	TopicsTotal     atomic.Int64
	TopicsDone      atomic.Int64
	TopicsOK        atomic.Int64
	TopicsFailed    atomic.Int64
	TopicsDropped   atomic.Int64
	BytesDownloaded atomic.Int64
	ActiveWorkers   atomic.Int32
	StartTime       time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"topics_total":     s.TopicsTotal.Load(),
		"topics_done":      s.TopicsDone.Load(),
		"topics_ok":        s.TopicsOK.Load(),
		"topics_failed":    s.TopicsFailed.Load(),
		"topics_dropped":   s.TopicsDropped.Load(),
		"bytes_downloaded": s.BytesDownloaded.Load(),
		"active_workers":   s.ActiveWorkers.Load(),
		"elapsed":          time.Since(s.StartTime).Round(time.Millisecond).String(),
	}
}

// Parser turns a fetched page into a record.
type Parser interface {
	Parse(resp *types.Response, topic string) (*types.TopicStats, error)
}

// Pipeline is the interface for the record processing pipeline.
type Pipeline interface {
	Process(stats *types.TopicStats) (*types.TopicStats, error)
}

// Recorder receives task events, typically for metrics.
type Recorder interface {
	TaskStarted()
	TaskFinished(outcome Outcome, duration time.Duration, bytes int)
}

// Option configures a Runner.
type Option func(*Runner)

// WithPipeline replaces the default record pipeline.
func WithPipeline(p Pipeline) Option {
	return func(r *Runner) { r.pipeline = p }
}

// WithRecorder attaches a Recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// Runner scrapes a list of topics with a bounded pool of tasks. Every task
// gets its own fetcher from the factory, so tasks share nothing except the
// result collector and the atomic stats.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	factory  fetcher.Factory
	parser   Parser
	pipeline Pipeline
	recorder Recorder
	stats    *Stats
}

// New creates a Runner.
func New(cfg *config.Config, logger *slog.Logger, factory fetcher.Factory, parser Parser, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logger.With("component", "engine"),
		factory: factory,
		parser:  parser,
		stats:   &Stats{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns the statistics of the current or last run.
func (r *Runner) Stats() *Stats {
	return r.stats
}

// Run scrapes every topic and returns the successful records ordered by
// their position in topics. Failed topics are logged and left out.
//
// Cancelling ctx stops tasks that have not started yet; tasks in flight
// run until they finish or hit the fetch timeout. The records collected so
// far are returned together with the context error.
func (r *Runner) Run(ctx context.Context, topics []string) ([]*types.TopicStats, error) {
	if len(topics) == 0 {
		return nil, types.ErrEmptyInput
	}
	if r.factory == nil || r.parser == nil {
		return nil, fmt.Errorf("engine: factory and parser are required")
	}

	pl := r.pipeline
	if pl == nil {
		pl = pipeline.Default(r.logger)
	}

	r.stats = &Stats{StartTime: time.Now()}
	r.stats.TopicsTotal.Store(int64(len(topics)))

	r.logger.Info("scrape starting",
		"topics", len(topics),
		"concurrency", r.cfg.Scraper.Concurrency,
		"fetcher", r.cfg.Scraper.Fetcher,
	)

	var (
		mu      sync.Mutex
		results = make([]*types.TopicStats, 0, len(topics))
		g       errgroup.Group
	)
	g.SetLimit(r.cfg.Scraper.Concurrency)

	// In-flight tasks are detached from cancellation.
	taskCtx := context.WithoutCancel(ctx)

	var scheduled atomic.Int64
	for i, topic := range topics {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while the pool is full, so cancellation is checked
		// again once a slot has been handed out.
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			scheduled.Add(1)
			stats := r.runTask(taskCtx, i, topic, pl)
			if stats != nil {
				mu.Lock()
				results = append(results, stats)
				mu.Unlock()
			}
			r.reportProgress()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(results, func(a, b *types.TopicStats) int {
		return a.Index - b.Index
	})

	r.logger.Info("scrape finished", "stats", r.stats.Snapshot())

	if err := ctx.Err(); err != nil {
		r.logger.Warn("scrape interrupted",
			"scheduled", scheduled.Load(),
			"skipped", int64(len(topics))-scheduled.Load(),
		)
		return results, err
	}
	return results, nil
}
