package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

// runTask scrapes one topic and returns its record, or nil when the topic
// failed or was dropped. Failures are logged here and never retried.
func (r *Runner) runTask(ctx context.Context, index int, topic string, pl Pipeline) *types.TopicStats {
	start := time.Now()
	r.stats.ActiveWorkers.Add(1)
	defer r.stats.ActiveWorkers.Add(-1)

	if r.recorder != nil {
		r.recorder.TaskStarted()
	}

	stats, size, outcome, err := r.scrape(ctx, index, topic, pl)
	duration := time.Since(start)

	if r.recorder != nil {
		r.recorder.TaskFinished(outcome, duration, size)
	}

	switch outcome {
	case OutcomeOK:
		r.stats.TopicsOK.Add(1)
		r.logger.Debug("topic scraped", "topic", topic, "duration", duration)
	case OutcomeDropped:
		r.stats.TopicsDropped.Add(1)
		r.logger.Debug("topic dropped by pipeline", "topic", topic)
	default:
		r.stats.TopicsFailed.Add(1)
		r.logger.Warn("topic failed",
			"topic", topic,
			"outcome", string(outcome),
			"timeout", errors.Is(err, types.ErrTimeout),
			"error", err,
		)
	}

	return stats
}

func (r *Runner) scrape(ctx context.Context, index int, topic string, pl Pipeline) (*types.TopicStats, int, Outcome, error) {
	req, err := types.NewTopicRequest(r.cfg.Scraper.URLTemplate, topic)
	if err != nil {
		return nil, 0, OutcomeFetchError, fmt.Errorf("build request: %w", err)
	}
	req.Timeout = r.cfg.Scraper.Timeout
	req.WaitSelector = r.cfg.Scraper.WaitSelector

	f, err := r.factory()
	if err != nil {
		return nil, 0, OutcomeFetchError, fmt.Errorf("start fetcher: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warn("fetcher close error", "topic", topic, "error", err)
		}
	}()

	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, 0, OutcomeFetchError, err
	}
	size := len(resp.Body)
	r.stats.BytesDownloaded.Add(int64(size))

	stats, err := r.parser.Parse(resp, topic)
	if err != nil {
		return nil, size, OutcomeParseError, err
	}
	stats.Index = index

	processed, err := pl.Process(stats)
	if err != nil {
		return nil, size, OutcomePipelineError, err
	}
	if processed == nil {
		return nil, size, OutcomeDropped, nil
	}
	return processed, size, OutcomeOK, nil
}

// reportProgress marks one task done and logs progress every
// scraper.progress_every completions and on the last one.
func (r *Runner) reportProgress() {
	done := r.stats.TopicsDone.Add(1)
	total := r.stats.TopicsTotal.Load()

	every := int64(r.cfg.Scraper.ProgressEvery)
	if done != total && (every == 0 || done%every != 0) {
		return
	}

	r.logger.Info("progress",
		"done", done,
		"total", total,
		"ok", r.stats.TopicsOK.Load(),
		"failed", r.stats.TopicsFailed.Load(),
		"elapsed", time.Since(r.stats.StartTime).Round(time.Millisecond).String(),
	)
}
