package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimTopicMiddleware{})

	result, err := p.Process(types.NewTopicStats("  #春节#  "))
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Topic != "#春节#" {
		t.Errorf("expected trimmed topic, got %q", result.Topic)
	}
	if p.Len() != 1 {
		t.Errorf("expected 1 middleware, got %d", p.Len())
	}
}

func TestTrimTopicDropsBlank(t *testing.T) {
	result, err := (&TrimTopicMiddleware{}).Process(types.NewTopicStats(" \t "))
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Error("blank topic should be dropped")
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	if r, _ := m.Process(types.NewTopicStats("a")); r == nil {
		t.Error("first occurrence should pass")
	}
	if r, _ := m.Process(types.NewTopicStats("b")); r == nil {
		t.Error("different topic should pass")
	}
	if r, _ := m.Process(types.NewTopicStats("a")); r != nil {
		t.Error("duplicate topic should be dropped")
	}
}

func TestDedupMiddlewareConcurrent(t *testing.T) {
	m := NewDedupMiddleware()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		passed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, _ := m.Process(types.NewTopicStats("same")); r != nil {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if passed != 1 {
		t.Errorf("expected exactly one record to pass, got %d", passed)
	}
}

func TestSanitizeMiddleware(t *testing.T) {
	stats := types.NewTopicStats("t")
	stats.ReadCount = -5
	stats.DiscussionCount = 12
	rank := 0
	stats.BestRank = &rank
	minutes := int64(-1)
	stats.ListedMinutes = &minutes

	result, err := (&SanitizeMiddleware{}).Process(stats)
	if err != nil {
		t.Fatal(err)
	}
	if result.ReadCount != 0 {
		t.Errorf("negative count should reset to 0, got %d", result.ReadCount)
	}
	if result.DiscussionCount != 12 {
		t.Errorf("valid count should be kept, got %d", result.DiscussionCount)
	}
	if result.BestRank != nil {
		t.Errorf("rank 0 should be cleared")
	}
	if result.ListedMinutes != nil {
		t.Errorf("negative minutes should be cleared")
	}
}

func TestStampMiddleware(t *testing.T) {
	fixed := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	m := &StampMiddleware{Now: func() time.Time { return fixed }}

	stats, _ := m.Process(types.NewTopicStats("t"))
	if !stats.FetchedAt.Equal(fixed) {
		t.Errorf("expected stamped time, got %v", stats.FetchedAt)
	}

	earlier := fixed.Add(-time.Hour)
	stats = types.NewTopicStats("t")
	stats.FetchedAt = earlier
	stats, _ = m.Process(stats)
	if !stats.FetchedAt.Equal(earlier) {
		t.Errorf("existing time should be kept, got %v", stats.FetchedAt)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }

func (failingMiddleware) Process(*types.TopicStats) (*types.TopicStats, error) {
	return nil, errors.New("boom")
}

func TestPipelineErrorCarriesStage(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimTopicMiddleware{})
	p.Use(failingMiddleware{})

	_, err := p.Process(types.NewTopicStats("t"))
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" || pe.Topic != "t" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := Default(testLogger)
	if p.Len() != 4 {
		t.Fatalf("expected 4 middleware, got %d", p.Len())
	}

	first, err := p.Process(types.NewTopicStats(" t "))
	if err != nil || first == nil {
		t.Fatalf("first record should pass: %v", err)
	}
	if first.FetchedAt.IsZero() {
		t.Error("default pipeline should stamp the record")
	}

	dup, err := p.Process(types.NewTopicStats("t"))
	if err != nil {
		t.Fatal(err)
	}
	if dup != nil {
		t.Error("trimmed duplicate should be dropped")
	}
}
