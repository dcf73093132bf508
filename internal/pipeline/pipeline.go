package pipeline

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop it.
	Process(stats *types.TopicStats) (*types.TopicStats, error)
}

// Pipeline chains middleware processors together. Process may be called
// from several goroutines once all middleware has been added.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the pipeline the scraper runs every record through.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimTopicMiddleware{})
	p.Use(&SanitizeMiddleware{})
	p.Use(NewDedupMiddleware())
	p.Use(&StampMiddleware{})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(stats *types.TopicStats) (*types.TopicStats, error) {
	current := stats

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				Topic: current.Topic,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "topic", stats.Topic)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// TrimTopicMiddleware trims whitespace around the topic and drops records
// whose topic is blank.
type TrimTopicMiddleware struct{}

func (m *TrimTopicMiddleware) Name() string { return "trim_topic" }

func (m *TrimTopicMiddleware) Process(stats *types.TopicStats) (*types.TopicStats, error) {
	stats.Topic = strings.TrimSpace(stats.Topic)
	if stats.Topic == "" {
		return nil, nil
	}
	return stats, nil
}

// DedupMiddleware drops records whose topic was already seen.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: make(map[string]struct{})}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(stats *types.TopicStats) (*types.TopicStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[stats.Topic]; exists {
		return nil, nil
	}
	m.seen[stats.Topic] = struct{}{}
	return stats, nil
}
