package parser

import (
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Parser turns a fetched topic page into a record.
type Parser interface {
	// Parse extracts the topic metrics from resp.
	Parse(resp *types.Response, topic string) (*types.TopicStats, error)
}
