package parser

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// TopicParser reads the metrics block of a topic detail page.
//
// Counters come from the label/number pairs inside the detail block. Fields
// the block does not provide are then tried with the configured fallback
// rules: css (goquery), xpath (htmlquery) or regex (matched against the
// page text). A TopicParser is safe for concurrent use.
type TopicParser struct {
	cfg     config.ParserConfig
	labels  map[string]string
	regexes map[string]*regexp.Regexp
	logger  *slog.Logger
}

// NewTopicParser creates a parser for the given selectors and rules.
// Rules with an invalid pattern are dropped with a warning.
func NewTopicParser(cfg config.ParserConfig, logger *slog.Logger) *TopicParser {
	p := &TopicParser{
		cfg:     cfg,
		labels:  make(map[string]string, len(cfg.Labels)),
		regexes: make(map[string]*regexp.Regexp),
		logger:  logger.With("component", "topic_parser"),
	}

	// Config keys may arrive lower-cased, so lookups are case-insensitive.
	for label, field := range cfg.Labels {
		p.labels[strings.ToLower(strings.TrimSpace(label))] = field
	}

	for _, rule := range cfg.Rules {
		if rule.Type != "regex" {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			p.logger.Warn("dropping invalid regex rule", "rule", rule.Name, "error", err)
			continue
		}
		p.regexes[rule.Pattern] = re
	}

	return p
}

// Parse implements Parser.
func (p *TopicParser) Parse(resp *types.Response, topic string) (*types.TopicStats, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{Topic: topic, Err: err}
	}

	block := doc.Find(p.cfg.DetailSelector).First()
	if block.Length() == 0 {
		return nil, &types.ParseError{
			Topic:    topic,
			Selector: p.cfg.DetailSelector,
			Err:      types.ErrNoData,
		}
	}

	stats := types.NewTopicStats(topic)
	stats.SourceURL = resp.FinalURL
	if stats.SourceURL == "" && resp.Request != nil {
		stats.SourceURL = resp.Request.URLString()
	}
	stats.FetchedAt = resp.FetchedAt

	found := make(map[string]bool)

	block.Find(p.cfg.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		num := item.Find(p.cfg.NumSelector).First()
		des := item.Find(p.cfg.LabelSelector).First()
		if num.Length() == 0 || des.Length() == 0 {
			return
		}

		label := strings.TrimSpace(des.Text())
		field, ok := p.labels[strings.ToLower(label)]
		if !ok {
			p.logger.Debug("unknown label", "topic", topic, "label", label)
			return
		}
		if p.apply(stats, field, strings.TrimSpace(num.Text())) {
			found[field] = true
		}
	})

	var root *html.Node
	for _, rule := range p.cfg.Rules {
		if found[rule.Name] {
			continue
		}

		var values []string
		switch rule.Type {
		case "xpath":
			if root == nil {
				root, err = htmlquery.Parse(bytes.NewReader(resp.Body))
				if err != nil {
					p.logger.Warn("xpath document parse failed", "topic", topic, "error", err)
					continue
				}
			}
			values = xpathValues(root, rule, p.logger)
		case "regex":
			re, ok := p.regexes[rule.Pattern]
			if !ok {
				continue
			}
			values = regexValues(re, doc.Text())
		default:
			values = cssValues(doc, rule)
		}

		if len(values) == 0 {
			continue
		}
		if p.apply(stats, rule.Name, strings.TrimSpace(values[0])) {
			found[rule.Name] = true
		}
	}

	p.logger.Debug("topic parsed",
		"topic", topic,
		"fields", len(found),
		"read", stats.ReadCount,
		"discussion", stats.DiscussionCount,
	)

	return stats, nil
}

// apply parses raw into the given field and reports whether it was set.
// A value that fails to parse leaves the field at its default.
func (p *TopicParser) apply(stats *types.TopicStats, field, raw string) bool {
	switch field {
	case config.FieldReadCount, config.FieldDiscussionCount,
		config.FieldInteractionCount, config.FieldOriginalCount:
		n, err := ParseCount(raw)
		if err != nil {
			p.logger.Warn("bad count", "topic", stats.Topic, "field", field, "value", raw, "error", err)
			return false
		}
		switch field {
		case config.FieldReadCount:
			stats.ReadCount = n
		case config.FieldDiscussionCount:
			stats.DiscussionCount = n
		case config.FieldInteractionCount:
			stats.InteractionCount = n
		case config.FieldOriginalCount:
			stats.OriginalCount = n
		}
		return true

	case config.FieldBestRank:
		rank, ok := ParseRank(raw)
		if !ok {
			return false
		}
		stats.SetBestRank(rank)
		return true

	case config.FieldListedDuration:
		minutes, ok, err := ParseDuration(raw)
		if err != nil {
			p.logger.Warn("bad duration", "topic", stats.Topic, "value", raw, "error", err)
			return false
		}
		if !ok {
			return false
		}
		stats.SetListedMinutes(minutes)
		return true

	default:
		p.logger.Debug("no handler for field", "field", field)
		return false
	}
}
