package types

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request is a single page fetch for one topic.
type Request struct {
	// Topic is the topic this page belongs to.
	Topic string

	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher timeout for this request.
	Timeout time.Duration

	// WaitSelector is the CSS selector a browser fetch waits for before
	// reading the page.
	WaitSelector string
}

// NewRequest creates a new Request with sensible defaults.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	return &Request{
		URL:     u,
		Headers: make(http.Header),
	}, nil
}

// NewTopicRequest builds the detail page request for a topic from a URL
// template containing {topic}.
func NewTopicRequest(tmpl, topic string) (*Request, error) {
	req, err := NewRequest(TopicURL(tmpl, topic))
	if err != nil {
		return nil, err
	}
	req.Topic = topic
	return req, nil
}

// TopicURL substitutes the query-escaped topic into tmpl. Hash marks in
// "#topic#" names become %23.
func TopicURL(tmpl, topic string) string {
	return strings.ReplaceAll(tmpl, "{topic}", url.QueryEscape(topic))
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
