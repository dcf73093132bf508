package types

import (
	"strconv"
	"time"
)

// TopicStats is the exported record for one topic.
type TopicStats struct {
	Topic            string `json:"topic"             bson:"topic"`
	ReadCount        int64  `json:"read_count"        bson:"read_count"`
	DiscussionCount  int64  `json:"discussion_count"  bson:"discussion_count"`
	InteractionCount int64  `json:"interaction_count" bson:"interaction_count"`
	OriginalCount    int64  `json:"original_count"    bson:"original_count"`

	// BestRank is the best hot-list position ever reached; nil when the
	// page does not show one.
	BestRank *int `json:"best_rank"         bson:"best_rank"`

	// ListedMinutes is the total time on the hot list; nil when unknown.
	ListedMinutes *int64 `json:"listed_minutes"    bson:"listed_minutes"`

	SourceURL string    `json:"source_url"        bson:"source_url"`
	FetchedAt time.Time `json:"fetched_at"        bson:"fetched_at"`

	// Index is the zero-based position of the topic in the input list.
	Index int `json:"-" bson:"-"`
}

// NewTopicStats returns an empty record for topic.
func NewTopicStats(topic string) *TopicStats {
	return &TopicStats{Topic: topic}
}

// SetBestRank records a rank; non-positive values are ignored.
func (s *TopicStats) SetBestRank(rank int) {
	if rank < 1 {
		return
	}
	s.BestRank = &rank
}

// SetListedMinutes records a listed duration; negative values are ignored.
func (s *TopicStats) SetListedMinutes(minutes int64) {
	if minutes < 0 {
		return
	}
	s.ListedMinutes = &minutes
}

// Header languages.
const (
	HeaderZH = "zh"
	HeaderEN = "en"
)

var (
	columnsZH = []string{"话题", "阅读量", "讨论量", "互动量", "原创量", "最高排名", "在榜时长(分钟)"}
	columnsEN = []string{"topic", "read_count", "discussion_count", "interaction_count", "original_count", "best_rank", "listed_minutes"}
)

// Columns returns the export header row in the given language. Anything
// other than "en" yields the Chinese headers.
func Columns(lang string) []string {
	src := columnsZH
	if lang == HeaderEN {
		src = columnsEN
	}
	return append([]string(nil), src...)
}

// Row returns the record as export cells, aligned with Columns. Absent
// rank and duration are empty strings.
func (s *TopicStats) Row() []string {
	row := []string{
		s.Topic,
		strconv.FormatInt(s.ReadCount, 10),
		strconv.FormatInt(s.DiscussionCount, 10),
		strconv.FormatInt(s.InteractionCount, 10),
		strconv.FormatInt(s.OriginalCount, 10),
		"",
		"",
	}
	if s.BestRank != nil {
		row[5] = strconv.Itoa(*s.BestRank)
	}
	if s.ListedMinutes != nil {
		row[6] = strconv.FormatInt(*s.ListedMinutes, 10)
	}
	return row
}

// Values returns the record as typed cells aligned with Columns. Absent
// rank and duration are nil.
func (s *TopicStats) Values() []any {
	vals := []any{
		s.Topic,
		s.ReadCount,
		s.DiscussionCount,
		s.InteractionCount,
		s.OriginalCount,
		nil,
		nil,
	}
	if s.BestRank != nil {
		vals[5] = *s.BestRank
	}
	if s.ListedMinutes != nil {
		vals[6] = *s.ListedMinutes
	}
	return vals
}
