package types

import (
	"reflect"
	"testing"
)

func TestTopicStatsRow(t *testing.T) {
	s := NewTopicStats("#春节#")
	s.ReadCount = 150000000
	s.DiscussionCount = 23000
	s.InteractionCount = 4
	s.OriginalCount = 0

	want := []string{"#春节#", "150000000", "23000", "4", "0", "", ""}
	if got := s.Row(); !reflect.DeepEqual(got, want) {
		t.Errorf("row without optionals: got %v, want %v", got, want)
	}

	s.SetBestRank(3)
	s.SetListedMinutes(1590)
	want[5], want[6] = "3", "1590"
	if got := s.Row(); !reflect.DeepEqual(got, want) {
		t.Errorf("row with optionals: got %v, want %v", got, want)
	}

	if len(s.Row()) != len(Columns(HeaderZH)) || len(s.Values()) != len(Columns(HeaderEN)) {
		t.Error("row and columns must line up")
	}
}

func TestSetBestRankIgnoresNonPositive(t *testing.T) {
	s := NewTopicStats("x")
	s.SetBestRank(0)
	s.SetBestRank(-2)
	if s.BestRank != nil {
		t.Errorf("expected nil rank, got %d", *s.BestRank)
	}
	s.SetListedMinutes(-1)
	if s.ListedMinutes != nil {
		t.Errorf("expected nil minutes, got %d", *s.ListedMinutes)
	}
}

func TestColumnsLanguage(t *testing.T) {
	if Columns(HeaderZH)[0] != "话题" {
		t.Errorf("expected Chinese header, got %q", Columns(HeaderZH)[0])
	}
	if Columns(HeaderEN)[6] != "listed_minutes" {
		t.Errorf("expected English header, got %q", Columns(HeaderEN)[6])
	}
	// Callers may mutate the returned slice.
	c := Columns(HeaderEN)
	c[0] = "mutated"
	if Columns(HeaderEN)[0] != "topic" {
		t.Error("Columns must return a copy")
	}
}

func TestTopicURL(t *testing.T) {
	got := TopicURL("https://m.s.weibo.com/vtopic/detail_new?q={topic}", "#春节 快乐#")
	want := "https://m.s.weibo.com/vtopic/detail_new?q=%23%E6%98%A5%E8%8A%82+%E5%BF%AB%E4%B9%90%23"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	req, err := NewTopicRequest("https://example.com/t?q={topic}", "#a#")
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if req.Topic != "#a#" || req.URL.Query().Get("q") != "#a#" {
		t.Errorf("unexpected request %+v", req)
	}
}
