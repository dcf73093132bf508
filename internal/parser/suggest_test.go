package parser

import "testing"

func TestSuggestSelectors(t *testing.T) {
	resp := makeResp("https://example.com", detailHTML)

	candidates, err := SuggestSelectors(resp, "阅读量", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected selector candidates")
	}
	if len(candidates) > 5 {
		t.Errorf("limit not applied, got %d", len(candidates))
	}

	found := false
	for _, c := range candidates {
		if c.MatchCount == 0 {
			t.Errorf("candidate %q matches nothing", c.Selector)
		}
		if c.Selector == "div.des" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected div.des among %v", candidates)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Errorf("candidates not sorted by score: %v", candidates)
		}
	}
}

func TestSuggestSelectorsEmptyText(t *testing.T) {
	if _, err := SuggestSelectors(makeResp("https://example.com", detailHTML), "  ", 0); err == nil {
		t.Error("expected error for empty text")
	}
}
