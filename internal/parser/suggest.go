package parser

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

// SelectorCandidate is a CSS selector proposed for an element.
type SelectorCandidate struct {
	Selector    string  `json:"selector"`
	Specificity int     `json:"specificity"`
	MatchCount  int     `json:"match_count"`
	Score       float64 `json:"score"`
}

// SuggestSelectors proposes selectors for the innermost elements whose text
// contains text, best first. It helps remap parser selectors when the page
// markup changes: pass a label such as "阅读量" and compare the result with
// parser.label_selector and parser.item_selector.
func SuggestSelectors(resp *types.Response, text string, limit int) ([]SelectorCandidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []SelectorCandidate

	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if !strings.Contains(sel.Text(), text) {
			return
		}
		// Skip wrappers: only the innermost match is interesting.
		inner := false
		sel.Children().EachWithBreak(func(_ int, child *goquery.Selection) bool {
			inner = strings.Contains(child.Text(), text)
			return !inner
		})
		if inner {
			return
		}

		for _, c := range selectorsFor(sel) {
			if seen[c.Selector] {
				continue
			}
			seen[c.Selector] = true
			c.MatchCount = doc.Find(c.Selector).Length()
			if c.MatchCount == 0 {
				continue
			}
			c.Score = matchScore(c.MatchCount)
			candidates = append(candidates, c)
		}
	})

	slices.SortStableFunc(candidates, func(a, b SelectorCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.Specificity, a.Specificity)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// matchScore prefers selectors that match few elements. A metrics page has
// a handful of label cells, so up to eight matches still scores well.
func matchScore(count int) float64 {
	switch {
	case count == 1:
		return 1.0
	case count <= 8:
		return 0.8
	case count <= 20:
		return 0.5
	default:
		return 0.2
	}
}

func selectorsFor(sel *goquery.Selection) []SelectorCandidate {
	var out []SelectorCandidate
	tag := goquery.NodeName(sel)

	if id, ok := sel.Attr("id"); ok && id != "" {
		out = append(out, SelectorCandidate{Selector: "#" + cssEscape(id), Specificity: 100})
	}

	if class, ok := sel.Attr("class"); ok {
		classes := strings.Fields(class)
		for _, c := range classes {
			out = append(out, SelectorCandidate{Selector: tag + "." + cssEscape(c), Specificity: 20})
		}
		if len(classes) > 1 {
			combined := tag
			for _, c := range classes {
				combined += "." + cssEscape(c)
			}
			out = append(out, SelectorCandidate{Selector: combined, Specificity: 10 + len(classes)*10})
		}
	}

	if path := elementPath(sel, 3); path != "" {
		out = append(out, SelectorCandidate{Selector: path, Specificity: 30})
	}

	return out
}

// elementPath builds a "parent > child" chain of at most depth steps,
// stopping early at an element with an id.
func elementPath(sel *goquery.Selection, depth int) string {
	var parts []string
	current := sel

	for i := 0; i < depth; i++ {
		tag := goquery.NodeName(current)
		if tag == "" || tag == "html" || tag == "body" {
			break
		}
		if id, ok := current.Attr("id"); ok && id != "" {
			parts = append([]string{"#" + cssEscape(id)}, parts...)
			break
		}
		part := tag
		if class, ok := current.Attr("class"); ok {
			if classes := strings.Fields(class); len(classes) > 0 {
				part += "." + cssEscape(classes[0])
			}
		}
		parts = append([]string{part}, parts...)
		current = current.Parent()
	}

	return strings.Join(parts, " > ")
}

var cssEscaper = strings.NewReplacer(
	":", `\:`,
	".", `\.`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"/", `\/`,
	" ", `\ `,
)

func cssEscape(s string) string {
	return cssEscaper.Replace(s)
}
