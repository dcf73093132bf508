package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

var (
	decimalRe = regexp.MustCompile(`[0-9.]+`)
	integerRe = regexp.MustCompile(`\d+`)

	separatorStripper = strings.NewReplacer(",", "", "，", "")

	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Chinese magnitude suffixes, largest first.
var magnitudes = []struct {
	suffix string
	factor int64
}{
	{"万亿", 1_000_000_000_000},
	{"亿", 100_000_000},
	{"万", 10_000},
}

// ParseCount converts a displayed count such as "1.5亿", "2.3万" or "1,234"
// into an integer. The number is scaled as an exact decimal and truncated
// toward zero. Text without digits (e.g. "暂无") counts as 0.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	clean := separatorStripper.Replace(s)
	digits := decimalRe.FindString(clean)
	if digits == "" {
		return 0, nil
	}

	value, err := decimal.NewFromString(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidNumber, s)
	}

	for _, m := range magnitudes {
		if strings.Contains(clean, m.suffix) {
			value = value.Mul(decimal.NewFromInt(m.factor))
			break
		}
	}

	return truncateInt64(value, s)
}

// truncateInt64 drops the fraction of d, failing when the result does not
// fit in an int64.
func truncateInt64(d decimal.Decimal, input string) (int64, error) {
	d = d.Truncate(0)
	if d.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("%w: %q overflows int64", types.ErrInvalidNumber, input)
	}
	return d.IntPart(), nil
}

// ParseRank reads the first positive integer in s, e.g. "第3名" -> 3.
func ParseRank(s string) (int, bool) {
	digits := integerRe.FindString(s)
	if digits == "" {
		return 0, false
	}
	rank, err := strconv.Atoi(digits)
	if err != nil || rank < 1 {
		return 0, false
	}
	return rank, true
}
