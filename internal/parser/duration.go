package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Longer unit spellings come first so "小时" is not read as "时".
var durationPartRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(天|日|小时|时|分钟|分|秒)`)

var (
	unitSeconds = map[string]decimal.Decimal{
		"day":    decimal.NewFromInt(86400),
		"hour":   decimal.NewFromInt(3600),
		"minute": decimal.NewFromInt(60),
		"second": decimal.NewFromInt(1),
	}
	secondsPerMinute = decimal.NewFromInt(60)
)

func canonicalUnit(u string) string {
	switch u {
	case "天", "日":
		return "day"
	case "小时", "时":
		return "hour"
	case "分钟", "分":
		return "minute"
	default:
		return "second"
	}
}

// ParseDuration converts a composite duration such as "1天2小时30分钟" into
// whole minutes. ok is false for empty input. Components may be fractional
// ("1.5小时") and may only be separated by whitespace; a label without
// digits may precede the first one. Seconds are summed before truncating
// to minutes, and a bare number is taken as minutes.
func ParseDuration(s string) (minutes int64, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	if n, err := decimal.NewFromString(s); err == nil {
		if n.IsNegative() {
			return 0, false, fmt.Errorf("%w: negative duration %q", types.ErrInvalidNumber, s)
		}
		minutes, err := truncateInt64(n, s)
		if err != nil {
			return 0, false, err
		}
		return minutes, true, nil
	}

	spans := durationPartRe.FindAllStringSubmatchIndex(s, -1)
	if len(spans) == 0 {
		return 0, false, fmt.Errorf("%w: unrecognised duration %q", types.ErrInvalidNumber, s)
	}
	if prefix := s[:spans[0][0]]; strings.ContainsAny(prefix, "0123456789.-+") {
		return 0, false, fmt.Errorf("%w: malformed duration %q", types.ErrInvalidNumber, s)
	}
	for i := 1; i < len(spans); i++ {
		if gap := s[spans[i-1][1]:spans[i][0]]; strings.TrimSpace(gap) != "" {
			return 0, false, fmt.Errorf("%w: unexpected %q in duration %q", types.ErrInvalidNumber, gap, s)
		}
	}
	if tail := s[spans[len(spans)-1][1]:]; strings.TrimSpace(tail) != "" {
		return 0, false, fmt.Errorf("%w: unexpected %q in duration %q", types.ErrInvalidNumber, tail, s)
	}

	seen := make(map[string]bool, len(spans))
	seconds := decimal.Zero
	for _, span := range spans {
		unit := canonicalUnit(s[span[4]:span[5]])
		if seen[unit] {
			return 0, false, fmt.Errorf("%w: duplicate %s in %q", types.ErrInvalidNumber, unit, s)
		}
		seen[unit] = true

		n, err := decimal.NewFromString(s[span[2]:span[3]])
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q: %v", types.ErrInvalidNumber, s, err)
		}
		seconds = seconds.Add(n.Mul(unitSeconds[unit]))
	}

	whole, _ := seconds.QuoRem(secondsPerMinute, 0)
	minutes, err = truncateInt64(whole, s)
	if err != nil {
		return 0, false, err
	}
	return minutes, true, nil
}
