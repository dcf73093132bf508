package parser

import (
	"errors"
	"testing"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"   ", 0},
		{"暂无", 0},
		{"123", 123},
		{" 456 ", 456},
		{"1,234", 1234},
		{"1，234万", 12340000},
		{"2.3万", 23000},
		{"10万+", 100000},
		{"1.5亿", 150000000},
		{"3.14159亿", 314159000},
		{"0.00015万", 1},
		{"0.5", 0},
		{"2万亿", 2000000000000},
		{"阅读 8.8万", 88000},
		// exact decimal: 0.1 + scale must not drift below the true value
		{"0.3万", 3000},
		{"1.1亿", 110000000},
	}

	for _, tt := range tests {
		got, err := ParseCount(tt.input)
		if err != nil {
			t.Errorf("ParseCount(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestParseCountErrors(t *testing.T) {
	for _, input := range []string{"1.2.3万", "99999999999999999999", "999999999万亿"} {
		_, err := ParseCount(input)
		if err == nil {
			t.Errorf("ParseCount(%q): expected error", input)
			continue
		}
		if !errors.Is(err, types.ErrInvalidNumber) {
			t.Errorf("ParseCount(%q): expected ErrInvalidNumber, got %v", input, err)
		}
	}
}

func TestParseRank(t *testing.T) {
	tests := []struct {
		input string
		rank  int
		ok    bool
	}{
		{"第3名", 3, true},
		{"TOP 12", 12, true},
		{"1", 1, true},
		{"0", 0, false},
		{"", 0, false},
		{"未上榜", 0, false},
	}

	for _, tt := range tests {
		rank, ok := ParseRank(tt.input)
		if rank != tt.rank || ok != tt.ok {
			t.Errorf("ParseRank(%q) = (%d, %v), want (%d, %v)", tt.input, rank, ok, tt.rank, tt.ok)
		}
	}
}
