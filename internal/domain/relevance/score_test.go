package relevance

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"empty text", "trademark infringement", "", 0},
		{"whitespace text", "trademark infringement", " \t\n ", 0},
		{"no overlap gets boost", "trademark infringement", "property dispute", 0.1},
		{"half overlap", "trademark infringement", "a trademark case", 0.6},
		{"full overlap capped", "trademark infringement", "infringement of trademark", 1.0},
		{"case insensitive", "Trademark INFRINGEMENT", "trademark infringement", 1.0},
		{"repeated query tokens count once", "tax tax tax land", "tax", 0.6},
		{"empty query with text", "", "anything at all", 0.1},
		{"punctuation is part of token", "e-commerce platform", "e-commerce, platform", 0.6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.query, tc.text)
			if math.Abs(got-tc.want) > eps {
				t.Errorf("Score(%q, %q) = %v, want %v", tc.query, tc.text, got, tc.want)
			}
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	inputs := []struct{ q, t string }{
		{"", ""},
		{"a", "a"},
		{"a b c d e f g h i j", "j"},
		{"one", "one two three four"},
		{"unicode Ünïcode", "ünïcode"},
	}
	for _, in := range inputs {
		s := Score(in.q, in.t)
		if s < 0 || s > 1 {
			t.Errorf("Score(%q, %q) = %v out of [0, 1]", in.q, in.t, s)
		}
	}
}

func TestScore_FormulaAgainstManualCount(t *testing.T) {
	query := "contract breach by supplier in delivery"
	text := "Supplier breach of delivery contract"
	// query tokens: contract breach by supplier in delivery (6), common: contract breach supplier delivery (4)
	want := min(4.0/6.0+Boost, 1.0)
	if got := Score(query, text); math.Abs(got-want) > eps {
		t.Errorf("Score = %v, want %v", got, want)
	}
}
