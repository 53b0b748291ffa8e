package ai

import "testing"

func TestParseGuessJSON(t *testing.T) {
	idx, reasoning := ParseGuess(`{"index": 2, "reasoning": "round body, whiskers"}`)
	if idx == nil || *idx != 2 {
		t.Fatalf("expected index 2, got %v", idx)
	}
	if reasoning != "round body, whiskers" {
		t.Errorf("expected JSON reasoning, got %q", reasoning)
	}
}

func TestParseGuessJSONWithoutIndex(t *testing.T) {
	idx, reasoning := ParseGuess(`{"reasoning": "no idea"}`)
	if idx != nil {
		t.Errorf("expected nil index, got %d", *idx)
	}
	if reasoning != "no idea" {
		t.Errorf("got reasoning %q", reasoning)
	}
}

func TestParseGuessMalformedJSONDoesNotFallBack(t *testing.T) {
	// A broken JSON object is a parse failure even though a digit line
	// follows; the line scan only applies to non-JSON content.
	content := "{\"index\": 2,\n3 is my answer"
	idx, reasoning := ParseGuess(content)
	if idx != nil {
		t.Errorf("expected nil index for malformed JSON, got %d", *idx)
	}
	if reasoning != content {
		t.Errorf("raw content should be retained as reasoning, got %q", reasoning)
	}
}

func TestParseGuessDigitLine(t *testing.T) {
	content := "I think it is:\n2\nbecause of the tail"
	idx, reasoning := ParseGuess(content)
	if idx == nil || *idx != 2 {
		t.Fatalf("expected index 2, got %v", idx)
	}
	if reasoning != content {
		t.Errorf("full content should become reasoning, got %q", reasoning)
	}
}

func TestParseGuessTakesOnlyTheFirstDigit(t *testing.T) {
	// "10" yields 1: the policy reads a single leading digit, not a number.
	idx, _ := ParseGuess("10 out of these options")
	if idx == nil || *idx != 1 {
		t.Fatalf("expected single-digit index 1, got %v", idx)
	}
}

func TestParseGuessNoIndex(t *testing.T) {
	content := "It resembles some kind of animal."
	idx, reasoning := ParseGuess(content)
	if idx != nil {
		t.Errorf("expected nil index, got %d", *idx)
	}
	if reasoning != content {
		t.Errorf("got reasoning %q", reasoning)
	}
}

func TestEstimateConfidence(t *testing.T) {
	tests := []struct {
		content string
		want    float64
	}{
		{"This is definitely a cat", 0.9},
		{"Clearly a dog here", 0.8},
		{"it MIGHT be a fish", 0.4},
		{"the image is unclear", 0.2},
		{"no hedging words at all", 0.5},
		// Table order wins, not text order: "might" appears first in the
		// text but "clearly" ranks earlier in the table.
		{"it might be a cat but is clearly a dog", 0.8},
	}
	for _, tt := range tests {
		if got := EstimateConfidence(tt.content); got != tt.want {
			t.Errorf("EstimateConfidence(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
