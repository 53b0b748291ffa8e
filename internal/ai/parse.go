package ai

import (
	"encoding/json"
	"strings"
)

// ParseGuess extracts a guess index and reasoning from raw model output.
// Best effort, in this order:
//
//  1. Content that looks like a JSON object is decoded; its "index" and
//     "reasoning" fields are used directly. Malformed JSON is a parse
//     failure, not a trigger for the line scan.
//  2. Otherwise the first line starting with a digit yields that single
//     digit as the index, with the entire content kept as reasoning.
//  3. Otherwise no index is found and the content becomes the reasoning.
//
// A nil index means the parse failed. The function never validates the index
// against the candidate list; range checking is the caller's concern.
func ParseGuess(content string) (*int, string) {
	trimmed := strings.TrimSpace(content)

	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Index     *int   `json:"index"`
			Reasoning string `json:"reasoning"`
		}
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, content
		}
		return obj.Index, obj.Reasoning
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] >= '0' && line[0] <= '9' {
			idx := int(line[0] - '0')
			return &idx, content
		}
	}

	return nil, content
}

// confidenceTable maps hedging keywords to confidence scores. Order matters:
// the first table entry found anywhere in the content wins, regardless of
// where it appears in the text.
var confidenceTable = []struct {
	keyword string
	score   float64
}{
	{"definitely", 0.9},
	{"clearly", 0.8},
	{"likely", 0.7},
	{"probably", 0.6},
	{"might", 0.4},
	{"unsure", 0.3},
	{"unclear", 0.2},
}

// EstimateConfidence scans the lowercased content against the keyword table
// and returns 0.5 when no keyword matches.
func EstimateConfidence(content string) float64 {
	lower := strings.ToLower(content)
	for _, entry := range confidenceTable {
		if strings.Contains(lower, entry.keyword) {
			return entry.score
		}
	}
	return 0.5
}
