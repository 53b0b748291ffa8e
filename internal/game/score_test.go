package game

import (
	"testing"

	"github.com/sketchduel/api/internal/ai"
)

func intPtr(i int) *int { return &i }

func aiGuess(index int) *ai.Response {
	return &ai.Response{Success: true, GuessIndex: intPtr(index)}
}

func TestScoreTable(t *testing.T) {
	correctIndex := 0

	tests := []struct {
		name          string
		resp          *ai.Response
		humanCorrect  bool
		wantAICorrect bool
		wantScore     int
	}{
		{"both correct", aiGuess(0), true, true, 0},
		{"human only", aiGuess(1), true, false, 1},
		{"ai only", aiGuess(0), false, true, -1},
		{"both wrong", aiGuess(1), false, false, 0},
		{"missing ai, human correct", nil, true, false, 1},
		{"missing ai, human wrong", nil, false, false, 0},
		{"failed ai, human correct", &ai.Response{Success: false}, true, false, 1},
		{"failed ai, human wrong", &ai.Response{Success: false}, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aiCorrect, score := Score(tt.resp, correctIndex, tt.humanCorrect)
			if aiCorrect != tt.wantAICorrect {
				t.Errorf("aiCorrect = %v, want %v", aiCorrect, tt.wantAICorrect)
			}
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
		})
	}
}

func TestScoreIgnoresConfidence(t *testing.T) {
	resp := aiGuess(0)
	resp.Confidence = 0.1
	_, lowConf := Score(resp, 0, false)
	resp.Confidence = 0.9
	_, highConf := Score(resp, 0, false)
	if lowConf != highConf {
		t.Error("confidence must not influence the score")
	}
}
