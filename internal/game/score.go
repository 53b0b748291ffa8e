package game

import "github.com/sketchduel/api/internal/ai"

// Score reconciles the AI's guess with the human's into a round score:
// +1 when only the human is right, -1 when only the AI is right, 0 on any
// tie (both right, both wrong, or no usable AI response). Strict and
// symmetric; confidence and latency never influence it.
//
// resp may be nil or failed; both count as the AI being wrong.
func Score(resp *ai.Response, correctIndex int, humanIsCorrect bool) (aiIsCorrect bool, roundScore int) {
	aiIsCorrect = resp != nil && resp.Success &&
		resp.GuessIndex != nil && *resp.GuessIndex == correctIndex

	switch {
	case humanIsCorrect && !aiIsCorrect:
		roundScore = 1
	case aiIsCorrect && !humanIsCorrect:
		roundScore = -1
	}
	return aiIsCorrect, roundScore
}
