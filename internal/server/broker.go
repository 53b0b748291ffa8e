package server

import (
	"encoding/json"
	"sync"
)

// RoundEvent is the payload published to game subscribers after a round
// is scored.
type RoundEvent struct {
	Type        string `json:"type"`
	RoundID     int64  `json:"roundId"`
	GameID      int64  `json:"gameId"`
	RoundNumber int    `json:"roundNumber"`
	RoundScore  int    `json:"roundScore"`
	TotalScore  int    `json:"totalScore"`
	AICorrect   bool   `json:"aiIsCorrect"`
	HumanWon    bool   `json:"humanIsCorrect"`
}

// Broker is an in-process pub/sub for SSE events, keyed by game ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[int64]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int64]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given game.
func (b *Broker) Subscribe(gameID int64) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan []byte]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID int64, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given game.
func (b *Broker) Publish(gameID int64, event RoundEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
