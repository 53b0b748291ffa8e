package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sketchduel/api/internal/deck"
)

func deckIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "deckID"), 10, 64)
	return id, err == nil && id > 0
}

func handleListDecks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := store.ListDecks(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, decks)
	}
}

func handleGetDeck(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := deckIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid deck id")
			return
		}

		detail, err := store.GetDeck(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleCreateDeck(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeckRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		detail, err := store.CreateDeck(r.Context(), req, adminFrom(r).Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, detail)
	}
}

func handleUpdateDeck(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := deckIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid deck id")
			return
		}

		var req DeckRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		detail, err := store.UpdateDeck(r.Context(), id, req)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleDeleteDeck(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := deckIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid deck id")
			return
		}

		err := store.DeleteDeck(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// DeckItemsRequest adds prompts to a deck.
type DeckItemsRequest struct {
	Items []DeckItemRequest `json:"items"`
}

// DeckItemsResponse reports how many items an add or delete touched.
type DeckItemsResponse struct {
	Affected int `json:"affected"`
}

func handleAddDeckItems(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := deckIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid deck id")
			return
		}

		var req DeckItemsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		items := make([]DeckItemRequest, 0, len(req.Items))
		for _, item := range req.Items {
			item.Prompt = strings.TrimSpace(item.Prompt)
			if item.Prompt == "" {
				continue
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			writeError(w, http.StatusBadRequest, "at least one prompt is required")
			return
		}

		n, err := store.AddDeckItems(r.Context(), id, items)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, DeckItemsResponse{Affected: n})
	}
}

// DeleteItemsRequest names the deck items to remove.
type DeleteItemsRequest struct {
	ItemIDs []int64 `json:"itemIds"`
}

func handleDeleteDeckItems(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := deckIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid deck id")
			return
		}

		var req DeleteItemsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.ItemIDs) == 0 {
			writeError(w, http.StatusBadRequest, "itemIds is required")
			return
		}

		n, err := store.DeleteDeckItems(r.Context(), id, req.ItemIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, DeckItemsResponse{Affected: n})
	}
}

func handleDeckStats(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := deckIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid deck id")
			return
		}

		stats, err := store.DeckStats(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// PromptPreviewRequest draws a candidate set without running any analysis.
type PromptPreviewRequest struct {
	Count      int     `json:"count"`
	DeckIDs    []int64 `json:"deckIds"`
	Difficulty string  `json:"difficulty"`
}

func handleDeckPrompts(selector *deck.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PromptPreviewRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Count == 0 {
			req.Count = defaultCandidates
		}
		if req.Count < minCandidates || req.Count > maxCandidates {
			writeError(w, http.StatusBadRequest, "count must be between 2 and 6")
			return
		}

		set, err := selector.Select(r.Context(), req.Count, deck.Filter{
			DeckIDs:    req.DeckIDs,
			Difficulty: req.Difficulty,
		})
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
}
