package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("SketchDuel API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(deps.Logger, deps.DB, deps.RDB, deps.Providers))

	// Gameplay.
	r.Post("/api/analyze", handleAnalyze(deps.Logger, deps.Arbiter, deps.Tracker))
	r.Post("/api/rounds", handleRounds(deps.Logger, deps.Arbiter, deps.Tracker, broker))
	r.Get("/api/games/{gameID}/events", handleEvents(broker))

	// Analytics.
	r.Get("/api/stats", handleStats(deps.Aggregator))
	r.Get("/api/stats/models", handleModelStats(deps.Aggregator))
	r.Get("/api/stats/performance", handlePerformance(deps.Aggregator))

	// Prompt catalog.
	r.Get("/api/prompt-versions", handlePromptVersions(deps.Templates))

	// Decks — reads are public, writes require an admin session.
	r.Get("/api/decks", handleListDecks(deps.Store))
	r.Get("/api/decks/{deckID}", handleGetDeck(deps.Store))
	r.Get("/api/decks/{deckID}/stats", handleDeckStats(deps.Store))
	r.Post("/api/decks/prompts", handleDeckPrompts(deps.Selector))
	r.Group(func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.Store))
		r.Post("/api/decks", handleCreateDeck(deps.Store))
		r.Put("/api/decks/{deckID}", handleUpdateDeck(deps.Store))
		r.Delete("/api/decks/{deckID}", handleDeleteDeck(deps.Store))
		r.Post("/api/decks/{deckID}/items", handleAddDeckItems(deps.Store))
		r.Delete("/api/decks/{deckID}/items", handleDeleteDeckItems(deps.Store))
		r.Post("/api/admin/rollup", handleAdminRollup(deps.Logger, deps.Aggregator))
	})

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(deps.Store))
	r.Post("/api/admin/logout", handleAdminLogout(deps.Store))
	r.Get("/api/admin/me", handleAdminMe(deps.Store))
}
