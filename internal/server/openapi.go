package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/sketchduel/api/internal/analytics"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "SketchDuel API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Round arbitration and analytics for the drawing-guessing game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health of backend dependencies and the configured AI providers.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/analyze
	postAnalyze, _ := r.NewOperationContext(http.MethodPost, "/api/analyze")
	postAnalyze.SetSummary("Analyze a drawing")
	postAnalyze.SetDescription("Runs AI vision analysis against explicit options or a fresh deck selection. Never persists anything.")
	postAnalyze.AddReqStructure(AnalyzeRequest{})
	postAnalyze.AddRespStructure(AnalyzeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnalyze.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAnalyze.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnalyze)

	// POST /api/rounds
	postRounds, _ := r.NewOperationContext(http.MethodPost, "/api/rounds")
	postRounds.SetSummary("Save a round")
	postRounds.SetDescription("Scores and persists one complete round, creating the game on first use and updating its total.")
	postRounds.AddReqStructure(RoundRequest{})
	postRounds.AddRespStructure(game.RoundResult{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRounds)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("Round event stream")
	getEvents.SetDescription("Server-Sent Events stream of scored rounds for one game.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/stats")
	getStats.SetSummary("Realtime stats")
	getStats.SetDescription("Running totals plus the last week's human-vs-AI comparison.")
	getStats.AddRespStructure(analytics.RealTimeStats{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// GET /api/stats/models
	getModels, _ := r.NewOperationContext(http.MethodGet, "/api/stats/models")
	getModels.SetSummary("Model comparison")
	getModels.SetDescription("Aggregated model accuracy and latency over the last N days of daily snapshots.")
	getModels.AddRespStructure(analytics.ModelComparison{}, openapi.WithHTTPStatus(http.StatusOK))
	getModels.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getModels)

	// GET /api/stats/performance
	getPerf, _ := r.NewOperationContext(http.MethodGet, "/api/stats/performance")
	getPerf.SetSummary("API performance")
	getPerf.SetDescription("AI call success rate and latency distribution over the last H hours.")
	getPerf.AddRespStructure(analytics.PerformanceReport{}, openapi.WithHTTPStatus(http.StatusOK))
	getPerf.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getPerf)

	// POST /api/admin/rollup
	postRollup, _ := r.NewOperationContext(http.MethodPost, "/api/admin/rollup")
	postRollup.SetSummary("Daily rollup")
	postRollup.SetDescription("Recomputes and upserts one day's model performance snapshots. Requires admin_session cookie.")
	postRollup.AddRespStructure(RollupResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRollup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRollup)

	// GET /api/prompt-versions
	getVersions, _ := r.NewOperationContext(http.MethodGet, "/api/prompt-versions")
	getVersions.SetSummary("Prompt versions")
	getVersions.SetDescription("Lists the available analysis prompt templates.")
	getVersions.AddRespStructure([]PromptVersionInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getVersions)

	// GET /api/decks
	listDecks, _ := r.NewOperationContext(http.MethodGet, "/api/decks")
	listDecks.SetSummary("List decks")
	listDecks.AddRespStructure([]DeckSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listDecks)

	// POST /api/decks
	createDeck, _ := r.NewOperationContext(http.MethodPost, "/api/decks")
	createDeck.SetSummary("Create deck")
	createDeck.SetDescription("Requires admin_session cookie.")
	createDeck.AddReqStructure(DeckRequest{})
	createDeck.AddRespStructure(DeckDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createDeck.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createDeck)

	// GET /api/decks/{deckID}
	getDeck, _ := r.NewOperationContext(http.MethodGet, "/api/decks/{deckID}")
	getDeck.SetSummary("Get deck")
	getDeck.AddRespStructure(DeckDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getDeck.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getDeck)

	// PUT /api/decks/{deckID}
	updateDeck, _ := r.NewOperationContext(http.MethodPut, "/api/decks/{deckID}")
	updateDeck.SetSummary("Update deck")
	updateDeck.SetDescription("Requires admin_session cookie.")
	updateDeck.AddReqStructure(DeckRequest{})
	updateDeck.AddRespStructure(DeckDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	updateDeck.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateDeck)

	// DELETE /api/decks/{deckID}
	deleteDeck, _ := r.NewOperationContext(http.MethodDelete, "/api/decks/{deckID}")
	deleteDeck.SetSummary("Delete deck")
	deleteDeck.SetDescription("Deletes a deck and its items. Requires admin_session cookie.")
	deleteDeck.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteDeck.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteDeck)

	// POST /api/decks/{deckID}/items
	addItems, _ := r.NewOperationContext(http.MethodPost, "/api/decks/{deckID}/items")
	addItems.SetSummary("Add deck items")
	addItems.SetDescription("Requires admin_session cookie.")
	addItems.AddReqStructure(DeckItemsRequest{})
	addItems.AddRespStructure(DeckItemsResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	addItems.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(addItems)

	// DELETE /api/decks/{deckID}/items
	deleteItems, _ := r.NewOperationContext(http.MethodDelete, "/api/decks/{deckID}/items")
	deleteItems.SetSummary("Delete deck items")
	deleteItems.SetDescription("Requires admin_session cookie.")
	deleteItems.AddReqStructure(DeleteItemsRequest{})
	deleteItems.AddRespStructure(DeckItemsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(deleteItems)

	// GET /api/decks/{deckID}/stats
	deckStats, _ := r.NewOperationContext(http.MethodGet, "/api/decks/{deckID}/stats")
	deckStats.SetSummary("Deck stats")
	deckStats.AddRespStructure(DeckStats{}, openapi.WithHTTPStatus(http.StatusOK))
	deckStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deckStats)

	// POST /api/decks/prompts
	preview, _ := r.NewOperationContext(http.MethodPost, "/api/decks/prompts")
	preview.SetSummary("Preview a selection")
	preview.SetDescription("Draws a candidate set from the decks without running analysis.")
	preview.AddReqStructure(PromptPreviewRequest{})
	preview.AddRespStructure(deck.CandidateSet{}, openapi.WithHTTPStatus(http.StatusOK))
	preview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(preview)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
