// Package api provides HTTP handlers for the API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/api/shared"
	"github.com/reeldeck/reeldeck-api/internal/platform/logger"
	"github.com/reeldeck/reeldeck-api/internal/service"
)

// DeckHandler handles deck-related HTTP requests.
type DeckHandler struct {
	decks      *service.DeckService
	reconciler *service.Reconciler
	scanner    *service.FailedTaskScanner
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(
	decks *service.DeckService,
	reconciler *service.Reconciler,
	scanner *service.FailedTaskScanner,
	log *slog.Logger,
) *DeckHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		decks:      decks,
		reconciler: reconciler,
		scanner:    scanner,
		validate:   validator.New(),
		logger:     log.With(slog.String("component", "deck_handler")),
	}
}

// Routes mounts every deck route on the given router.
func (h *DeckHandler) Routes(r chi.Router) {
	r.Route("/decks", func(r chi.Router) {
		r.Post("/", h.CreateDeck)
		r.Get("/", h.ListDecks)
		r.Post("/update-failed-tasks", h.UpdateFailedTasks)
		r.Route("/{deckID}", func(r chi.Router) {
			r.Get("/", h.GetDeck)
			r.Patch("/", h.UpdateDeck)
			r.Delete("/", h.DeleteDeck)
			r.Post("/cards", h.AddCard)
			r.Patch("/cards/{cardID}", h.UpdateCard)
			r.Delete("/cards/{cardID}", h.DeleteCard)
			r.Post("/generate", h.Generate)
			r.Post("/status", h.Reconcile)
			r.Post("/approve-video", h.ApproveVideo)
			r.Post("/unapprove-video", h.UnapproveVideo)
		})
	})
}

// CreateDeck handles POST /decks requests.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	deck, err := h.decks.CreateDeck(r.Context(), req.Name, aspectRatio)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// ListDecks handles GET /decks requests.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.ListDecks(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]DeckResponse, 0, len(decks))
	for _, d := range decks {
		out = append(out, deckToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetDeck handles GET /decks/{deckID} requests.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	deck, err := h.decks.GetDeck(r.Context(), deckID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deckToResponse(deck))
}

// UpdateDeck handles PATCH /decks/{deckID} requests.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	var req UpdateDeckRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	deck, err := h.decks.UpdateDeck(r.Context(), deckID, service.DeckUpdate{
		Name:        req.Name,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deckToResponse(deck))
}

// DeleteDeck handles DELETE /decks/{deckID} requests.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	if err := h.decks.DeleteDeck(r.Context(), deckID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddCard handles POST /decks/{deckID}/cards requests.
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	var req AddCardRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.decks.AddCard(r.Context(), deckID, req.ImageURL, req.Prompt, req.ImageFilename)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// UpdateCard handles PATCH /decks/{deckID}/cards/{cardID} requests.
func (h *DeckHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	cardID, ok := h.pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	var req UpdateCardRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.decks.UpdateCard(r.Context(), deckID, cardID, service.CardUpdate{
		ImageURL:      req.ImageURL,
		Prompt:        req.Prompt,
		ImageFilename: req.ImageFilename,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /decks/{deckID}/cards/{cardID} requests.
func (h *DeckHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	cardID, ok := h.pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.decks.DeleteCard(r.Context(), deckID, cardID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Generate handles POST /decks/{deckID}/generate requests. The call blocks
// until every generation request of the round has been submitted; for large
// decks that includes the rate-window pauses.
func (h *DeckHandler) Generate(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	result, err := h.decks.GenerateDeckVideos(r.Context(), deckID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateResponse{
		TaskCount: result.TaskCount,
		Deck:      deckToResponse(result.Deck),
	})
}

// Reconcile handles POST /decks/{deckID}/status requests: one client-driven
// reconciliation pass over the deck's outstanding tasks.
func (h *DeckHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	result, err := h.reconciler.ReconcileDeck(r.Context(), deckID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReconcileResponse{
		UpdatedVideos: result.UpdatedVideos,
		Deck:          deckToResponse(result.Deck),
	})
}

// ApproveVideo handles POST /decks/{deckID}/approve-video requests.
func (h *DeckHandler) ApproveVideo(w http.ResponseWriter, r *http.Request) {
	h.setVideoApproval(w, r, true)
}

// UnapproveVideo handles POST /decks/{deckID}/unapprove-video requests.
func (h *DeckHandler) UnapproveVideo(w http.ResponseWriter, r *http.Request) {
	h.setVideoApproval(w, r, false)
}

func (h *DeckHandler) setVideoApproval(w http.ResponseWriter, r *http.Request, approve bool) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	var req ApproveVideoRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return
	}

	if approve {
		err = h.decks.ApproveVideo(r.Context(), deckID, cardID, req.VideoURL)
	} else {
		err = h.decks.UnapproveVideo(r.Context(), deckID, cardID, req.VideoURL)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"approved": approve})
}

// UpdateFailedTasks handles POST /decks/update-failed-tasks requests: the
// retroactive scan for untracked failed tasks across all decks.
func (h *DeckHandler) UpdateFailedTasks(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.ScanAll(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrScanInProgress) {
			shared.RespondWithJSON(w, r, http.StatusOK, ScanResponse{
				Message: "Update already in progress",
			})
			return
		}
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ScanResponse{
		Message:      "Scan completed",
		TotalUpdated: result.TotalUpdated,
		DecksChecked: result.DecksChecked,
	})
}

// deckID extracts and parses the deckID path parameter.
func (h *DeckHandler) deckID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return h.pathUUID(w, r, "deckID")
}

// pathUUID extracts and parses a UUID path parameter, responding with 400 on
// malformed input.
func (h *DeckHandler) pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate decodes the JSON request body into dst and validates it,
// responding with 400 on failure. It reports whether the request is usable.
func (h *DeckHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Debug("failed to decode request body", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		log.Debug("request validation failed", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}

	return true
}

// respondError maps an error to its status code and safe message.
func (h *DeckHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
