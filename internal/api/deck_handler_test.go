package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeldeck/reeldeck-api/internal/api"
	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/generation"
	"github.com/reeldeck/reeldeck-api/internal/mocks"
	"github.com/reeldeck/reeldeck-api/internal/service"
	"github.com/reeldeck/reeldeck-api/internal/task"
)

// testEnv bundles the handler's wired dependencies for one test.
type testEnv struct {
	router    http.Handler
	decks     *mocks.DeckStore
	generator *mocks.Generator
	publisher *mocks.Publisher
	ledger    *task.Ledger
}

func newTestEnv(t *testing.T, seed ...*domain.Deck) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	decks := mocks.NewDeckStore(seed...)
	generator := mocks.NewGenerator()
	publisher := mocks.NewPublisher()
	ledger := task.NewLedger()

	submitter, err := service.NewBatchSubmitter(generator, ledger, service.SubmitterConfig{
		VideosPerCard:  2,
		Model:          "veo3_fast",
		GenerationType: "FIRST_AND_LAST_FRAMES_2_VIDEO",
		BatchSize:      18,
		Window:         time.Second,
		RetryCooldown:  time.Second,
	}, logger)
	require.NoError(t, err)
	submitter.SetSleep(func(time.Duration) {})

	deckService, err := service.NewDeckService(decks, submitter, 50, logger)
	require.NoError(t, err)

	reconciler, err := service.NewReconciler(decks, generator, ledger, publisher, task.Defaults{
		Model:          "veo3_fast",
		AspectRatio:    "9:16",
		GenerationType: "FIRST_AND_LAST_FRAMES_2_VIDEO",
	}, logger)
	require.NoError(t, err)

	scanner, err := service.NewFailedTaskScanner(decks, generator, logger)
	require.NoError(t, err)

	handler := api.NewDeckHandler(deckService, reconciler, scanner, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.Routes(r)
	})

	return &testEnv{
		router:    r,
		decks:     decks,
		generator: generator,
		publisher: publisher,
		ledger:    ledger,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedDeck(t *testing.T, cards int) *domain.Deck {
	t.Helper()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	for i := 0; i < cards; i++ {
		card, err := domain.NewCard("https://cdn.example.com/scene1.png", "pan", "scene1.png")
		require.NoError(t, err)
		deck.Cards = append(deck.Cards, card)
	}
	return deck
}

func TestCreateDeckEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/decks", map[string]string{
		"name":         "Harbor Tour",
		"aspect_ratio": "16:9",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[api.DeckResponse](t, rec)
	assert.Equal(t, "Harbor Tour", resp.Name)
	assert.Equal(t, "16:9", resp.AspectRatio)
	assert.Equal(t, "draft", resp.Status)
	assert.NotNil(t, resp.Cards)
}

func TestCreateDeckDefaultsAspectRatio(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/decks", map[string]string{"name": "Harbor Tour"})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[api.DeckResponse](t, rec)
	assert.Equal(t, "9:16", resp.AspectRatio)
}

func TestCreateDeckValidationFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]string{}},
		{"bad aspect ratio", map[string]string{"name": "x", "aspect_ratio": "4:3"}},
		{"malformed JSON", nil},
	}

	for _, tt := range tests {
		rec := env.do(t, http.MethodPost, "/api/decks", tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
	}
}

func TestListDecksEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, seedDeck(t, 1), seedDeck(t, 0))

	rec := env.do(t, http.MethodGet, "/api/decks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]api.DeckResponse](t, rec)
	assert.Len(t, resp, 2)
}

func TestGetDeckEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 1)
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodGet, "/api/decks/"+deck.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.DeckResponse](t, rec)
	assert.Equal(t, deck.ID.String(), resp.ID)
	assert.Len(t, resp.Cards, 1)

	// Unknown deck is 404
	rec = env.do(t, http.MethodGet, "/api/decks/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed ID is 400
	rec = env.do(t, http.MethodGet, "/api/decks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDeckEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 0)
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodPatch, "/api/decks/"+deck.ID.String(), map[string]string{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.DeckResponse](t, rec)
	assert.Equal(t, "Renamed", resp.Name)
	// Untouched fields survive a partial update
	assert.Equal(t, "9:16", resp.AspectRatio)
}

func TestDeleteDeckEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 0)
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodDelete, "/api/decks/"+deck.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/decks/"+deck.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCardEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 0)
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/cards", map[string]string{
		"image_url":      "https://cdn.example.com/scene1.png",
		"prompt":         "a slow pan",
		"image_filename": "scene1.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[api.CardResponse](t, rec)
	assert.Equal(t, "pending", resp.Status)
	assert.NotNil(t, resp.TaskIDs)
	assert.NotNil(t, resp.VideoURLs)

	// Missing prompt is rejected
	rec = env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/cards", map[string]string{
		"image_url": "https://cdn.example.com/scene1.png",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteCardEndpoints(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 1)
	card := deck.Cards[0]
	env := newTestEnv(t, deck)

	base := "/api/decks/" + deck.ID.String() + "/cards/" + card.ID.String()

	rec := env.do(t, http.MethodPatch, base, map[string]string{"prompt": "a slow zoom"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.CardResponse](t, rec)
	assert.Equal(t, "a slow zoom", resp.Prompt)

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 2)
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/generate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := decode[api.GenerateResponse](t, rec)
	assert.Equal(t, 4, resp.TaskCount)
	assert.Equal(t, "generating", resp.Deck.Status)
	for _, card := range resp.Deck.Cards {
		assert.Len(t, card.TaskIDs, 2)
	}
}

func TestGenerateEndpointEmptyDeck(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 0)
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateEndpointConflict(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 1)
	deck.Status = domain.DeckStatusGenerating
	deck.Cards[0].TaskIDs = []string{"task-1", "task-2"}
	deck.Cards[0].VideoURLs = []string{"https://blobs.example.com/scene1_1.mp4"}
	env := newTestEnv(t, deck)

	rec := env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/generate", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 1)
	deck.Status = domain.DeckStatusGenerating
	deck.Cards[0].Status = domain.CardStatusGenerating
	deck.Cards[0].TaskIDs = []string{"task-1", "task-2"}
	env := newTestEnv(t, deck)

	env.generator.Statuses["task-1"] = &generation.TaskStatus{
		State:      generation.TaskStateCompleted,
		ResultURLs: []string{"https://temp.example.com/t1.mp4"},
	}
	env.generator.Statuses["task-2"] = &generation.TaskStatus{
		State:        generation.TaskStateFailed,
		ErrorCode:    "500",
		ErrorMessage: "quota exceeded",
	}

	rec := env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.ReconcileResponse](t, rec)
	assert.Equal(t, 1, resp.UpdatedVideos)

	card := resp.Deck.Cards[0]
	assert.Equal(t, "partially_completed", card.Status)
	require.Len(t, card.VideoURLs, 1)
	require.Len(t, card.FailedTaskDetails, 1)
	assert.Equal(t, "quota exceeded (Error Code: 500)", card.FailedTaskDetails[0].Error)
	assert.Equal(t, "completed", resp.Deck.Status)
}

func TestApproveVideoEndpoints(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 1)
	card := deck.Cards[0]
	card.VideoURLs = []string{"https://blobs.example.com/scene1_1.mp4"}
	env := newTestEnv(t, deck)

	body := map[string]string{
		"card_id":   card.ID.String(),
		"video_url": "https://blobs.example.com/scene1_1.mp4",
	}

	rec := env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/approve-video", body)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.decks.GetByID(context.Background(), deck.ID)
	require.NoError(t, err)
	assert.True(t, stored.Cards[0].IsVideoApproved("https://blobs.example.com/scene1_1.mp4"))

	rec = env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/unapprove-video", body)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err = env.decks.GetByID(context.Background(), deck.ID)
	require.NoError(t, err)
	assert.False(t, stored.Cards[0].IsVideoApproved("https://blobs.example.com/scene1_1.mp4"))

	// Approving a video the card does not hold is 404
	missing := map[string]string{
		"card_id":   card.ID.String(),
		"video_url": "https://blobs.example.com/other.mp4",
	}
	rec = env.do(t, http.MethodPost, "/api/decks/"+deck.ID.String()+"/approve-video", missing)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateFailedTasksEndpoint(t *testing.T) {
	t.Parallel()

	deck := seedDeck(t, 1)
	deck.Cards[0].TaskIDs = []string{"task-1", "task-2"}
	env := newTestEnv(t, deck)

	env.generator.Statuses["task-1"] = &generation.TaskStatus{
		State:        generation.TaskStateFailed,
		ErrorMessage: "internal error",
	}

	rec := env.do(t, http.MethodPost, "/api/decks/update-failed-tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.ScanResponse](t, rec)
	assert.Equal(t, "Scan completed", resp.Message)
	assert.Equal(t, 1, resp.TotalUpdated)
	assert.Equal(t, 1, resp.DecksChecked)
}
