package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/mocks"
	"github.com/reeldeck/reeldeck-api/internal/service"
	"github.com/reeldeck/reeldeck-api/internal/store"
	"github.com/reeldeck/reeldeck-api/internal/task"
)

func newDeckService(t *testing.T, decks store.DeckStore, maxCards int) (*service.DeckService, *mocks.Generator) {
	t.Helper()

	generator := mocks.NewGenerator()
	submitter, err := service.NewBatchSubmitter(generator, task.NewLedger(), testSubmitterConfig(), testLogger())
	require.NoError(t, err)
	submitter.SetSleep(func(time.Duration) {})

	svc, err := service.NewDeckService(decks, submitter, maxCards, testLogger())
	require.NoError(t, err)
	return svc, generator
}

func TestCreateDeck(t *testing.T) {
	t.Parallel()

	decks := mocks.NewDeckStore()
	svc, _ := newDeckService(t, decks, 50)

	deck, err := svc.CreateDeck(context.Background(), "Harbor Tour", "9:16")
	require.NoError(t, err)
	assert.Equal(t, domain.DeckStatusDraft, deck.Status)

	stored, err := decks.GetByID(context.Background(), deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Tour", stored.Name)
}

func TestCreateDeckValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newDeckService(t, mocks.NewDeckStore(), 50)

	_, err := svc.CreateDeck(context.Background(), "", "9:16")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateDeck(context.Background(), "Harbor Tour", "4:3")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddCard(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	decks := mocks.NewDeckStore(deck)
	svc, _ := newDeckService(t, decks, 50)

	card, err := svc.AddCard(context.Background(), deck.ID, "https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	assert.Equal(t, domain.CardStatusPending, card.Status)

	stored, err := decks.GetByID(context.Background(), deck.ID)
	require.NoError(t, err)
	require.Len(t, stored.Cards, 1)
	assert.Equal(t, card.ID, stored.Cards[0].ID)
}

func TestAddCardDeckFull(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	decks := mocks.NewDeckStore(deck)
	svc, _ := newDeckService(t, decks, 1)

	_, err = svc.AddCard(context.Background(), deck.ID, "https://cdn.example.com/1.png", "p1", "1.png")
	require.NoError(t, err)

	_, err = svc.AddCard(context.Background(), deck.ID, "https://cdn.example.com/2.png", "p2", "2.png")
	assert.ErrorIs(t, err, service.ErrDeckFull)
}

func TestAddCardDeckNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newDeckService(t, mocks.NewDeckStore(), 50)

	_, err := svc.AddCard(context.Background(), uuid.New(), "https://cdn.example.com/s.png", "pan", "s.png")
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestUpdateDeck(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	svc, _ := newDeckService(t, mocks.NewDeckStore(deck), 50)

	name := "Harbor Tour v2"
	aspect := "16:9"
	updated, err := svc.UpdateDeck(context.Background(), deck.ID, service.DeckUpdate{
		Name:        &name,
		AspectRatio: &aspect,
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Tour v2", updated.Name)
	assert.Equal(t, "16:9", updated.AspectRatio)

	// Invalid updates are rejected
	bad := "4:3"
	_, err = svc.UpdateDeck(context.Background(), deck.ID, service.DeckUpdate{AspectRatio: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateAndDeleteCard(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	card, err := domain.NewCard("https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	deck.Cards = append(deck.Cards, card)

	svc, _ := newDeckService(t, mocks.NewDeckStore(deck), 50)

	prompt := "a slow zoom"
	updated, err := svc.UpdateCard(context.Background(), deck.ID, card.ID, service.CardUpdate{Prompt: &prompt})
	require.NoError(t, err)
	assert.Equal(t, "a slow zoom", updated.Prompt)

	_, err = svc.UpdateCard(context.Background(), deck.ID, uuid.New(), service.CardUpdate{Prompt: &prompt})
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	require.NoError(t, svc.DeleteCard(context.Background(), deck.ID, card.ID))
	err = svc.DeleteCard(context.Background(), deck.ID, card.ID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestGenerateDeckVideos(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	card, err := domain.NewCard("https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	deck.Cards = append(deck.Cards, card)

	svc, generator := newDeckService(t, mocks.NewDeckStore(deck), 50)

	result, err := svc.GenerateDeckVideos(context.Background(), deck.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TaskCount)
	assert.Equal(t, domain.DeckStatusGenerating, result.Deck.Status)
	assert.Equal(t, domain.CardStatusGenerating, result.Deck.Cards[0].Status)
	assert.Len(t, result.Deck.Cards[0].TaskIDs, 2)
	assert.Equal(t, 2, generator.SubmitCount())
}

func TestGenerateDeckVideosEmptyDeck(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	svc, _ := newDeckService(t, mocks.NewDeckStore(deck), 50)

	_, err = svc.GenerateDeckVideos(context.Background(), deck.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrDeckHasNoCards)
}

func TestGenerateDeckVideosRejectsActiveRound(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	card, err := domain.NewCard("https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	card.TaskIDs = []string{"task-1", "task-2"}
	card.VideoURLs = []string{"https://blobs.example.com/s_1.mp4"}
	deck.Cards = append(deck.Cards, card)
	deck.Status = domain.DeckStatusGenerating

	svc, _ := newDeckService(t, mocks.NewDeckStore(deck), 50)

	_, err = svc.GenerateDeckVideos(context.Background(), deck.ID)
	assert.ErrorIs(t, err, service.ErrGenerationInProgress)
}

func TestGenerateDeckVideosResubmitResetsState(t *testing.T) {
	t.Parallel()

	// A settled deck from a previous round
	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	card, err := domain.NewCard("https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	card.Status = domain.CardStatusPartiallyCompleted
	card.TaskIDs = []string{"old-1", "old-2"}
	card.VideoURLs = []string{"https://blobs.example.com/s_1.mp4"}
	card.FailedTasks = []string{"old-2"}
	card.FailedTaskDetails = []domain.FailedTask{{TaskID: "old-2", Error: "boom", VideoNumber: 2}}
	card.ApprovedVideos = []string{"https://blobs.example.com/s_1.mp4"}
	deck.Cards = append(deck.Cards, card)
	deck.Status = domain.DeckStatusCompleted

	svc, _ := newDeckService(t, mocks.NewDeckStore(deck), 50)

	result, err := svc.GenerateDeckVideos(context.Background(), deck.ID)
	require.NoError(t, err)

	got := result.Deck.Cards[0]
	assert.Empty(t, got.VideoURLs)
	assert.Empty(t, got.FailedTasks)
	assert.Empty(t, got.FailedTaskDetails)
	assert.Empty(t, got.ApprovedVideos)
	assert.NotContains(t, got.TaskIDs, "old-1", "old task IDs are replaced by the new round")
	assert.Len(t, got.TaskIDs, 2)
}

func TestGenerateDeckVideosRetriesFullyFailedRound(t *testing.T) {
	t.Parallel()

	// Generating with zero videos: every submission of the last round failed
	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	card, err := domain.NewCard("https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	card.Status = domain.CardStatusGenerating
	card.TaskIDs = []string{"old-1", "old-2"}
	deck.Cards = append(deck.Cards, card)
	deck.Status = domain.DeckStatusGenerating

	svc, _ := newDeckService(t, mocks.NewDeckStore(deck), 50)

	result, err := svc.GenerateDeckVideos(context.Background(), deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TaskCount)
}

func TestApproveAndUnapproveVideo(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	card, err := domain.NewCard("https://cdn.example.com/s.png", "pan", "s.png")
	require.NoError(t, err)
	card.VideoURLs = []string{"https://blobs.example.com/s_1.mp4"}
	deck.Cards = append(deck.Cards, card)

	decks := mocks.NewDeckStore(deck)
	svc, _ := newDeckService(t, decks, 50)
	ctx := context.Background()

	require.NoError(t, svc.ApproveVideo(ctx, deck.ID, card.ID, "https://blobs.example.com/s_1.mp4"))

	stored, err := decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.True(t, stored.Cards[0].IsVideoApproved("https://blobs.example.com/s_1.mp4"))

	// Approving a video the card does not hold fails
	err = svc.ApproveVideo(ctx, deck.ID, card.ID, "https://blobs.example.com/other.mp4")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)

	// Unknown card fails
	err = svc.ApproveVideo(ctx, deck.ID, uuid.New(), "https://blobs.example.com/s_1.mp4")
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	require.NoError(t, svc.UnapproveVideo(ctx, deck.ID, card.ID, "https://blobs.example.com/s_1.mp4"))
	stored, err = decks.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.False(t, stored.Cards[0].IsVideoApproved("https://blobs.example.com/s_1.mp4"))
}

func TestDeleteDeck(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck("Harbor Tour", "9:16")
	require.NoError(t, err)
	decks := mocks.NewDeckStore(deck)
	svc, _ := newDeckService(t, decks, 50)

	require.NoError(t, svc.DeleteDeck(context.Background(), deck.ID))
	err = svc.DeleteDeck(context.Background(), deck.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}
