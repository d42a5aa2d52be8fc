package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeldeck/reeldeck-api/internal/generation"
	"github.com/reeldeck/reeldeck-api/internal/mocks"
	"github.com/reeldeck/reeldeck-api/internal/service"
)

// blockingGenerator parks every QueryStatus call until release is closed.
type blockingGenerator struct {
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Submit(context.Context, generation.SubmissionRequest) (string, error) {
	return "", generation.ErrInvalidRequest
}

func (g *blockingGenerator) QueryStatus(context.Context, string) (*generation.TaskStatus, error) {
	g.entered <- struct{}{}
	<-g.release
	return &generation.TaskStatus{State: generation.TaskStateProcessing}, nil
}

func TestScanAllRecordsUntrackedFailures(t *testing.T) {
	t.Parallel()

	deck := generatingDeck(t, "task-1", "task-2", "task-3")
	card := deck.Cards[0]
	card.VideoURLs = []string{"https://blobs.example.com/scene1_1.mp4"}
	card.RecordFailedTask("task-2", "already tracked", 2)

	decks := mocks.NewDeckStore(deck)
	generator := mocks.NewGenerator()
	generator.Statuses["task-3"] = &generation.TaskStatus{
		State:        generation.TaskStateFailed,
		ErrorMessage: "internal error",
	}
	// task-1 resolves as completed and must be left alone
	generator.Statuses["task-1"] = &generation.TaskStatus{
		State:      generation.TaskStateCompleted,
		ResultURLs: []string{"https://temp.example.com/t1.mp4"},
	}

	scanner, err := service.NewFailedTaskScanner(decks, generator, testLogger())
	require.NoError(t, err)

	result, err := scanner.ScanAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.DecksChecked)
	assert.Equal(t, 1, result.TotalUpdated)

	// The already-tracked task is never re-queried
	assert.NotContains(t, generator.QueryCalls, "task-2")

	require.Len(t, card.FailedTaskDetails, 2)
	added := card.FailedTaskDetails[1]
	assert.Equal(t, "task-3", added.TaskID)
	assert.Equal(t, "internal error", added.Error)
	// Ordinal continues after recorded videos and tracked failures
	assert.Equal(t, 3, added.VideoNumber)
}

func TestScanAllDefaultsErrorMessage(t *testing.T) {
	t.Parallel()

	deck := generatingDeck(t, "task-1", "task-2")
	decks := mocks.NewDeckStore(deck)

	generator := mocks.NewGenerator()
	generator.Statuses["task-1"] = &generation.TaskStatus{State: generation.TaskStateFailed}

	scanner, err := service.NewFailedTaskScanner(decks, generator, testLogger())
	require.NoError(t, err)

	result, err := scanner.ScanAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalUpdated)
	assert.Equal(t, "Unknown error", deck.Cards[0].FailedTaskDetails[0].Error)
}

func TestScanAllSkipsSettledCards(t *testing.T) {
	t.Parallel()

	deck := generatingDeck(t, "task-1", "task-2")
	card := deck.Cards[0]
	card.VideoURLs = []string{
		"https://blobs.example.com/scene1_1.mp4",
		"https://blobs.example.com/scene1_2.mp4",
	}

	decks := mocks.NewDeckStore(deck)
	generator := mocks.NewGenerator()

	scanner, err := service.NewFailedTaskScanner(decks, generator, testLogger())
	require.NoError(t, err)

	result, err := scanner.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalUpdated)
	assert.Empty(t, generator.QueryCalls, "a card with all its videos needs no polling")
}

func TestScanAllNothingToUpdateSkipsSave(t *testing.T) {
	t.Parallel()

	deck := generatingDeck(t, "task-1")
	decks := mocks.NewDeckStore(deck)
	// SaveAll would fail; the scan must not reach it when nothing changed
	decks.FailSave = assert.AnError

	// Default mock status is processing
	scanner, err := service.NewFailedTaskScanner(decks, mocks.NewGenerator(), testLogger())
	require.NoError(t, err)

	result, err := scanner.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalUpdated)
}

func TestScanAllConcurrentScanSkipped(t *testing.T) {
	t.Parallel()

	deck := generatingDeck(t, "task-1")
	decks := mocks.NewDeckStore(deck)

	generator := &blockingGenerator{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}

	scanner, err := service.NewFailedTaskScanner(decks, generator, testLogger())
	require.NoError(t, err)

	type scanOutcome struct {
		result *service.ScanResult
		err    error
	}
	firstDone := make(chan scanOutcome, 1)
	go func() {
		result, scanErr := scanner.ScanAll(context.Background())
		firstDone <- scanOutcome{result, scanErr}
	}()

	// Wait until the first scan is inside the provider call
	<-generator.entered

	second, err := scanner.ScanAll(context.Background())
	assert.ErrorIs(t, err, service.ErrScanInProgress)
	assert.Nil(t, second)

	close(generator.release)
	first := <-firstDone
	require.NoError(t, first.err)
	assert.Equal(t, 1, first.result.DecksChecked)
}

func TestScanAllQueryErrorsAreSkipped(t *testing.T) {
	t.Parallel()

	deck := generatingDeck(t, "task-1", "task-2")
	decks := mocks.NewDeckStore(deck)

	generator := mocks.NewGenerator()
	generator.StatusErrs["task-1"] = generation.ErrTaskNotReady
	generator.StatusErrs["task-2"] = assert.AnError

	scanner, err := service.NewFailedTaskScanner(decks, generator, testLogger())
	require.NoError(t, err)

	result, err := scanner.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalUpdated)
	assert.Empty(t, deck.Cards[0].FailedTasks)
}

func TestScanAllLoadFailure(t *testing.T) {
	t.Parallel()

	decks := mocks.NewDeckStore()
	decks.FailLoad = assert.AnError

	scanner, err := service.NewFailedTaskScanner(decks, mocks.NewGenerator(), testLogger())
	require.NoError(t, err)

	_, err = scanner.ScanAll(context.Background())
	assert.Error(t, err)
}
