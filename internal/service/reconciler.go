package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/generation"
	"github.com/reeldeck/reeldeck-api/internal/platform/logger"
	"github.com/reeldeck/reeldeck-api/internal/store"
	"github.com/reeldeck/reeldeck-api/internal/task"
)

// VideoPublisher republishes a generated video from the provider's transient
// result URL into durable storage, returning the durable URL.
type VideoPublisher interface {
	Republish(ctx context.Context, sourceURL, baseName string) (string, error)
}

// ReconcileResult summarizes one reconciliation pass over a deck.
type ReconcileResult struct {
	// UpdatedVideos is the number of tasks that resolved to a completed
	// video during this pass.
	UpdatedVideos int

	// Deck is the deck state after the pass.
	Deck *domain.Deck
}

// Reconciler polls the provider for every outstanding task of a deck and
// folds the results into card and deck state: completed tasks become durable
// video URLs, failed tasks become failure records, and statuses are
// re-derived from the counters. A pass is idempotent; repeating it without
// provider-state changes leaves the deck byte-identical.
type Reconciler struct {
	logger    *slog.Logger
	decks     store.DeckStore
	generator generation.VideoGenerator
	ledger    *task.Ledger
	publisher VideoPublisher
	defaults  task.Defaults
}

// NewReconciler creates a Reconciler.
// It returns an error if any of the required dependencies are nil.
func NewReconciler(
	decks store.DeckStore,
	generator generation.VideoGenerator,
	ledger *task.Ledger,
	publisher VideoPublisher,
	defaults task.Defaults,
	log *slog.Logger,
) (*Reconciler, error) {
	if decks == nil {
		return nil, errors.New("deck store cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if ledger == nil {
		return nil, errors.New("ledger cannot be nil")
	}
	if publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Reconciler{
		logger:    log.With(slog.String("component", "reconciler")),
		decks:     decks,
		generator: generator,
		ledger:    ledger,
		publisher: publisher,
		defaults:  defaults,
	}, nil
}

// ReconcileDeck runs one reconciliation pass over the deck. The entire
// load-poll-mutate-save cycle happens inside the store's Update so concurrent
// passes over the same collection are serialized rather than racing.
func (r *Reconciler) ReconcileDeck(ctx context.Context, deckID uuid.UUID) (*ReconcileResult, error) {
	log := logger.FromContextOrDefault(ctx, r.logger).With(slog.String("deck_id", deckID.String()))

	result := &ReconcileResult{}

	deck, err := r.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		for _, card := range deck.Cards {
			result.UpdatedVideos += r.reconcileCard(ctx, log, deck, card)
		}
		deck.RecalculateStatus()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Deck = deck
	log.Info("reconciliation pass finished",
		"updated_videos", result.UpdatedVideos,
		"deck_status", string(deck.Status))
	return result, nil
}

// reconcileCard polls every outstanding task of one card and returns how many
// tasks resolved to a completed video.
func (r *Reconciler) reconcileCard(ctx context.Context, log *slog.Logger, deck *domain.Deck, card *domain.Card) int {
	expected := card.ExpectedVideos()
	if expected == 0 || cardSettled(card, expected) {
		// Every task already resolved to a video or a failure record; a
		// repeat poll must not consume a completion a second time.
		return 0
	}

	updated := 0
	for _, taskID := range card.TaskIDs {
		status, err := r.generator.QueryStatus(ctx, taskID)
		if err != nil {
			// A not-ready record means the task is still processing; any
			// other failure leaves the task outstanding for the next poll.
			if !errors.Is(err, generation.ErrTaskNotReady) {
				log.Error("status query failed",
					"task_id", taskID,
					"card_id", card.ID.String(),
					"error", err)
			}
			continue
		}

		switch status.State {
		case generation.TaskStateCompleted:
			if r.handleCompleted(ctx, log, deck, card, taskID, status) {
				updated++
			}
		case generation.TaskStateFailed:
			r.handleFailed(log, card, taskID, status)
		case generation.TaskStateProcessing:
			// Task remains outstanding.
		}
	}
	return updated
}

// handleCompleted republishes the first result URL of a completed task and
// records the durable URL on the card. It reports whether the card gained a
// video. The ledger entry is removed in every resolution path.
func (r *Reconciler) handleCompleted(
	ctx context.Context,
	log *slog.Logger,
	deck *domain.Deck,
	card *domain.Card,
	taskID string,
	status *generation.TaskStatus,
) bool {
	if len(status.ResultURLs) == 0 {
		log.Warn("completed task carried no result URLs", "task_id", taskID)
		return false
	}

	expected := card.ExpectedVideos()
	if cardSettled(card, expected) {
		// Every slot is accounted for; a duplicate poll of an
		// already-consumed completion is a no-op.
		return false
	}

	taskCtx := r.taskContext(taskID, deck, card)
	videoNumber := len(card.VideoURLs) + 1
	baseName := videoBaseName(taskCtx, videoNumber)

	log.Info("processing completed task",
		"task_id", taskID,
		"card_id", card.ID.String(),
		"video_number", videoNumber,
		"expected_videos", expected)

	durableURL, err := r.publisher.Republish(ctx, status.ResultURLs[0], baseName)
	if err != nil {
		// A fetch or republish failure counts as a generation failure so the
		// card state machine can represent the partial outcome.
		log.Warn("failed to republish video",
			"task_id", taskID,
			"error", err)
		card.RecordFailedTask(taskID, "failed to download or republish video", videoNumber)
		r.ledger.Forget(taskID)
		return false
	}

	added := card.RecordVideoURL(durableURL)
	if added {
		log.Info("video recorded",
			"card_id", card.ID.String(),
			"videos", len(card.VideoURLs),
			"expected_videos", expected)
	} else {
		log.Debug("video already recorded, skipping duplicate", "url", durableURL)
	}

	r.ledger.Forget(taskID)
	return added
}

// handleFailed records a provider-side generation failure on the card,
// keyed by task ID so duplicate polls cannot double-count it.
func (r *Reconciler) handleFailed(log *slog.Logger, card *domain.Card, taskID string, status *generation.TaskStatus) {
	errMsg := failureMessage(status.ErrorCode, status.ErrorMessage)
	videoNumber := len(card.VideoURLs) + 1

	if card.RecordFailedTask(taskID, errMsg, videoNumber) {
		log.Warn("task failed on provider side",
			"task_id", taskID,
			"card_id", card.ID.String(),
			"error", errMsg)
	}

	r.ledger.Forget(taskID)
}

// cardSettled reports whether every expected slot on the card is accounted
// for, either by a recorded video or a failure record.
func cardSettled(card *domain.Card, expected int) bool {
	return len(card.VideoURLs)+len(card.FailedTasks) >= expected
}

// taskContext resolves the submission context for a task: the ledger entry
// when present, otherwise a best-effort reconstruction from the persisted
// card and deck.
func (r *Reconciler) taskContext(taskID string, deck *domain.Deck, card *domain.Card) task.Context {
	if taskCtx, ok := r.ledger.Lookup(taskID); ok {
		return taskCtx
	}
	return task.Reconstruct(taskID, deck, card, r.defaults)
}

// videoBaseName derives the republish filename for the video at the given
// ordinal. The ordinal advances with the card's current video count, which
// assumes completions are consumed in submission order.
func videoBaseName(taskCtx task.Context, videoNumber int) string {
	if taskCtx.ImageFilename == "" {
		return taskCtx.TaskID
	}
	base := strings.TrimSuffix(taskCtx.ImageFilename, filepath.Ext(taskCtx.ImageFilename))
	return fmt.Sprintf("%s_%d", base, videoNumber)
}

// failureMessage composes a human-readable error from the provider's error
// code and message, preferring the message and appending the code
// parenthetically when present.
func failureMessage(code, message string) string {
	switch {
	case message != "" && code != "":
		return fmt.Sprintf("%s (Error Code: %s)", message, code)
	case message != "":
		return message
	case code != "":
		return fmt.Sprintf("video generation failed (Error Code: %s)", code)
	default:
		return "video generation failed"
	}
}
