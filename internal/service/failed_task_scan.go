package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/generation"
	"github.com/reeldeck/reeldeck-api/internal/platform/logger"
	"github.com/reeldeck/reeldeck-api/internal/store"
)

// ScanResult summarizes one retroactive failed-task scan.
type ScanResult struct {
	// DecksChecked is the number of decks examined.
	DecksChecked int

	// TotalUpdated is the number of newly tracked failed tasks.
	TotalUpdated int
}

// FailedTaskScanner walks every deck and retroactively records failures for
// task IDs that were never tracked, typically because the process restarted
// between submission and reconciliation.
//
// Concurrent scans are pointless and would double-poll the provider, so a
// try-lock guards re-entry; the lock is released on every exit path, so an
// aborted scan can never leave the scanner permanently blocked.
type FailedTaskScanner struct {
	logger    *slog.Logger
	decks     store.DeckStore
	generator generation.VideoGenerator
	mu        sync.Mutex
}

// NewFailedTaskScanner creates a FailedTaskScanner.
// It returns an error if any of the required dependencies are nil.
func NewFailedTaskScanner(
	decks store.DeckStore,
	generator generation.VideoGenerator,
	log *slog.Logger,
) (*FailedTaskScanner, error) {
	if decks == nil {
		return nil, errors.New("deck store cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &FailedTaskScanner{
		logger:    log.With(slog.String("component", "failed_task_scanner")),
		decks:     decks,
		generator: generator,
	}, nil
}

// ScanAll checks every deck for untracked failed tasks and records them.
// If another scan is already running it returns ErrScanInProgress immediately
// instead of blocking.
func (s *FailedTaskScanner) ScanAll(ctx context.Context) (*ScanResult, error) {
	if !s.mu.TryLock() {
		s.logger.Debug("failed-task scan already in progress, skipping duplicate request")
		return nil, ErrScanInProgress
	}
	defer s.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	decks, err := s.decks.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{DecksChecked: len(decks)}

	if len(decks) > 0 {
		log.Debug("starting retroactive failed-task scan", "deck_count", len(decks))
	}

	for _, deck := range decks {
		updated := 0
		for _, card := range deck.Cards {
			updated += s.scanCard(ctx, log, card)
		}
		if updated > 0 {
			deck.Touch()
			result.TotalUpdated += updated
		}
	}

	if result.TotalUpdated > 0 {
		if err := s.decks.SaveAll(ctx, decks); err != nil {
			return nil, err
		}
		log.Info("retroactive failed-task scan recorded failures",
			"total_updated", result.TotalUpdated,
			"decks_checked", result.DecksChecked)
	}

	return result, nil
}

// scanCard polls the untracked task IDs of one under-provisioned card and
// records any that resolved to a failure. It returns the number of newly
// tracked failures.
func (s *FailedTaskScanner) scanCard(ctx context.Context, log *slog.Logger, card *domain.Card) int {
	expected := card.ExpectedVideos()
	actual := len(card.VideoURLs)
	if expected == 0 || actual >= expected {
		return 0
	}

	updated := 0
	for _, taskID := range card.TaskIDs {
		if card.HasFailedTask(taskID) {
			continue
		}

		status, err := s.generator.QueryStatus(ctx, taskID)
		if err != nil {
			if !errors.Is(err, generation.ErrTaskNotReady) {
				log.Warn("could not check task during scan",
					"task_id", taskID,
					"error", err)
			}
			continue
		}

		if status.State != generation.TaskStateFailed {
			continue
		}

		videoNumber := actual + len(card.FailedTaskDetails) + 1
		errMsg := status.ErrorMessage
		if errMsg == "" {
			errMsg = "Unknown error"
		}

		if card.RecordFailedTask(taskID, errMsg, videoNumber) {
			updated++
			log.Info("tracked failed task retroactively",
				"task_id", taskID,
				"card_id", card.ID.String(),
				"error", errMsg)
		}
	}
	return updated
}
