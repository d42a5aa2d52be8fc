package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/reeldeck/reeldeck-api/internal/config"
	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/generation"
	"github.com/reeldeck/reeldeck-api/internal/task"
)

// SubmitterConfig holds the knobs of one submission run.
type SubmitterConfig struct {
	// VideosPerCard is how many generation requests fan out per card.
	VideosPerCard int

	// Model and GenerationType are stamped on every request.
	Model          string
	GenerationType string

	// BatchSize and Window define the fixed-window throttle: after every
	// BatchSize requests the submitter pauses for Window. The throttle is
	// purely configured; provider rate-limit headers are not inspected.
	BatchSize int
	Window    time.Duration

	// RetryCooldown is the pause before the single retry of a rate-limited
	// submission.
	RetryCooldown time.Duration
}

// SubmitterConfigFromApp derives a SubmitterConfig from the application
// configuration.
func SubmitterConfigFromApp(gen config.GenerationConfig, rl config.RateLimitConfig) SubmitterConfig {
	return SubmitterConfig{
		VideosPerCard:  gen.VideosPerCard,
		Model:          gen.Model,
		GenerationType: gen.GenerationType,
		BatchSize:      rl.BatchSize,
		Window:         time.Duration(rl.WindowSeconds * float64(time.Second)),
		RetryCooldown:  time.Duration(rl.RetryCooldownSeconds * float64(time.Second)),
	}
}

// BatchSubmitter fans out generation requests for every card of a deck,
// recording returned task IDs on the card and in the task ledger.
//
// Requests are sent sequentially in deck-card order then repetition order;
// the fixed-window throttle is what keeps the run within provider limits, so
// the submitter must never be driven concurrently for the same provider key.
type BatchSubmitter struct {
	logger    *slog.Logger
	generator generation.VideoGenerator
	ledger    *task.Ledger
	cfg       SubmitterConfig
	sleep     func(time.Duration)
}

// NewBatchSubmitter creates a BatchSubmitter.
// It returns an error if any of the required dependencies are nil.
func NewBatchSubmitter(
	generator generation.VideoGenerator,
	ledger *task.Ledger,
	cfg SubmitterConfig,
	logger *slog.Logger,
) (*BatchSubmitter, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if ledger == nil {
		return nil, errors.New("ledger cannot be nil")
	}
	if cfg.VideosPerCard <= 0 {
		return nil, errors.New("videos per card must be positive")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("batch size must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BatchSubmitter{
		logger:    logger.With(slog.String("component", "batch_submitter")),
		generator: generator,
		ledger:    ledger,
		cfg:       cfg,
		sleep:     time.Sleep,
	}, nil
}

// SetSleep replaces the pause function. Tests use this to assert throttle
// behavior without real delays.
func (s *BatchSubmitter) SetSleep(sleep func(time.Duration)) {
	if sleep != nil {
		s.sleep = sleep
	}
}

// SubmitDeck submits VideosPerCard generation requests for every card of the
// deck, mutating each card's TaskIDs in place and recording submission
// context in the ledger. The caller persists the deck afterward.
//
// A rate-limited submission is retried exactly once after RetryCooldown; a
// second rejection, like any other submission failure, is logged and skipped,
// leaving the card with fewer task IDs than requested for this round.
// Returns the number of requests successfully sent.
func (s *BatchSubmitter) SubmitDeck(ctx context.Context, deck *domain.Deck) int {
	log := s.logger.With(slog.String("deck_id", deck.ID.String()))

	totalRequests := len(deck.Cards) * s.cfg.VideosPerCard
	requestsSent := 0

	log.Info("starting batch submission",
		"total_requests", totalRequests,
		"batch_size", s.cfg.BatchSize,
		"window", s.cfg.Window)

	for _, card := range deck.Cards {
		for i := 0; i < s.cfg.VideosPerCard; i++ {
			if requestsSent > 0 && requestsSent%s.cfg.BatchSize == 0 {
				log.Info("rate window reached, pausing",
					"requests_sent", requestsSent,
					"total_requests", totalRequests,
					"window", s.cfg.Window)
				s.sleep(s.cfg.Window)
			}

			taskID, err := s.submitOne(ctx, deck, card)
			if err != nil {
				log.Error("submission failed, skipping request",
					"card_id", card.ID.String(),
					"video_number", i+1,
					"error", err)
				continue
			}

			s.record(deck, card, taskID)
			requestsSent++
			log.Info("request sent",
				"requests_sent", requestsSent,
				"total_requests", totalRequests,
				"task_id", taskID)
		}
	}

	log.Info("batch submission finished", "requests_sent", requestsSent)
	return requestsSent
}

// submitOne sends a single generation request, retrying once after the
// cooldown if the provider rejects it for rate limiting.
func (s *BatchSubmitter) submitOne(ctx context.Context, deck *domain.Deck, card *domain.Card) (string, error) {
	req := generation.SubmissionRequest{
		Prompt:            card.Prompt,
		ImageURLs:         []string{card.ImageURL},
		Model:             s.cfg.Model,
		AspectRatio:       deck.AspectRatio,
		GenerationType:    s.cfg.GenerationType,
		EnableTranslation: true,
	}

	taskID, err := s.generator.Submit(ctx, req)
	if err == nil {
		return taskID, nil
	}

	if !errors.Is(err, generation.ErrRateLimited) {
		return "", err
	}

	s.logger.Warn("rate limit hit, retrying once after cooldown",
		"card_id", card.ID.String(),
		"cooldown", s.cfg.RetryCooldown)
	s.sleep(s.cfg.RetryCooldown)

	taskID, err = s.generator.Submit(ctx, req)
	if err != nil {
		return "", err
	}
	return taskID, nil
}

// record stamps the task ID on the card and stores the submission context in
// the ledger.
func (s *BatchSubmitter) record(deck *domain.Deck, card *domain.Card, taskID string) {
	card.TaskIDs = append(card.TaskIDs, taskID)
	s.ledger.Record(task.Context{
		TaskID:         taskID,
		DeckID:         deck.ID,
		CardID:         card.ID,
		Prompt:         card.Prompt,
		ImageURL:       card.ImageURL,
		ImageFilename:  card.ImageFilename,
		AspectRatio:    deck.AspectRatio,
		Model:          s.cfg.Model,
		GenerationType: s.cfg.GenerationType,
		CreatedAt:      time.Now().UTC(),
	})
}
