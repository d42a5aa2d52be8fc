package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/platform/logger"
	"github.com/reeldeck/reeldeck-api/internal/store"
)

// DeckUpdate describes a partial update of deck properties.
// Nil fields are left unchanged.
type DeckUpdate struct {
	Name        *string
	AspectRatio *string
}

// CardUpdate describes a partial update of card properties.
// Nil fields are left unchanged.
type CardUpdate struct {
	ImageURL      *string
	Prompt        *string
	ImageFilename *string
}

// GenerationResult reports the outcome of a generation kickoff.
type GenerationResult struct {
	// TaskCount is the number of generation requests successfully sent.
	TaskCount int

	// Deck is the deck state after submission.
	Deck *domain.Deck
}

// DeckService provides deck and card management plus the generation kickoff
// that hands a deck to the batch submitter.
type DeckService struct {
	logger          *slog.Logger
	decks           store.DeckStore
	submitter       *BatchSubmitter
	maxCardsPerDeck int
}

// NewDeckService creates a DeckService.
// It returns an error if any of the required dependencies are nil.
func NewDeckService(
	decks store.DeckStore,
	submitter *BatchSubmitter,
	maxCardsPerDeck int,
	log *slog.Logger,
) (*DeckService, error) {
	if decks == nil {
		return nil, errors.New("deck store cannot be nil")
	}
	if submitter == nil {
		return nil, errors.New("submitter cannot be nil")
	}
	if maxCardsPerDeck <= 0 {
		return nil, errors.New("max cards per deck must be positive")
	}
	if log == nil {
		log = slog.Default()
	}

	return &DeckService{
		logger:          log.With(slog.String("component", "deck_service")),
		decks:           decks,
		submitter:       submitter,
		maxCardsPerDeck: maxCardsPerDeck,
	}, nil
}

// CreateDeck creates and persists a new deck in draft status.
func (s *DeckService) CreateDeck(ctx context.Context, name, aspectRatio string) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(name, aspectRatio)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.decks.Create(ctx, deck); err != nil {
		return nil, NewDeckServiceError("create", "failed to persist deck", err)
	}

	log.Info("deck created", "deck_id", deck.ID.String(), "name", deck.Name)
	return deck, nil
}

// ListDecks returns every persisted deck.
func (s *DeckService) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	decks, err := s.decks.LoadAll(ctx)
	if err != nil {
		return nil, NewDeckServiceError("list", "failed to load decks", err)
	}
	return decks, nil
}

// GetDeck returns the deck with the given ID.
func (s *DeckService) GetDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error) {
	return s.decks.GetByID(ctx, deckID)
}

// UpdateDeck applies a partial update to deck properties.
func (s *DeckService) UpdateDeck(ctx context.Context, deckID uuid.UUID, update DeckUpdate) (*domain.Deck, error) {
	return s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		if update.Name != nil {
			deck.Name = *update.Name
		}
		if update.AspectRatio != nil {
			deck.AspectRatio = *update.AspectRatio
		}
		if err := deck.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return nil
	})
}

// DeleteDeck removes the deck with the given ID.
func (s *DeckService) DeleteDeck(ctx context.Context, deckID uuid.UUID) error {
	return s.decks.Delete(ctx, deckID)
}

// AddCard validates and appends a new card to the deck, enforcing the
// configured card limit.
func (s *DeckService) AddCard(ctx context.Context, deckID uuid.UUID, imageURL, prompt, imageFilename string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewCard(imageURL, prompt, imageFilename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	_, err = s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		if len(deck.Cards) >= s.maxCardsPerDeck {
			return fmt.Errorf("%w: maximum %d cards allowed, current %d",
				ErrDeckFull, s.maxCardsPerDeck, len(deck.Cards))
		}
		deck.Cards = append(deck.Cards, card)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("card added", "deck_id", deckID.String(), "card_id", card.ID.String())
	return card, nil
}

// UpdateCard applies a partial update to a card of the deck.
func (s *DeckService) UpdateCard(ctx context.Context, deckID, cardID uuid.UUID, update CardUpdate) (*domain.Card, error) {
	var updated *domain.Card

	_, err := s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		card := deck.CardByID(cardID)
		if card == nil {
			return store.ErrCardNotFound
		}
		if update.ImageURL != nil {
			card.ImageURL = *update.ImageURL
		}
		if update.Prompt != nil {
			card.Prompt = *update.Prompt
		}
		if update.ImageFilename != nil {
			card.ImageFilename = *update.ImageFilename
		}
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCard removes a card from the deck.
func (s *DeckService) DeleteCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	_, err := s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		if !deck.RemoveCard(cardID) {
			return store.ErrCardNotFound
		}
		return nil
	})
	return err
}

// GenerateDeckVideos kicks off a generation round for the deck.
//
// A deck that is already generating and has recorded videos cannot be
// resubmitted; that would clobber in-flight results. Resubmission after a
// fully failed round (generating with zero videos), or of a settled deck, is
// permitted and resets every card's generation state first. The whole
// reset-submit-record cycle runs inside the store's Update, so the recorded
// task IDs and the status change persist atomically.
func (s *DeckService) GenerateDeckVideos(ctx context.Context, deckID uuid.UUID) (*GenerationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := &GenerationResult{}

	deck, err := s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		if len(deck.Cards) == 0 {
			return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrDeckHasNoCards)
		}

		if deck.Status == domain.DeckStatusGenerating && deck.VideoCount() > 0 {
			return ErrGenerationInProgress
		}

		for _, card := range deck.Cards {
			card.ResetGeneration()
		}
		deck.Status = domain.DeckStatusGenerating

		result.TaskCount = s.submitter.SubmitDeck(ctx, deck)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Deck = deck
	log.Info("generation round started",
		"deck_id", deckID.String(),
		"task_count", result.TaskCount)
	return result, nil
}

// ApproveVideo marks a video URL of a card as approved. Approving an
// already-approved URL succeeds without change.
func (s *DeckService) ApproveVideo(ctx context.Context, deckID, cardID uuid.UUID, videoURL string) error {
	_, err := s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		card := deck.CardByID(cardID)
		if card == nil {
			return store.ErrCardNotFound
		}
		return card.ApproveVideo(videoURL)
	})
	return err
}

// UnapproveVideo removes a video URL of a card from the approved list.
// Unapproving a URL that was never approved succeeds without change.
func (s *DeckService) UnapproveVideo(ctx context.Context, deckID, cardID uuid.UUID, videoURL string) error {
	_, err := s.decks.Update(ctx, deckID, func(deck *domain.Deck) error {
		card := deck.CardByID(cardID)
		if card == nil {
			return store.ErrCardNotFound
		}
		return card.UnapproveVideo(videoURL)
	})
	return err
}
