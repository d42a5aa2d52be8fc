package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck name is empty.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")

	// ErrDeckNameTooLong is returned when a deck name exceeds MaxDeckNameLength.
	ErrDeckNameTooLong = errors.New("deck name exceeds maximum length")

	// ErrDeckHasNoCards is returned when generation is requested for a deck
	// without any cards.
	ErrDeckHasNoCards = errors.New("deck has no cards")
)

// MaxDeckNameLength is the maximum number of characters allowed in a deck name.
const MaxDeckNameLength = 200

// DeckStatus represents the overall generation state of a deck.
type DeckStatus string

// Possible deck status values. A deck starts in draft and only moves to
// generating through submission; completed and failed are derived from card
// statuses and do not forbid resubmission.
const (
	DeckStatusDraft      DeckStatus = "draft"
	DeckStatusGenerating DeckStatus = "generating"
	DeckStatusCompleted  DeckStatus = "completed"
	DeckStatusFailed     DeckStatus = "failed"
)

// Deck represents a named collection of cards making up one multi-scene
// video project. A deck exclusively owns its cards.
//
// Version is an optimistic-concurrency counter maintained by the store; it is
// absent on decks persisted by older versions of the system and starts at
// zero in that case.
type Deck struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	AspectRatio string     `json:"aspect_ratio"`
	Status      DeckStatus `json:"status"`
	Cards       []*Card    `json:"cards"`
	Version     int64      `json:"version,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewDeck creates a new Deck with the given name and aspect ratio.
// It generates a new UUID for the deck ID and sets the status to draft.
// Returns an error if validation fails.
func NewDeck(name, aspectRatio string) (*Deck, error) {
	deck := &Deck{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		AspectRatio: aspectRatio,
		Status:      DeckStatusDraft,
		Cards:       []*Card{},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if strings.TrimSpace(d.Name) == "" {
		return ErrDeckNameEmpty
	}

	if len(d.Name) > MaxDeckNameLength {
		return ErrDeckNameTooLong
	}

	if !IsValidAspectRatio(d.AspectRatio) {
		return ErrInvalidAspectRatio
	}

	return nil
}

// CardByID returns the card with the given ID, or nil if the deck does not
// contain it.
func (d *Deck) CardByID(cardID uuid.UUID) *Card {
	for _, c := range d.Cards {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// RemoveCard deletes the card with the given ID from the deck.
// It reports whether a card was removed.
func (d *Deck) RemoveCard(cardID uuid.UUID) bool {
	for i, c := range d.Cards {
		if c.ID == cardID {
			d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
			d.UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}

// VideoCount returns the total number of videos recorded across all cards.
func (d *Deck) VideoCount() int {
	total := 0
	for _, c := range d.Cards {
		total += len(c.VideoURLs)
	}
	return total
}

// Touch updates the deck's UpdatedAt timestamp.
func (d *Deck) Touch() {
	d.UpdatedAt = time.Now().UTC()
}
