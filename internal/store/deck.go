package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/domain"
)

// DeckStore defines the full-collection persistence boundary for decks.
//
// The backing resource has no transactional guarantees of its own, so every
// mutation must go through Update, which serializes the load-mutate-save
// cycle and bumps the deck's version counter. LoadAll and SaveAll exist for
// whole-collection operations (listing, bulk scans); SaveAll rejects decks
// whose version is stale with ErrVersionConflict instead of silently losing
// a concurrent writer's update.
type DeckStore interface {
	// LoadAll returns every persisted deck.
	LoadAll(ctx context.Context) ([]*domain.Deck, error)

	// SaveAll writes the entire deck collection, checking versions.
	SaveAll(ctx context.Context, decks []*domain.Deck) error

	// GetByID returns the deck with the given ID or ErrDeckNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// Create appends a new deck to the collection.
	Create(ctx context.Context, deck *domain.Deck) error

	// Delete removes the deck with the given ID or returns ErrDeckNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// Update loads the deck with the given ID, applies mutate to it, and
	// persists the result, all under the store's write lock. Returning an
	// error from mutate aborts the update without persisting.
	Update(ctx context.Context, id uuid.UUID, mutate func(deck *domain.Deck) error) (*domain.Deck, error)
}
