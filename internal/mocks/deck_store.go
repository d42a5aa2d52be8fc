package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/store"
)

// DeckStore is an in-memory implementation of store.DeckStore for tests.
// It mirrors the serialization behavior of the file-backed store: all
// operations run under one mutex and Update bumps the deck version.
type DeckStore struct {
	mu    sync.Mutex
	decks []*domain.Deck

	// FailLoad, FailSave force the corresponding operations to error.
	FailLoad error
	FailSave error
}

// NewDeckStore creates an empty in-memory deck store.
func NewDeckStore(decks ...*domain.Deck) *DeckStore {
	return &DeckStore{decks: decks}
}

// LoadAll implements store.DeckStore.
func (s *DeckStore) LoadAll(_ context.Context) ([]*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad != nil {
		return nil, s.FailLoad
	}
	out := make([]*domain.Deck, len(s.decks))
	copy(out, s.decks)
	return out, nil
}

// SaveAll implements store.DeckStore.
func (s *DeckStore) SaveAll(_ context.Context, decks []*domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.decks = make([]*domain.Deck, len(decks))
	copy(s.decks, decks)
	return nil
}

// GetByID implements store.DeckStore.
func (s *DeckStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad != nil {
		return nil, s.FailLoad
	}
	for _, d := range s.decks {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, store.ErrDeckNotFound
}

// Create implements store.DeckStore.
func (s *DeckStore) Create(_ context.Context, deck *domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.decks = append(s.decks, deck)
	return nil
}

// Delete implements store.DeckStore.
func (s *DeckStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.decks {
		if d.ID == id {
			s.decks = append(s.decks[:i], s.decks[i+1:]...)
			return nil
		}
	}
	return store.ErrDeckNotFound
}

// Update implements store.DeckStore.
func (s *DeckStore) Update(_ context.Context, id uuid.UUID, mutate func(deck *domain.Deck) error) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.decks {
		if d.ID == id {
			if err := mutate(d); err != nil {
				return nil, err
			}
			if s.FailSave != nil {
				return nil, s.FailSave
			}
			d.Version++
			d.Touch()
			return d, nil
		}
	}
	return nil, store.ErrDeckNotFound
}
