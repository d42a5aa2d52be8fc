package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/store"
)

// DeckStore persists the full deck collection in one JSON file.
//
// The file format is a plain JSON array of decks with RFC 3339 timestamps.
// Fields absent in older files unmarshal to their zero values, so readers
// never fail on missing fields.
type DeckStore struct {
	logger *slog.Logger
	path   string
	mu     sync.Mutex
	flk    *flock.Flock
}

// New creates a DeckStore backed by the JSON file at path, creating the
// parent directory if needed.
func New(logger *slog.Logger, path string) (*DeckStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if path == "" {
		return nil, errors.New("decks file path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	return &DeckStore{
		logger: logger.With(slog.String("component", "deck_store")),
		path:   path,
		flk:    flock.New(path + ".lock"),
	}, nil
}

// LoadAll returns every persisted deck. A missing file is an empty collection.
func (s *DeckStore) LoadAll(ctx context.Context) ([]*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	return s.read()
}

// SaveAll writes the entire deck collection. Before writing it compares each
// deck's version against the persisted one and fails with ErrVersionConflict
// when the persisted deck is newer, so a stale snapshot cannot silently
// clobber another writer's update.
func (s *DeckStore) SaveAll(ctx context.Context, decks []*domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	onDisk := make(map[uuid.UUID]int64, len(current))
	for _, d := range current {
		onDisk[d.ID] = d.Version
	}

	for _, d := range decks {
		if persisted, ok := onDisk[d.ID]; ok && persisted > d.Version {
			return fmt.Errorf("%w: deck %s is at version %d, attempted to save version %d",
				store.ErrVersionConflict, d.ID, persisted, d.Version)
		}
	}

	return s.write(decks)
}

// GetByID returns the deck with the given ID or store.ErrDeckNotFound.
func (s *DeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	decks, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range decks {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, store.ErrDeckNotFound
}

// Create appends a new deck to the collection.
func (s *DeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	decks, err := s.read()
	if err != nil {
		return err
	}

	decks = append(decks, deck)
	return s.write(decks)
}

// Delete removes the deck with the given ID.
func (s *DeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	decks, err := s.read()
	if err != nil {
		return err
	}

	kept := decks[:0]
	for _, d := range decks {
		if d.ID != id {
			kept = append(kept, d)
		}
	}

	if len(kept) == len(decks) {
		return store.ErrDeckNotFound
	}

	return s.write(kept)
}

// Update applies mutate to the deck with the given ID under the store's
// locks, bumps the deck's version counter, and persists the whole
// collection. An error from mutate aborts the update without writing.
func (s *DeckStore) Update(ctx context.Context, id uuid.UUID, mutate func(deck *domain.Deck) error) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	decks, err := s.read()
	if err != nil {
		return nil, err
	}

	var target *domain.Deck
	for _, d := range decks {
		if d.ID == id {
			target = d
			break
		}
	}
	if target == nil {
		return nil, store.ErrDeckNotFound
	}

	if err := mutate(target); err != nil {
		return nil, err
	}

	target.Version++
	target.Touch()

	if err := s.write(decks); err != nil {
		return nil, err
	}

	return target, nil
}

// lockRetryDelay is the poll interval while waiting for the file lock held
// by another process.
const lockRetryDelay = 50 * time.Millisecond

// lock takes the OS-level file lock guarding cross-process access.
func (s *DeckStore) lock(ctx context.Context) error {
	if _, err := s.flk.TryLockContext(ctx, lockRetryDelay); err != nil {
		return store.NewStoreError("deck", "lock", "failed to acquire collection lock", err)
	}
	return nil
}

func (s *DeckStore) unlock() {
	if err := s.flk.Unlock(); err != nil {
		s.logger.Warn("failed to release collection lock", "error", err)
	}
}

// read loads and decodes the collection file. The caller must hold the locks.
func (s *DeckStore) read() ([]*domain.Deck, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Deck{}, nil
		}
		return nil, store.NewStoreError("deck", "load", "failed to read decks file", err)
	}

	if len(data) == 0 {
		return []*domain.Deck{}, nil
	}

	var decks []*domain.Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, store.NewStoreError("deck", "load", "failed to decode decks file", err)
	}

	return decks, nil
}

// write encodes and atomically replaces the collection file via a temp file
// and rename. The caller must hold the locks.
func (s *DeckStore) write(decks []*domain.Deck) error {
	data, err := json.MarshalIndent(decks, "", "  ")
	if err != nil {
		return saveError("failed to encode decks", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".decks-*.json")
	if err != nil {
		return saveError("failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return saveError("failed to write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return saveError("failed to close temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return saveError("failed to replace decks file", err)
	}

	return nil
}

// saveError tags collection write failures so callers can classify them with
// errors.Is(err, store.ErrSaveFailed).
func saveError(message string, err error) error {
	return store.NewStoreError("deck", "save", message, errors.Join(store.ErrSaveFailed, err))
}
