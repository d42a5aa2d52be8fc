package task

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reeldeck/reeldeck-api/internal/domain"
)

// Context is the submission context recorded for one generation task.
// It is a weak back-reference only: the ledger never owns the card or deck.
type Context struct {
	TaskID         string
	DeckID         uuid.UUID
	CardID         uuid.UUID
	Prompt         string
	ImageURL       string
	ImageFilename  string
	AspectRatio    string
	Model          string
	GenerationType string
	CreatedAt      time.Time
}

// Defaults carries the configured generation defaults used when a ledger
// entry has to be reconstructed and the original request values are gone.
type Defaults struct {
	Model          string
	AspectRatio    string
	GenerationType string
}

// Ledger maps task identifiers to their submission context. Entries are
// created at submission time and removed the first time a task resolves to
// completed or failed. The ledger is safe for concurrent use but lives only
// as long as the process; Reconstruct covers the miss after a restart.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Context
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]Context)}
}

// Record stores the submission context for a task, overwriting any previous
// entry for the same task ID.
func (l *Ledger) Record(ctx Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[ctx.TaskID] = ctx
}

// Lookup returns the context for a task ID and whether it was present.
func (l *Ledger) Lookup(taskID string) (Context, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ctx, ok := l.entries[taskID]
	return ctx, ok
}

// Forget removes the entry for a task ID. Removing an absent entry is a no-op.
func (l *Ledger) Forget(taskID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, taskID)
}

// Len returns the number of outstanding entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reconstruct builds a best-effort Context for a task whose ledger entry is
// gone, typically after a process restart. Prompt, image URL, image filename
// and aspect ratio are recovered from the owning card and deck; model and
// generation type fall back to the configured defaults.
func Reconstruct(taskID string, deck *domain.Deck, card *domain.Card, defaults Defaults) Context {
	aspectRatio := defaults.AspectRatio
	if deck != nil && deck.AspectRatio != "" {
		aspectRatio = deck.AspectRatio
	}

	ctx := Context{
		TaskID:         taskID,
		AspectRatio:    aspectRatio,
		Model:          defaults.Model,
		GenerationType: defaults.GenerationType,
		CreatedAt:      time.Now().UTC(),
	}
	if deck != nil {
		ctx.DeckID = deck.ID
	}
	if card != nil {
		ctx.CardID = card.ID
		ctx.Prompt = card.Prompt
		ctx.ImageURL = card.ImageURL
		ctx.ImageFilename = card.ImageFilename
	}
	return ctx
}
