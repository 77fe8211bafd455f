// Package rotation answers "what is this user's next prompt" and records
// that it was shown, in one atomic step from the caller's point of view.
package rotation

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/reflectbot/internal/prompts"
	"github.com/example/reflectbot/pkg/models"
)

// ProgressStore is the persisted per-user rotation state the engine reads
// and writes. Implemented by database.UserProgressRepository.
type ProgressStore interface {
	Get(ctx context.Context, userID string) (*models.UserProgress, error)
	RecordShown(ctx context.Context, userID string, category models.Category, text string, isNewCycle bool) error
}

// Policy decides which category a prompt is drawn from.
type Policy struct {
	fixed *models.Category
}

// Alternate derives the category from the user's prompt count: the first
// prompt is always self-awareness, then categories strictly alternate.
var Alternate = Policy{}

// Fixed always draws from the given category.
func Fixed(c models.Category) Policy {
	return Policy{fixed: &c}
}

func (p Policy) category(totalShown int) models.Category {
	if p.fixed != nil {
		return *p.fixed
	}
	// counting from 1: odd prompts are self-awareness, even are connections
	if (totalShown+1)%2 == 1 {
		return models.CategorySelfAwareness
	}
	return models.CategoryConnections
}

// Engine orchestrates the selector and the progress store.
type Engine struct {
	selector *prompts.Selector
	progress ProgressStore
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a rotation engine.
func New(selector *prompts.Selector, progress ProgressStore, log *zap.Logger) *Engine {
	return &Engine{
		selector: selector,
		progress: progress,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing rotation requests for one user.
// Two concurrent calls for the same user id must not interleave their
// read-modify-write of the progress record.
func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

// NextPromptFor selects the user's next prompt and records it as shown
// before returning. If the store write fails no prompt is returned: a
// prompt the engine could not record is never handed out, so rotation
// state cannot silently drift.
func (e *Engine) NextPromptFor(ctx context.Context, userID string, policy Policy) (models.Prompt, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	progress, err := e.progress.Get(ctx, userID)
	if err != nil {
		return models.Prompt{}, err
	}

	totalShown := 0
	if progress != nil {
		totalShown = progress.TotalPromptsShown
	}
	category := policy.category(totalShown)
	var shown map[string]struct{}
	if progress != nil {
		shown = progress.ShownSet(category)
	}

	text, isNewCycle, err := e.selector.Next(category, shown)
	if err != nil {
		return models.Prompt{}, err
	}

	if err := e.progress.RecordShown(ctx, userID, category, text, isNewCycle); err != nil {
		return models.Prompt{}, err
	}

	e.log.Debug("prompt selected",
		zap.String("user_id", userID),
		zap.String("category", string(category)),
		zap.Bool("new_cycle", isNewCycle),
		zap.Int("count", totalShown+1),
	)
	return models.Prompt{Category: category, Text: text, Count: totalShown + 1}, nil
}
