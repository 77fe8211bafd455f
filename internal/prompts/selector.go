package prompts

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/reflectbot/pkg/models"
)

// Selector picks the next prompt for a category, never repeating a text
// until the whole category has been shown. It is stateless with respect to
// users: the caller supplies the already-shown set and records the result.
type Selector struct {
	catalog *Catalog

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector creates a selector over the catalog.
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{
		catalog: catalog,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a prompt text not in alreadyShown. When every entry of the
// category has been shown the cycle resets and the pick is made from the
// full list again. isNewCycle reports that this pick starts a fresh cycle,
// which is also the case on the very first pick of a category; a
// single-entry category therefore reports a new cycle on every call. The
// alreadyShown set is never mutated.
func (s *Selector) Next(category models.Category, alreadyShown map[string]struct{}) (text string, isNewCycle bool, err error) {
	entries := s.catalog.EntriesFor(category)
	if len(entries) == 0 {
		return "", false, fmt.Errorf("selector: no entries for category %q", category)
	}

	available := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, shown := alreadyShown[e]; !shown {
			available = append(available, e)
		}
	}
	if len(available) == 0 {
		available = entries
	}
	isNewCycle = len(available) == len(entries)

	s.mu.Lock()
	idx := s.rnd.Intn(len(available))
	s.mu.Unlock()
	return available[idx], isNewCycle, nil
}
