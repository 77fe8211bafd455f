package models

import "time"

// UserProgress tracks a user's rotation state: how many prompts they have
// received, which one they saw last, and which texts are already used up in
// the current cycle of each category.
type UserProgress struct {
	UserID             string                `json:"user_id" db:"user_id"`
	TotalPromptsShown  int                   `json:"total_prompts_shown" db:"total_prompts_shown"`
	LastPromptCategory Category              `json:"last_prompt_category" db:"last_prompt_category"`
	LastPromptText     string                `json:"last_prompt_text" db:"last_prompt_text"`
	LastShownAt        *time.Time            `json:"last_shown_at" db:"last_shown_at"`
	ShownInCycle       map[Category][]string `json:"shown_in_cycle" db:"-"`
}

// ShownSet returns the texts already shown in the current cycle for a
// category as a set. The set is a copy; mutating it does not change the
// progress record.
func (p *UserProgress) ShownSet(c Category) map[string]struct{} {
	set := make(map[string]struct{}, len(p.ShownInCycle[c]))
	for _, text := range p.ShownInCycle[c] {
		set[text] = struct{}{}
	}
	return set
}
