package models

// Category is a topical bucket of reflection prompts
type Category string

const (
	// CategorySelfAwareness covers prompts about the user's inner life
	CategorySelfAwareness Category = "self_awareness"
	// CategoryConnections covers prompts about relationships with others
	CategoryConnections Category = "connections"
)

// Categories lists every known category in catalog order
func Categories() []Category {
	return []Category{CategorySelfAwareness, CategoryConnections}
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return c == CategorySelfAwareness || c == CategoryConnections
}

// Prompt is one selected reflection prompt handed to a user
type Prompt struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Count    int      `json:"count"` // total prompts shown to the user including this one
}
