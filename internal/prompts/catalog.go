// Package prompts holds the immutable reflection prompt catalog and the
// rotation selector that picks the next unseen prompt within a category.
package prompts

import (
	"bufio"
	"embed"
	"fmt"
	"strings"

	"github.com/example/reflectbot/pkg/models"
)

//go:embed self_awareness.md connections.md
var catalogFS embed.FS

// catalog source files, one per category, in catalog order
var sourceFiles = map[models.Category]string{
	models.CategorySelfAwareness: "self_awareness.md",
	models.CategoryConnections:   "connections.md",
}

// LoadError means the catalog could not be built into a servable state.
// It is fatal at startup: the engine must not run on an empty catalog.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return "prompt catalog: " + e.Reason
}

// Catalog is the immutable in-memory prompt collection. It is built once at
// startup and safe for concurrent readers without locking.
type Catalog struct {
	entries map[models.Category][]string
}

// Load builds the catalog from the embedded markdown sources. It fails when
// any category ends up with zero entries.
func Load() (*Catalog, error) {
	entries := make(map[models.Category][]string, len(sourceFiles))
	for category, name := range sourceFiles {
		data, err := catalogFS.ReadFile(name)
		if err != nil {
			return nil, &LoadError{Reason: fmt.Sprintf("read %s: %v", name, err)}
		}
		entries[category] = parseMarkdown(string(data))
	}
	c := &Catalog{entries: entries}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCatalog builds a catalog from explicit entries. Used by the importer
// and by tests.
func NewCatalog(entries map[models.Category][]string) (*Catalog, error) {
	copied := make(map[models.Category][]string, len(entries))
	for category, texts := range entries {
		copied[category] = append([]string(nil), texts...)
	}
	c := &Catalog{entries: copied}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.entries) == 0 {
		return &LoadError{Reason: "no categories"}
	}
	for category, texts := range c.entries {
		if !category.Valid() {
			return &LoadError{Reason: fmt.Sprintf("unknown category %q", category)}
		}
		if len(texts) == 0 {
			return &LoadError{Reason: fmt.Sprintf("category %q has no entries", category)}
		}
	}
	return nil
}

// EntriesFor returns the category's prompts in stable source order. The
// returned slice must not be modified by callers.
func (c *Catalog) EntriesFor(category models.Category) []string {
	return c.entries[category]
}

// Merge returns a new catalog with extra entries appended after the existing
// ones, preserving source order and skipping exact duplicates.
func (c *Catalog) Merge(extra map[models.Category][]string) (*Catalog, error) {
	merged := make(map[models.Category][]string, len(c.entries))
	for category, texts := range c.entries {
		merged[category] = append([]string(nil), texts...)
	}
	for category, texts := range extra {
		seen := make(map[string]struct{}, len(merged[category]))
		for _, t := range merged[category] {
			seen[t] = struct{}{}
		}
		for _, t := range texts {
			if _, dup := seen[t]; dup {
				continue
			}
			merged[category] = append(merged[category], t)
			seen[t] = struct{}{}
		}
	}
	return NewCatalog(merged)
}

// parseMarkdown splits a markdown document into prompts. Headings and
// horizontal rules are skipped; consecutive non-blank lines form one prompt
// and a blank line ends it.
func parseMarkdown(content string) []string {
	var (
		prompts []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			prompts = append(prompts, current.String())
			current.Reset()
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"), strings.HasPrefix(line, "---"):
			continue
		default:
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(line)
		}
	}
	flush()
	return prompts
}
