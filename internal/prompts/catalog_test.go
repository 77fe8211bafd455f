package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/reflectbot/pkg/models"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, category := range models.Categories() {
		entries := c.EntriesFor(category)
		require.NotEmpty(t, entries, "category %s", category)
		// stable source order on every call
		require.Equal(t, entries, c.EntriesFor(category))
	}
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries map[models.Category][]string
	}{
		{name: "no categories", entries: map[models.Category][]string{}},
		{
			name: "empty category",
			entries: map[models.Category][]string{
				models.CategorySelfAwareness: {"p1"},
				models.CategoryConnections:   {},
			},
		},
		{
			name: "unknown category",
			entries: map[models.Category][]string{
				models.Category("gratitude"): {"p1"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.entries)
			require.Error(t, err)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
		})
	}
}

func TestParseMarkdown(t *testing.T) {
	content := "# Heading\n\nSome text\nover two lines.\n\n---\n\nSecond prompt.\n\n\nThird prompt.\n"
	got := parseMarkdown(content)
	require.Equal(t, []string{
		"Some text over two lines.",
		"Second prompt.",
		"Third prompt.",
	}, got)
}

func TestParseMarkdownEmpty(t *testing.T) {
	require.Empty(t, parseMarkdown("# Only a heading\n\n---\n"))
}

func TestMergeAppendsAndDedupes(t *testing.T) {
	c := mustCatalog(t, map[models.Category][]string{
		models.CategorySelfAwareness: {"p1", "p2"},
		models.CategoryConnections:   {"q1"},
	})

	merged, err := c.Merge(map[models.Category][]string{
		models.CategorySelfAwareness: {"p2", "p3"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2", "p3"}, merged.EntriesFor(models.CategorySelfAwareness))
	require.Equal(t, []string{"q1"}, merged.EntriesFor(models.CategoryConnections))

	// the source catalog is unchanged
	require.Equal(t, []string{"p1", "p2"}, c.EntriesFor(models.CategorySelfAwareness))
}

func mustCatalog(t *testing.T, entries map[models.Category][]string) *Catalog {
	t.Helper()
	c, err := NewCatalog(entries)
	require.NoError(t, err)
	return c
}
