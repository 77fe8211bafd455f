package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/reflectbot/pkg/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, Connect("sqlite3", ":memory:"))
	t.Cleanup(func() { _ = Close() })
}

func TestProgressGetAbsent(t *testing.T) {
	setupDB(t)
	repo := NewUserProgressRepository()

	progress, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, progress)
}

func TestProgressRecordShownCreatesAndIncrements(t *testing.T) {
	setupDB(t)
	repo := NewUserProgressRepository()
	ctx := context.Background()

	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategorySelfAwareness, "p1", true))

	progress, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	require.Equal(t, 1, progress.TotalPromptsShown)
	require.Equal(t, models.CategorySelfAwareness, progress.LastPromptCategory)
	require.Equal(t, "p1", progress.LastPromptText)
	require.NotNil(t, progress.LastShownAt)
	require.Equal(t, []string{"p1"}, progress.ShownInCycle[models.CategorySelfAwareness])

	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategoryConnections, "c1", true))
	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategorySelfAwareness, "p2", false))

	progress, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 3, progress.TotalPromptsShown)
	require.Equal(t, []string{"p1", "p2"}, progress.ShownInCycle[models.CategorySelfAwareness])
	require.Equal(t, []string{"c1"}, progress.ShownInCycle[models.CategoryConnections])
}

func TestProgressNewCycleClearsCategory(t *testing.T) {
	setupDB(t)
	repo := NewUserProgressRepository()
	ctx := context.Background()

	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategorySelfAwareness, "p1", true))
	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategorySelfAwareness, "p2", false))
	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategoryConnections, "c1", true))

	// the self-awareness cycle restarts; connections is untouched
	require.NoError(t, repo.RecordShown(ctx, "u1", models.CategorySelfAwareness, "p2", true))

	progress, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 4, progress.TotalPromptsShown)
	require.Equal(t, []string{"p2"}, progress.ShownInCycle[models.CategorySelfAwareness])
	require.Equal(t, []string{"c1"}, progress.ShownInCycle[models.CategoryConnections])
}

func TestScheduleGetAbsent(t *testing.T) {
	setupDB(t)
	repo := NewScheduleRepository()

	pref, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, pref)
}

func TestScheduleUpsertAndGet(t *testing.T) {
	setupDB(t)
	repo := NewScheduleRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.DefaultSchedule("u1")))

	pref, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, pref)
	require.Equal(t, 1, pref.DayOfWeek)
	require.Equal(t, 9, pref.Hour)
	require.Equal(t, 0, pref.Minute)
	require.True(t, pref.Enabled)

	updated := *pref
	updated.DayOfWeek = 3
	updated.Hour = 20
	updated.Minute = 30
	require.NoError(t, repo.Upsert(ctx, updated))

	pref, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 3, pref.DayOfWeek)
	require.Equal(t, 20, pref.Hour)
	require.Equal(t, 30, pref.Minute)
}

func TestScheduleSetEnabled(t *testing.T) {
	setupDB(t)
	repo := NewScheduleRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.DefaultSchedule("u1")))
	require.NoError(t, repo.SetEnabled(ctx, "u1", false))

	pref, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, pref.Enabled)
}

func TestScheduleListAll(t *testing.T) {
	setupDB(t)
	repo := NewScheduleRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.DefaultSchedule("u1")))
	require.NoError(t, repo.Upsert(ctx, models.DefaultSchedule("u2")))

	prefs, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, prefs, 2)
}

func TestEntriesCreateAndRecent(t *testing.T) {
	setupDB(t)
	repo := NewEntryRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, models.JournalEntry{
		UserID:         "u1",
		PromptCategory: models.CategorySelfAwareness,
		PromptText:     "p1",
		Response:       "my first answer",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	time.Sleep(10 * time.Millisecond) // distinct created_at for ordering
	second, err := repo.Create(ctx, models.JournalEntry{
		UserID:         "u1",
		PromptCategory: models.CategoryConnections,
		PromptText:     "c1",
		Response:       "my second answer",
	})
	require.NoError(t, err)

	entries, err := repo.RecentForUser(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, second.ID, entries[0].ID, "newest first")
	require.Equal(t, first.ID, entries[1].ID)

	entries, err = repo.RecentForUser(ctx, "someone-else", 5)
	require.NoError(t, err)
	require.Empty(t, entries)
}
