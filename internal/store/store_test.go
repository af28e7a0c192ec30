package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wellspring/internal/model"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "wellspring.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func item(id, content string, c model.Category, created time.Time) model.AcceptedItem {
	return model.AcceptedItem{ID: id, Content: content, Category: c, CreatedAt: created}
}

func TestStore_InsertAndBaseline(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.FetchBaseline(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			verse := item("1", "The Lord is my shepherd", model.CategoryBibleVerse, base)
			verse.Citation = "Psalm 23:1"
			verse.Theme = model.ThemePeace
			quote := item("2", "Stay hungry", model.CategoryQuote, base.Add(time.Second))
			quote.Author = "Steve Jobs"

			require.NoError(t, s.InsertAccepted(ctx, []model.AcceptedItem{verse, quote}))
			require.NoError(t, s.InsertAccepted(ctx, nil))

			got, err = s.FetchBaseline(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []model.BaselineItem{
				{Content: "The Lord is my shepherd", Category: model.CategoryBibleVerse, Citation: "Psalm 23:1"},
				{Content: "Stay hungry", Category: model.CategoryQuote, Author: "Steve Jobs"},
			}, got)
		})
	}
}

func TestStore_InsertIsAtomic(t *testing.T) {
	now := time.Now().UTC()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.InsertAccepted(ctx, []model.AcceptedItem{item("a", "first", model.CategoryAffirmation, now)}))

			// second item reuses an existing id, so nothing from this batch lands
			err := s.InsertAccepted(ctx, []model.AcceptedItem{
				item("b", "second", model.CategoryAffirmation, now),
				item("a", "third", model.CategoryAffirmation, now),
			})
			assert.ErrorIs(t, err, model.ErrPersistence)

			got, err := s.FetchBaseline(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "first", got[0].Content)
		})
	}
}

func TestStore_ListAndArchive(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.InsertAccepted(ctx, []model.AcceptedItem{
				item("old", "older affirmation", model.CategoryAffirmation, base),
				item("new", "newer affirmation", model.CategoryAffirmation, base.Add(time.Hour)),
				item("q", "a quote", model.CategoryQuote, base.Add(2*time.Hour)),
			}))

			all, err := s.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "q", all[0].ID, "newest first")
			assert.True(t, all[2].CreatedAt.Equal(base))

			affirmations, err := s.List(ctx, Filter{Category: model.CategoryAffirmation, Limit: 1})
			require.NoError(t, err)
			require.Len(t, affirmations, 1)
			assert.Equal(t, "new", affirmations[0].ID)

			require.NoError(t, s.Archive(ctx, "new"))
			visible, err := s.List(ctx, Filter{Category: model.CategoryAffirmation})
			require.NoError(t, err)
			require.Len(t, visible, 1)
			assert.Equal(t, "old", visible[0].ID)

			withArchived, err := s.List(ctx, Filter{Category: model.CategoryAffirmation, IncludeArchived: true})
			require.NoError(t, err)
			assert.Len(t, withArchived, 2)

			// archived items remain in the duplicate baseline
			baseline, err := s.FetchBaseline(ctx)
			require.NoError(t, err)
			var archived int
			for _, b := range baseline {
				if b.IsArchived {
					archived++
					assert.Equal(t, "newer affirmation", b.Content)
				}
			}
			assert.Equal(t, 1, archived)

			err = s.Archive(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wellspring.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertAccepted(ctx, []model.AcceptedItem{item("1", "persisted", model.CategoryLifeLesson, time.Now())}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, path, s.Path())

	got, err := s.FetchBaseline(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Content)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	_, err := s.FetchBaseline(ctx)
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, s.InsertAccepted(ctx, nil), model.ErrPersistence)
}
