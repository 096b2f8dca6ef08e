package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExceptionRepository(t *testing.T) (context.Context, *ExceptionRepositoryImpl, *pgxpool.Pool, int, Event) {
	t.Helper()
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	householdId := createTestHousehold(t, ctx, db, "Test household")
	series, err := NewEventRepository(db).Store(ctx, householdId, Event{
		Title:      "Piano lesson",
		StartTime:  time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC),
		Recurrence: &Recurrence{Frequency: FrequencyWeekly, Interval: 1},
	})
	require.NoError(t, err)
	return ctx, NewExceptionRepository(db), db, householdId, series
}

func TestExceptionRepository_Upsert(t *testing.T) {
	occurrenceStart := time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC)

	t.Run("inserts a suppressing exception", func(t *testing.T) {
		// given
		ctx, repo, _, householdId, series := setupExceptionRepository(t)

		// when
		stored, err := repo.Upsert(ctx, householdId, OccurrenceException{
			EventId:           series.Id,
			OccurrenceStartAt: occurrenceStart,
		})

		// then
		require.NoError(t, err)
		assert.NotZero(t, stored.Id)
		assert.True(t, stored.Suppressed())
	})

	t.Run("rewrites the replacement pointer in place on conflict", func(t *testing.T) {
		ctx, repo, db, householdId, series := setupExceptionRepository(t)
		events := NewEventRepository(db)
		replacement, err := events.Store(ctx, householdId, Event{
			Title:     "Piano recital",
			StartTime: occurrenceStart,
		})
		require.NoError(t, err)

		first, err := repo.Upsert(ctx, householdId, OccurrenceException{
			EventId:           series.Id,
			OccurrenceStartAt: occurrenceStart,
		})
		require.NoError(t, err)

		second, err := repo.Upsert(ctx, householdId, OccurrenceException{
			EventId:            series.Id,
			OccurrenceStartAt:  occurrenceStart,
			ReplacementEventId: &replacement.Id,
		})
		require.NoError(t, err)

		// Same row, repointed
		assert.Equal(t, first.Id, second.Id)
		found, err := repo.FindByOccurrence(ctx, householdId, series.Id, occurrenceStart)
		require.NoError(t, err)
		require.NotNil(t, found)
		require.NotNil(t, found.ReplacementEventId)
		assert.Equal(t, replacement.Id, *found.ReplacementEventId)
	})

	t.Run("deleting the replacement nulls the pointer instead of dropping the row", func(t *testing.T) {
		ctx, repo, db, householdId, series := setupExceptionRepository(t)
		events := NewEventRepository(db)
		replacement, err := events.Store(ctx, householdId, Event{
			Title:     "Piano recital",
			StartTime: occurrenceStart,
		})
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, householdId, OccurrenceException{
			EventId:            series.Id,
			OccurrenceStartAt:  occurrenceStart,
			ReplacementEventId: &replacement.Id,
		})
		require.NoError(t, err)

		deleted, err := events.Delete(ctx, householdId, replacement.Id)
		require.NoError(t, err)
		require.True(t, deleted)

		found, err := repo.FindByOccurrence(ctx, householdId, series.Id, occurrenceStart)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Nil(t, found.ReplacementEventId)
	})
}

func TestExceptionRepository_FindByOccurrence(t *testing.T) {
	t.Run("returns nil when no exception exists", func(t *testing.T) {
		ctx, repo, _, householdId, series := setupExceptionRepository(t)

		found, err := repo.FindByOccurrence(ctx, householdId, series.Id,
			time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestExceptionRepository_ReplacementIdsForSeries(t *testing.T) {
	t.Run("returns replacement ids and skips suppressing exceptions", func(t *testing.T) {
		ctx, repo, db, householdId, series := setupExceptionRepository(t)
		events := NewEventRepository(db)
		replacement, err := events.Store(ctx, householdId, Event{
			Title:     "Piano recital",
			StartTime: time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, householdId, OccurrenceException{
			EventId:            series.Id,
			OccurrenceStartAt:  time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC),
			ReplacementEventId: &replacement.Id,
		})
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, householdId, OccurrenceException{
			EventId:           series.Id,
			OccurrenceStartAt: time.Date(2024, time.January, 17, 10, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		ids, err := repo.ReplacementIdsForSeries(ctx, householdId, series.Id)

		require.NoError(t, err)
		assert.Equal(t, []int64{replacement.Id}, ids)
	})

	t.Run("returns nothing for a series without overrides", func(t *testing.T) {
		ctx, repo, _, householdId, series := setupExceptionRepository(t)

		ids, err := repo.ReplacementIdsForSeries(ctx, householdId, series.Id)

		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestExceptionRepository_FindForSeries(t *testing.T) {
	t.Run("returns only exceptions inside the window, ordered by start", func(t *testing.T) {
		ctx, repo, _, householdId, series := setupExceptionRepository(t)
		for _, day := range []int{24, 10, 17} {
			_, err := repo.Upsert(ctx, householdId, OccurrenceException{
				EventId:           series.Id,
				OccurrenceStartAt: time.Date(2024, time.January, day, 10, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
		}

		exceptions, err := repo.FindForSeries(ctx, householdId, series.Id,
			time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 17, 23, 59, 59, 0, time.UTC))

		require.NoError(t, err)
		require.Len(t, exceptions, 2)
		assert.Equal(t, 10, exceptions[0].OccurrenceStartAt.Day())
		assert.Equal(t, 17, exceptions[1].OccurrenceStartAt.Day())
	})
}
