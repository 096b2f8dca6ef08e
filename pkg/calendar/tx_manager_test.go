package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_WithTransaction(t *testing.T) {
	t.Run("rolls back the first write when a later one fails", func(t *testing.T) {
		// given
		ctx := context.Background()
		db := openDb()
		t.Cleanup(func() {
			db.Close()
			require.NoError(t, pgContainer.Restore(ctx))
		})
		householdId := createTestHousehold(t, ctx, db, "Test household")
		manager := NewTxManager(db)

		// when: the event insert succeeds, then the exception upsert violates
		// the event foreign key
		var storedId int64
		err := manager.WithTransaction(ctx, func(repos Repositories) error {
			stored, err := repos.Events.Store(ctx, householdId, Event{
				Title:     "Piano recital",
				StartTime: time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC),
			})
			if err != nil {
				return err
			}
			storedId = stored.Id

			_, err = repos.Exceptions.Upsert(ctx, householdId, OccurrenceException{
				EventId:            999999,
				OccurrenceStartAt:  time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC),
				ReplacementEventId: &stored.Id,
			})
			return err
		})

		// then: no partial state survives
		require.Error(t, err)
		require.NotZero(t, storedId)
		found, err := NewEventRepository(db).FindById(ctx, householdId, storedId)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("commits when the whole function succeeds", func(t *testing.T) {
		ctx := context.Background()
		db := openDb()
		t.Cleanup(func() {
			db.Close()
			require.NoError(t, pgContainer.Restore(ctx))
		})
		householdId := createTestHousehold(t, ctx, db, "Test household")
		manager := NewTxManager(db)

		var storedId int64
		err := manager.WithTransaction(ctx, func(repos Repositories) error {
			stored, err := repos.Events.Store(ctx, householdId, Event{
				Title:     "Dentist",
				StartTime: time.Date(2024, time.January, 5, 14, 0, 0, 0, time.UTC),
			})
			if err != nil {
				return err
			}
			storedId = stored.Id
			return nil
		})

		require.NoError(t, err)
		found, err := NewEventRepository(db).FindById(ctx, householdId, storedId)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Dentist", found.Title)
	})
}
