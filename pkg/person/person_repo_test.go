package person

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hearthboard/hearthboard/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Errorf("failed to terminate container: %s", err)
		}
	}()
	code := m.Run()
	os.Exit(code)
}

func setupRepository(t *testing.T) (context.Context, *RepositoryImpl, int) {
	t.Helper()
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})

	var householdId int
	err := db.QueryRow(ctx,
		"INSERT INTO household (uid, name, timezone) VALUES ($1, $2, $3) RETURNING id",
		uuid.NewString(), "Test household", "UTC",
	).Scan(&householdId)
	require.NoError(t, err)

	return ctx, NewRepository(db), householdId
}

func createTestPerson(t *testing.T, ctx context.Context, repo *RepositoryImpl, householdId int, name string) int {
	t.Helper()
	var id int
	err := repo.db.QueryRow(ctx,
		"INSERT INTO person (household_id, name, color) VALUES ($1, $2, $3) RETURNING id",
		householdId, name, "#336699",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestRepository_AllExist(t *testing.T) {
	t.Run("reports true when every id belongs to the household", func(t *testing.T) {
		// given
		ctx, repo, householdId := setupRepository(t)
		alice := createTestPerson(t, ctx, repo, householdId, "Alice")
		bob := createTestPerson(t, ctx, repo, householdId, "Bob")

		// when
		allExist, err := repo.AllExist(ctx, householdId, []int{alice, bob})

		// then
		require.NoError(t, err)
		assert.True(t, allExist)
	})

	t.Run("reports false when any id is unknown", func(t *testing.T) {
		ctx, repo, householdId := setupRepository(t)
		alice := createTestPerson(t, ctx, repo, householdId, "Alice")

		allExist, err := repo.AllExist(ctx, householdId, []int{alice, 999999})

		require.NoError(t, err)
		assert.False(t, allExist)
	})

	t.Run("reports false for a person from another household", func(t *testing.T) {
		ctx, repo, householdId := setupRepository(t)
		var otherHouseholdId int
		err := repo.db.QueryRow(ctx,
			"INSERT INTO household (uid, name, timezone) VALUES ($1, $2, $3) RETURNING id",
			uuid.NewString(), "Other household", "UTC",
		).Scan(&otherHouseholdId)
		require.NoError(t, err)
		stranger := createTestPerson(t, ctx, repo, otherHouseholdId, "Stranger")

		allExist, err := repo.AllExist(ctx, householdId, []int{stranger})

		require.NoError(t, err)
		assert.False(t, allExist)
	})

	t.Run("a repeated id still counts as existing", func(t *testing.T) {
		ctx, repo, householdId := setupRepository(t)
		alice := createTestPerson(t, ctx, repo, householdId, "Alice")

		allExist, err := repo.AllExist(ctx, householdId, []int{alice, alice})

		require.NoError(t, err)
		assert.True(t, allExist)
	})

	t.Run("an empty id list trivially exists", func(t *testing.T) {
		ctx, repo, householdId := setupRepository(t)

		allExist, err := repo.AllExist(ctx, householdId, nil)

		require.NoError(t, err)
		assert.True(t, allExist)
	})
}
