package person

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Repository is the existence-check collaborator consumed by the calendar
// services. Person management itself lives outside this service.
type Repository interface {
	// AllExist reports whether every given person id belongs to the household.
	// An empty id list trivially exists.
	AllExist(ctx context.Context, householdId int, ids []int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) AllExist(ctx context.Context, householdId int, ids []int) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	// The count is compared against distinct ids, so a request repeating an
	// id is not mistaken for a missing person.
	unique := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	query := `SELECT COUNT(*) FROM person WHERE household_id = $1 AND id = ANY($2)`

	var count int
	if err := r.db.QueryRow(ctx, query, householdId, unique).Scan(&count); err != nil {
		err := fmt.Errorf("could not check person existence: %w", err)
		log.Error(err)
		return false, err
	}
	return count == len(unique), nil
}
