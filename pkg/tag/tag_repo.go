package tag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Repository is the existence-check collaborator consumed by the calendar
// services. Tag management itself lives outside this service.
type Repository interface {
	Exists(ctx context.Context, householdId int, tagId int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Exists(ctx context.Context, householdId int, tagId int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tag WHERE household_id = $1 AND id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, householdId, tagId).Scan(&exists); err != nil {
		err := fmt.Errorf("could not check tag existence: %w", err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}
