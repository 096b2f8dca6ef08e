package household

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	GetByUid(ctx context.Context, uid string) (*Household, error)
	Create(ctx context.Context, h Household) (Household, error)
	UpdateSettings(ctx context.Context, householdId int, settings Settings) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) GetByUid(ctx context.Context, uid string) (*Household, error) {
	query := `SELECT id, uid, name, timezone, COALESCE(google_calendar_id, '')
			  FROM household WHERE uid = $1`

	var h Household
	err := r.db.QueryRow(ctx, query, uid).Scan(
		&h.Id,
		&h.Uid,
		&h.Name,
		&h.Settings.Timezone,
		&h.Settings.GoogleCalendarId,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not query household: %w", err)
		log.Error(err)
		return nil, err
	}
	return &h, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, h Household) (Household, error) {
	query := `INSERT INTO household (uid, name, timezone, google_calendar_id)
			  VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`

	err := r.db.QueryRow(ctx, query, h.Uid, h.Name, h.Settings.Timezone, h.Settings.GoogleCalendarId).Scan(&h.Id)
	if err != nil {
		err := fmt.Errorf("could not create household: %w", err)
		log.Error(err)
		return Household{}, err
	}
	return h, nil
}

func (r *RepositoryImpl) UpdateSettings(ctx context.Context, householdId int, settings Settings) (bool, error) {
	query := `UPDATE household SET timezone = $1, google_calendar_id = NULLIF($2, '') WHERE id = $3`

	result, err := r.db.Exec(ctx, query, settings.Timezone, settings.GoogleCalendarId, householdId)
	if err != nil {
		err := fmt.Errorf("could not update household settings: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}
