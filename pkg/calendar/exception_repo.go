package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type ExceptionRepository interface {
	// Upsert inserts the exception or, when one already exists for the same
	// (event, occurrence start), rewrites its replacement pointer in place.
	Upsert(ctx context.Context, householdId int, exception OccurrenceException) (OccurrenceException, error)
	FindByOccurrence(ctx context.Context, householdId int, eventId int64, occurrenceStartAt time.Time) (*OccurrenceException, error)
	// FindForSeries returns the exceptions of one series whose occurrence
	// start falls inside [from, to].
	FindForSeries(ctx context.Context, householdId int, eventId int64, from, to time.Time) ([]OccurrenceException, error)
	// ReplacementIdsForSeries returns the ids of every replacement event
	// referenced by the series' exceptions, regardless of window.
	ReplacementIdsForSeries(ctx context.Context, householdId int, eventId int64) ([]int64, error)
}

type ExceptionRepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewExceptionRepository(db *pgxpool.Pool) *ExceptionRepositoryImpl {
	return &ExceptionRepositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *ExceptionRepositoryImpl) getQueryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *ExceptionRepositoryImpl) Upsert(ctx context.Context, householdId int, exception OccurrenceException) (OccurrenceException, error) {
	query := `INSERT INTO calendar_event_exception (household_id, event_id, occurrence_start_at, replacement_event_id)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (event_id, occurrence_start_at)
			  DO UPDATE SET replacement_event_id = EXCLUDED.replacement_event_id, updated_at = now()
			  RETURNING id, updated_at`

	err := r.getQueryer().QueryRow(ctx, query,
		householdId,
		exception.EventId,
		exception.OccurrenceStartAt,
		exception.ReplacementEventId,
	).Scan(&exception.Id, &exception.UpdatedAt)
	if err != nil {
		err := fmt.Errorf("could not upsert occurrence exception: %w", err)
		log.Error(err)
		return OccurrenceException{}, err
	}
	exception.UpdatedAt = exception.UpdatedAt.UTC()
	return exception, nil
}

func (r *ExceptionRepositoryImpl) FindByOccurrence(ctx context.Context, householdId int, eventId int64, occurrenceStartAt time.Time) (*OccurrenceException, error) {
	query := `SELECT id, event_id, occurrence_start_at, replacement_event_id, updated_at
			  FROM calendar_event_exception
			  WHERE household_id = $1 AND event_id = $2 AND occurrence_start_at = $3`

	exception, err := scanException(r.getQueryer().QueryRow(ctx, query, householdId, eventId, occurrenceStartAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not query occurrence exception: %w", err)
		log.Error(err)
		return nil, err
	}
	return exception, nil
}

func (r *ExceptionRepositoryImpl) FindForSeries(ctx context.Context, householdId int, eventId int64, from, to time.Time) ([]OccurrenceException, error) {
	query := `SELECT id, event_id, occurrence_start_at, replacement_event_id, updated_at
			  FROM calendar_event_exception
			  WHERE household_id = $1 AND event_id = $2
				AND occurrence_start_at >= $3 AND occurrence_start_at <= $4
			  ORDER BY occurrence_start_at`

	rows, err := r.getQueryer().Query(ctx, query, householdId, eventId, from, to)
	if err != nil {
		err := fmt.Errorf("could not query occurrence exceptions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var exceptions []OccurrenceException
	for rows.Next() {
		exception, err := scanException(rows)
		if err != nil {
			err := fmt.Errorf("could not scan occurrence exception: %w", err)
			log.Error(err)
			return nil, err
		}
		exceptions = append(exceptions, *exception)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exceptions, nil
}

func (r *ExceptionRepositoryImpl) ReplacementIdsForSeries(ctx context.Context, householdId int, eventId int64) ([]int64, error) {
	query := `SELECT replacement_event_id
			  FROM calendar_event_exception
			  WHERE household_id = $1 AND event_id = $2 AND replacement_event_id IS NOT NULL`

	rows, err := r.getQueryer().Query(ctx, query, householdId, eventId)
	if err != nil {
		err := fmt.Errorf("could not query replacement event ids: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			err := fmt.Errorf("could not scan replacement event id: %w", err)
			log.Error(err)
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanException(row pgx.Row) (*OccurrenceException, error) {
	var e OccurrenceException
	err := row.Scan(&e.Id, &e.EventId, &e.OccurrenceStartAt, &e.ReplacementEventId, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.OccurrenceStartAt = e.OccurrenceStartAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
