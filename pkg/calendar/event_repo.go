package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hearthboard/hearthboard/pkg/person"
	"github.com/hearthboard/hearthboard/pkg/tag"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type EventRepository interface {
	// Store inserts a base event row together with its person associations.
	Store(ctx context.Context, householdId int, event Event) (Event, error)
	FindById(ctx context.Context, householdId int, id int64) (*Event, error)
	// FindForWindow returns base rows matching the display window:
	// non-recurring rows by interval overlap (point-in-time when the end is
	// absent), recurring rows by the loose series filter - precise bounding
	// is left to expansion.
	FindForWindow(ctx context.Context, householdId int, from, to time.Time) ([]Event, error)
	// Patch applies a sparse update. Returns false when the event does not
	// exist in the household.
	Patch(ctx context.Context, householdId int, id int64, patch EventPatch) (bool, error)
	Delete(ctx context.Context, householdId int, id int64) (bool, error)
}

type EventRepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewEventRepository(db *pgxpool.Pool) *EventRepositoryImpl {
	return &EventRepositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *EventRepositoryImpl) getQueryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const eventColumns = `e.id, e.title, COALESCE(e.description, ''), COALESCE(e.location, ''),
			e.start_time, e.end_time, e.all_day,
			e.tag_id, t.name, t.color,
			e.recurrence_frequency, e.recurrence_interval, e.recurrence_until,
			e.created_at, e.updated_at`

func (r *EventRepositoryImpl) Store(ctx context.Context, householdId int, event Event) (Event, error) {
	query := `INSERT INTO calendar_event (
					household_id,
					title,
					description,
					location,
					start_time,
					end_time,
					all_day,
					tag_id,
					recurrence_frequency,
					recurrence_interval,
					recurrence_until
			  ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id, created_at, updated_at`

	var tagId *int
	if event.Tag != nil {
		tagId = &event.Tag.Id
	}
	var frequency *string
	var interval *int
	var until *time.Time
	if event.Recurrence != nil {
		f := string(event.Recurrence.Frequency)
		frequency = &f
		interval = &event.Recurrence.Interval
		until = event.Recurrence.Until
	}

	err := r.getQueryer().QueryRow(ctx, query,
		householdId,
		event.Title,
		event.Description,
		event.Location,
		event.StartTime,
		event.EndTime,
		event.AllDay,
		tagId,
		frequency,
		interval,
		until,
	).Scan(&event.Id, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return Event{}, err
	}

	if len(event.Persons) > 0 {
		personIds := make([]int, 0, len(event.Persons))
		for _, p := range event.Persons {
			personIds = append(personIds, p.Id)
		}
		if err := r.insertPersons(ctx, event.Id, personIds); err != nil {
			return Event{}, err
		}
	}

	return event, nil
}

func (r *EventRepositoryImpl) insertPersons(ctx context.Context, eventId int64, personIds []int) error {
	query := `INSERT INTO calendar_event_person (event_id, person_id) SELECT $1, UNNEST($2::INT[])`
	if _, err := r.getQueryer().Exec(ctx, query, eventId, personIds); err != nil {
		err := fmt.Errorf("could not store event persons: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *EventRepositoryImpl) FindById(ctx context.Context, householdId int, id int64) (*Event, error) {
	query := fmt.Sprintf(`SELECT %s
			  FROM calendar_event e
			  LEFT JOIN tag t ON t.id = e.tag_id
			  WHERE e.household_id = $1 AND e.id = $2`, eventColumns)

	event, err := scanEvent(r.getQueryer().QueryRow(ctx, query, householdId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not query event: %w", err)
		log.Error(err)
		return nil, err
	}

	persons, err := r.loadPersons(ctx, []int64{event.Id})
	if err != nil {
		return nil, err
	}
	event.Persons = persons[event.Id]

	return event, nil
}

func (r *EventRepositoryImpl) FindForWindow(ctx context.Context, householdId int, from, to time.Time) ([]Event, error) {
	query := fmt.Sprintf(`SELECT %s
			  FROM calendar_event e
			  LEFT JOIN tag t ON t.id = e.tag_id
			  WHERE e.household_id = $1
				AND (
					(e.recurrence_frequency IS NULL AND (
						(e.end_time IS NULL AND e.start_time >= $2 AND e.start_time <= $3)
						OR (e.end_time IS NOT NULL AND e.start_time <= $3 AND e.end_time >= $2)
					))
					OR (e.recurrence_frequency IS NOT NULL
						AND e.start_time <= $3
						AND (e.recurrence_until IS NULL OR e.recurrence_until >= $2))
				)
			  ORDER BY e.start_time, e.id`, eventColumns)

	rows, err := r.getQueryer().Query(ctx, query, householdId, from, to)
	if err != nil {
		err := fmt.Errorf("could not query events for window: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan event: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	if len(events) == 0 {
		return events, nil
	}

	eventIds := make([]int64, 0, len(events))
	for _, e := range events {
		eventIds = append(eventIds, e.Id)
	}
	persons, err := r.loadPersons(ctx, eventIds)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Persons = persons[events[i].Id]
	}

	return events, nil
}

func (r *EventRepositoryImpl) loadPersons(ctx context.Context, eventIds []int64) (map[int64][]person.Person, error) {
	query := `SELECT ep.event_id, p.id, p.name, p.color
			  FROM calendar_event_person ep
			  JOIN person p ON p.id = ep.person_id
			  WHERE ep.event_id = ANY($1)
			  ORDER BY p.id`

	rows, err := r.getQueryer().Query(ctx, query, eventIds)
	if err != nil {
		err := fmt.Errorf("could not query event persons: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	persons := make(map[int64][]person.Person)
	for rows.Next() {
		var eventId int64
		var p person.Person
		if err := rows.Scan(&eventId, &p.Id, &p.Name, &p.Color); err != nil {
			err := fmt.Errorf("could not scan event person: %w", err)
			log.Error(err)
			return nil, err
		}
		persons[eventId] = append(persons[eventId], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *EventRepositoryImpl) Patch(ctx context.Context, householdId int, id int64, patch EventPatch) (bool, error) {
	set := []string{"updated_at = now()"}
	args := []any{}
	placeholder := 1
	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, placeholder))
		args = append(args, value)
		placeholder++
	}

	if patch.Title.Set {
		add("title", patch.Title.Value)
	}
	if patch.Description.Set {
		add("description", patch.Description.Value)
	}
	if patch.Location.Set {
		add("location", patch.Location.Value)
	}
	if patch.StartTime.Set {
		add("start_time", patch.StartTime.Value)
	}
	if patch.EndTime.Set {
		add("end_time", patch.EndTime.Value)
	}
	if patch.AllDay.Set {
		add("all_day", patch.AllDay.Value)
	}
	if patch.TagId.Set {
		add("tag_id", patch.TagId.Value)
	}
	if patch.Recurrence.Set {
		if patch.Recurrence.Value == nil {
			add("recurrence_frequency", nil)
			add("recurrence_interval", nil)
			add("recurrence_until", nil)
		} else {
			add("recurrence_frequency", string(patch.Recurrence.Value.Frequency))
			add("recurrence_interval", patch.Recurrence.Value.Interval)
			add("recurrence_until", patch.Recurrence.Value.Until)
		}
	}

	query := fmt.Sprintf(`UPDATE calendar_event SET %s WHERE household_id = $%d AND id = $%d`,
		strings.Join(set, ", "), placeholder, placeholder+1)
	args = append(args, householdId, id)

	result, err := r.getQueryer().Exec(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not patch event: %w", err)
		log.Error(err)
		return false, err
	}
	if result.RowsAffected() != 1 {
		return false, nil
	}

	if patch.PersonIds.Set {
		if _, err := r.getQueryer().Exec(ctx, `DELETE FROM calendar_event_person WHERE event_id = $1`, id); err != nil {
			err := fmt.Errorf("could not clear event persons: %w", err)
			log.Error(err)
			return false, err
		}
		if len(patch.PersonIds.Value) > 0 {
			if err := r.insertPersons(ctx, id, patch.PersonIds.Value); err != nil {
				return false, err
			}
		}
	}

	return true, nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, householdId int, id int64) (bool, error) {
	query := `DELETE FROM calendar_event WHERE household_id = $1 AND id = $2`

	result, err := r.getQueryer().Exec(ctx, query, householdId, id)
	if err != nil {
		err := fmt.Errorf("could not delete event: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// scanEvent reads one event row in eventColumns order, normalizing all
// timestamps to UTC.
func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var tagId *int
	var tagName, tagColor *string
	var frequency *string
	var interval *int
	var until *time.Time

	err := row.Scan(
		&e.Id,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.StartTime,
		&e.EndTime,
		&e.AllDay,
		&tagId, &tagName, &tagColor,
		&frequency, &interval, &until,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.StartTime = e.StartTime.UTC()
	if e.EndTime != nil {
		utc := e.EndTime.UTC()
		e.EndTime = &utc
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	if tagId != nil {
		e.Tag = &tag.Tag{Id: *tagId}
		if tagName != nil {
			e.Tag.Name = *tagName
		}
		if tagColor != nil {
			e.Tag.Color = *tagColor
		}
	}
	if frequency != nil && interval != nil {
		if until != nil {
			utc := until.UTC()
			until = &utc
		}
		e.Recurrence = &Recurrence{
			Frequency: Frequency(*frequency),
			Interval:  *interval,
			Until:     until,
		}
	}

	return &e, nil
}
