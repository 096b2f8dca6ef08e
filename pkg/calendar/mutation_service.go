package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthboard/hearthboard/internal/event_bus"
	"github.com/hearthboard/hearthboard/pkg/household"
	"github.com/hearthboard/hearthboard/pkg/person"
	"github.com/hearthboard/hearthboard/pkg/tag"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidReference flags a supplied tag or person that does not belong
	// to the target household. Raised before any write.
	ErrInvalidReference = errors.New("referenced tag or person does not exist in this calendar")
	// ErrNotRecurring flags an occurrence-scoped operation on an event
	// without a recurrence.
	ErrNotRecurring = errors.New("event is not recurring")
	// ErrInvalidOccurrenceKey flags a missing or unparseable occurrence start.
	ErrInvalidOccurrenceKey = errors.New("invalid occurrence key")
	ErrInvalidRecurrence    = errors.New("invalid recurrence rule")
)

type MutationService interface {
	// Insert stores a new base event (single or series) with its person
	// associations. Tag and person references are validated against the
	// household before any write.
	Insert(ctx context.Context, event Event) (Event, error)
	// PatchSeries applies a sparse update to the base row. Returns nil when
	// the event does not exist in the caller's household.
	PatchSeries(ctx context.Context, id int64, patch EventPatch) (*Event, error)
	// DeleteSeries removes the base row together with the replacement events
	// created by its occurrence overrides; exception rows themselves are
	// cleaned up by the schema's cascade rules.
	DeleteSeries(ctx context.Context, id int64) (bool, error)
	// EditOccurrence overrides one generated instance of a series with
	// edited content, leaving the series definition untouched.
	EditOccurrence(ctx context.Context, seriesId int64, occurrenceStartAt time.Time, patch EventPatch) (*Occurrence, error)
	// DeleteOccurrence suppresses one generated instance. Calling it again
	// for the same instance is a no-op success.
	DeleteOccurrence(ctx context.Context, seriesId int64, occurrenceStartAt time.Time) (bool, error)
}

type MutationServiceImpl struct {
	txManager TxManager
	events    EventRepository
	tags      tag.Repository
	persons   person.Repository
	bus       *event_bus.EventBus
}

func NewMutationService(
	txManager TxManager,
	events EventRepository,
	tags tag.Repository,
	persons person.Repository,
	bus *event_bus.EventBus,
) *MutationServiceImpl {
	return &MutationServiceImpl{txManager, events, tags, persons, bus}
}

func (s *MutationServiceImpl) Insert(ctx context.Context, event Event) (Event, error) {
	householdId, err := household.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current household: %w", err)
	}

	if err := validateRecurrence(event.Recurrence); err != nil {
		return Event{}, err
	}
	if err := s.validateReferences(ctx, householdId, tagIdOf(event), personIdsOf(event)); err != nil {
		return Event{}, err
	}

	var stored Event
	err = s.txManager.WithTransaction(ctx, func(repos Repositories) error {
		var err error
		stored, err = repos.Events.Store(ctx, householdId, event)
		return err
	})
	if err != nil {
		return Event{}, err
	}

	hydrated, err := s.events.FindById(ctx, householdId, stored.Id)
	if err != nil {
		return Event{}, err
	}

	if publishErr := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventCreatedType, event_bus.CalendarEventCreated{
		EventId:   hydrated.Id,
		Title:     hydrated.Title,
		StartTime: hydrated.StartTime,
		Recurring: hydrated.Recurring(),
	})); publishErr != nil {
		log.Errorf("failed to publish event created notification: %v", publishErr)
	}

	return *hydrated, nil
}

func (s *MutationServiceImpl) PatchSeries(ctx context.Context, id int64, patch EventPatch) (*Event, error) {
	householdId, err := household.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current household: %w", err)
	}

	if patch.Recurrence.Set && patch.Recurrence.Value != nil {
		if err := validateRecurrence(patch.Recurrence.Value); err != nil {
			return nil, err
		}
	}
	if err := s.validatePatchReferences(ctx, householdId, patch); err != nil {
		return nil, err
	}

	found := false
	err = s.txManager.WithTransaction(ctx, func(repos Repositories) error {
		var err error
		found, err = repos.Events.Patch(ctx, householdId, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	updated, err := s.events.FindById(ctx, householdId, id)
	if err != nil {
		return nil, err
	}

	if publishErr := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventUpdatedType, event_bus.CalendarEventUpdated{
		EventId: id,
	})); publishErr != nil {
		log.Errorf("failed to publish event updated notification: %v", publishErr)
	}

	return updated, nil
}

func (s *MutationServiceImpl) DeleteSeries(ctx context.Context, id int64) (bool, error) {
	householdId, err := household.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current household: %w", err)
	}

	// Replacement events are standalone rows with no series back-reference,
	// so they must go in the same transaction as the base row or they would
	// linger in windowed listings as orphans.
	deleted := false
	err = s.txManager.WithTransaction(ctx, func(repos Repositories) error {
		replacementIds, err := repos.Exceptions.ReplacementIdsForSeries(ctx, householdId, id)
		if err != nil {
			return err
		}
		for _, replacementId := range replacementIds {
			if _, err := repos.Events.Delete(ctx, householdId, replacementId); err != nil {
				return err
			}
		}
		deleted, err = repos.Events.Delete(ctx, householdId, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Debugf("no event %d to delete in household %d", id, householdId)
		return false, nil
	}

	if publishErr := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventDeletedType, event_bus.CalendarEventDeleted{
		EventId: id,
	})); publishErr != nil {
		log.Errorf("failed to publish event deleted notification: %v", publishErr)
	}

	return true, nil
}

func (s *MutationServiceImpl) EditOccurrence(ctx context.Context, seriesId int64, occurrenceStartAt time.Time, patch EventPatch) (*Occurrence, error) {
	householdId, err := household.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current household: %w", err)
	}
	if occurrenceStartAt.IsZero() {
		return nil, ErrInvalidOccurrenceKey
	}

	base, err := s.events.FindById(ctx, householdId, seriesId)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, nil
	}
	if !base.Recurring() {
		return nil, ErrNotRecurring
	}

	if err := s.validatePatchReferences(ctx, householdId, patch); err != nil {
		return nil, err
	}

	var replacement Event
	err = s.txManager.WithTransaction(ctx, func(repos Repositories) error {
		existing, err := repos.Exceptions.FindByOccurrence(ctx, householdId, seriesId, occurrenceStartAt)
		if err != nil {
			return err
		}
		// A previous override leaves its replacement row behind once the
		// exception is repointed, so it is removed inside this transaction.
		if existing != nil && existing.ReplacementEventId != nil {
			if _, err := repos.Events.Delete(ctx, householdId, *existing.ReplacementEventId); err != nil {
				return err
			}
		}

		replacement, err = repos.Events.Store(ctx, householdId, replacementFor(*base, occurrenceStartAt, patch))
		if err != nil {
			return err
		}

		_, err = repos.Exceptions.Upsert(ctx, householdId, OccurrenceException{
			EventId:            seriesId,
			OccurrenceStartAt:  occurrenceStartAt,
			ReplacementEventId: &replacement.Id,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	hydrated, err := s.events.FindById(ctx, householdId, replacement.Id)
	if err != nil {
		return nil, err
	}

	if publishErr := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventUpdatedType, event_bus.CalendarEventUpdated{
		EventId:    seriesId,
		Occurrence: &occurrenceStartAt,
	})); publishErr != nil {
		log.Errorf("failed to publish occurrence updated notification: %v", publishErr)
	}

	occurrence := occurrenceOf(*hydrated, hydrated.StartTime)
	return &occurrence, nil
}

func (s *MutationServiceImpl) DeleteOccurrence(ctx context.Context, seriesId int64, occurrenceStartAt time.Time) (bool, error) {
	householdId, err := household.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current household: %w", err)
	}
	if occurrenceStartAt.IsZero() {
		return false, ErrInvalidOccurrenceKey
	}

	base, err := s.events.FindById(ctx, householdId, seriesId)
	if err != nil {
		return false, err
	}
	if base == nil {
		return false, nil
	}
	if !base.Recurring() {
		return false, ErrNotRecurring
	}

	err = s.txManager.WithTransaction(ctx, func(repos Repositories) error {
		existing, err := repos.Exceptions.FindByOccurrence(ctx, householdId, seriesId, occurrenceStartAt)
		if err != nil {
			return err
		}
		if existing != nil && existing.ReplacementEventId != nil {
			if _, err := repos.Events.Delete(ctx, householdId, *existing.ReplacementEventId); err != nil {
				return err
			}
		}

		_, err = repos.Exceptions.Upsert(ctx, householdId, OccurrenceException{
			EventId:           seriesId,
			OccurrenceStartAt: occurrenceStartAt,
		})
		return err
	})
	if err != nil {
		return false, err
	}

	if publishErr := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventDeletedType, event_bus.CalendarEventDeleted{
		EventId:    seriesId,
		Occurrence: &occurrenceStartAt,
	})); publishErr != nil {
		log.Errorf("failed to publish occurrence deleted notification: %v", publishErr)
	}

	return true, nil
}

// replacementFor snapshots the series content at one occurrence slot and
// overlays the patch on it. The result is a standalone event: it never
// carries a recurrence of its own.
func replacementFor(base Event, occurrenceStartAt time.Time, patch EventPatch) Event {
	snapshot := base
	snapshot.Id = 0
	snapshot.Recurrence = nil
	snapshot.StartTime = occurrenceStartAt
	if base.EndTime != nil {
		end := occurrenceStartAt.Add(base.EndTime.Sub(base.StartTime))
		snapshot.EndTime = &end
	}

	snapshot = patch.applyTo(snapshot)
	snapshot.Recurrence = nil

	if patch.PersonIds.Set {
		snapshot.Persons = make([]person.Person, 0, len(patch.PersonIds.Value))
		for _, id := range patch.PersonIds.Value {
			snapshot.Persons = append(snapshot.Persons, person.Person{Id: id})
		}
	}
	return snapshot
}

func validateRecurrence(r *Recurrence) error {
	if r == nil {
		return nil
	}
	if r.Frequency != FrequencyWeekly && r.Frequency != FrequencyMonthly {
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalidRecurrence, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrInvalidRecurrence)
	}
	return nil
}

func (s *MutationServiceImpl) validateReferences(ctx context.Context, householdId int, tagId *int, personIds []int) error {
	if tagId != nil {
		exists, err := s.tags.Exists(ctx, householdId, *tagId)
		if err != nil {
			return err
		}
		if !exists {
			return ErrInvalidReference
		}
	}
	if len(personIds) > 0 {
		allExist, err := s.persons.AllExist(ctx, householdId, personIds)
		if err != nil {
			return err
		}
		if !allExist {
			return ErrInvalidReference
		}
	}
	return nil
}

func (s *MutationServiceImpl) validatePatchReferences(ctx context.Context, householdId int, patch EventPatch) error {
	var tagId *int
	if patch.TagId.Set && patch.TagId.Value != nil {
		tagId = patch.TagId.Value
	}
	var personIds []int
	if patch.PersonIds.Set {
		personIds = patch.PersonIds.Value
	}
	return s.validateReferences(ctx, householdId, tagId, personIds)
}

func tagIdOf(event Event) *int {
	if event.Tag == nil {
		return nil
	}
	return &event.Tag.Id
}

func personIdsOf(event Event) []int {
	ids := make([]int, 0, len(event.Persons))
	for _, p := range event.Persons {
		ids = append(ids, p.Id)
	}
	return ids
}
