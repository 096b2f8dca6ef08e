package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/hearthboard/hearthboard/pkg/person"
)

type StubEventRepository struct {
	// Events maps householdId to its stored events by id.
	Events   map[int]map[int64]Event
	FailWith error
	nextId   int64
}

func NewStubEventRepository() *StubEventRepository {
	return &StubEventRepository{Events: make(map[int]map[int64]Event)}
}

func (s *StubEventRepository) Store(ctx context.Context, householdId int, event Event) (Event, error) {
	if s.FailWith != nil {
		return Event{}, s.FailWith
	}
	s.nextId++
	event.Id = s.nextId
	now := time.Now().UTC().Truncate(time.Second)
	event.CreatedAt = now
	event.UpdatedAt = now
	if s.Events[householdId] == nil {
		s.Events[householdId] = make(map[int64]Event)
	}
	s.Events[householdId][event.Id] = event
	return event, nil
}

func (s *StubEventRepository) FindById(ctx context.Context, householdId int, id int64) (*Event, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	event, ok := s.Events[householdId][id]
	if !ok {
		return nil, nil
	}
	return &event, nil
}

func (s *StubEventRepository) FindForWindow(ctx context.Context, householdId int, from, to time.Time) ([]Event, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var events []Event
	for _, event := range s.Events[householdId] {
		if matchesWindow(event, from, to) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].Id < events[j].Id
		}
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func matchesWindow(event Event, from, to time.Time) bool {
	if event.Recurring() {
		if event.StartTime.After(to) {
			return false
		}
		until := event.Recurrence.Until
		return until == nil || !until.Before(from)
	}
	if event.EndTime == nil {
		return !event.StartTime.Before(from) && !event.StartTime.After(to)
	}
	return !event.StartTime.After(to) && !event.EndTime.Before(from)
}

func (s *StubEventRepository) Patch(ctx context.Context, householdId int, id int64, patch EventPatch) (bool, error) {
	if s.FailWith != nil {
		return false, s.FailWith
	}
	event, ok := s.Events[householdId][id]
	if !ok {
		return false, nil
	}
	event = patch.applyTo(event)
	if patch.PersonIds.Set {
		event.Persons = make([]person.Person, 0, len(patch.PersonIds.Value))
		for _, personId := range patch.PersonIds.Value {
			event.Persons = append(event.Persons, person.Person{Id: personId})
		}
	}
	event.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	s.Events[householdId][id] = event
	return true, nil
}

func (s *StubEventRepository) Delete(ctx context.Context, householdId int, id int64) (bool, error) {
	if s.FailWith != nil {
		return false, s.FailWith
	}
	if _, ok := s.Events[householdId][id]; !ok {
		return false, nil
	}
	delete(s.Events[householdId], id)
	return true, nil
}
