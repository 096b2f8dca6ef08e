package calendar

import (
	"context"
	"sort"
	"time"
)

type StubExceptionRepository struct {
	// Exceptions maps householdId to all stored exceptions.
	Exceptions map[int][]OccurrenceException
	FailWith   error
	nextId     int64
}

func NewStubExceptionRepository() *StubExceptionRepository {
	return &StubExceptionRepository{Exceptions: make(map[int][]OccurrenceException)}
}

func (s *StubExceptionRepository) Upsert(ctx context.Context, householdId int, exception OccurrenceException) (OccurrenceException, error) {
	if s.FailWith != nil {
		return OccurrenceException{}, s.FailWith
	}
	now := time.Now().UTC().Truncate(time.Second)
	for i, existing := range s.Exceptions[householdId] {
		if existing.EventId == exception.EventId && existing.OccurrenceStartAt.Equal(exception.OccurrenceStartAt) {
			existing.ReplacementEventId = exception.ReplacementEventId
			existing.UpdatedAt = now
			s.Exceptions[householdId][i] = existing
			return existing, nil
		}
	}
	s.nextId++
	exception.Id = s.nextId
	exception.UpdatedAt = now
	s.Exceptions[householdId] = append(s.Exceptions[householdId], exception)
	return exception, nil
}

func (s *StubExceptionRepository) ReplacementIdsForSeries(ctx context.Context, householdId int, eventId int64) ([]int64, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var ids []int64
	for _, exception := range s.Exceptions[householdId] {
		if exception.EventId == eventId && exception.ReplacementEventId != nil {
			ids = append(ids, *exception.ReplacementEventId)
		}
	}
	return ids, nil
}

func (s *StubExceptionRepository) FindByOccurrence(ctx context.Context, householdId int, eventId int64, occurrenceStartAt time.Time) (*OccurrenceException, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	for _, exception := range s.Exceptions[householdId] {
		if exception.EventId == eventId && exception.OccurrenceStartAt.Equal(occurrenceStartAt) {
			return &exception, nil
		}
	}
	return nil, nil
}

func (s *StubExceptionRepository) FindForSeries(ctx context.Context, householdId int, eventId int64, from, to time.Time) ([]OccurrenceException, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var exceptions []OccurrenceException
	for _, exception := range s.Exceptions[householdId] {
		if exception.EventId != eventId {
			continue
		}
		if exception.OccurrenceStartAt.Before(from) || exception.OccurrenceStartAt.After(to) {
			continue
		}
		exceptions = append(exceptions, exception)
	}
	sort.Slice(exceptions, func(i, j int) bool {
		return exceptions[i].OccurrenceStartAt.Before(exceptions[j].OccurrenceStartAt)
	})
	return exceptions, nil
}
