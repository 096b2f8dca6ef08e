package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hearthboard/hearthboard/pkg/household"
	log "github.com/sirupsen/logrus"
)

type QueryService interface {
	// ListBetween materializes every displayable occurrence in [from, to]:
	// non-recurring events as single instances, series expanded against
	// their exceptions, merged with the external feed and sorted ascending
	// by start time. A calendar with no events yields an empty list, never
	// an error.
	ListBetween(ctx context.Context, from, to time.Time) ([]Occurrence, error)
}

type QueryServiceImpl struct {
	txManager TxManager
	feed      Feed
}

func NewQueryService(txManager TxManager, feed Feed) *QueryServiceImpl {
	return &QueryServiceImpl{txManager, feed}
}

func (s *QueryServiceImpl) ListBetween(ctx context.Context, from, to time.Time) ([]Occurrence, error) {
	householdId, err := household.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current household: %w", err)
	}

	// The feed and the local store are fetched concurrently; a feed failure
	// degrades to an empty contribution and never fails the listing.
	feedCh := make(chan []Occurrence, 1)
	go func() {
		feedOccurrences, err := s.feed.ListBetween(ctx, from, to)
		if err != nil {
			log.Warnf("external calendar feed failed, continuing without it: %v", err)
			feedOccurrences = nil
		}
		feedCh <- feedOccurrences
	}()

	// Base rows and exceptions are read inside one transaction so a series
	// is never observed without its just-written exception.
	var events []Event
	exceptionsBySeries := make(map[int64][]OccurrenceException)
	err = s.txManager.WithTransaction(ctx, func(repos Repositories) error {
		var err error
		events, err = repos.Events.FindForWindow(ctx, householdId, from, to)
		if err != nil {
			return err
		}
		for _, event := range events {
			if !event.Recurring() {
				continue
			}
			exceptions, err := repos.Exceptions.FindForSeries(ctx, householdId, event.Id, from, to)
			if err != nil {
				return err
			}
			exceptionsBySeries[event.Id] = exceptions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	occurrences := make([]Occurrence, 0, len(events))
	for _, event := range events {
		if !event.Recurring() {
			occurrences = append(occurrences, occurrenceOf(event, event.StartTime))
			continue
		}
		// Suppressed exceptions feed the expansion skip set. A replaced slot
		// is dropped after expansion instead: its content surfaces through
		// the standalone replacement row already fetched with the window.
		skip := make(map[int64]struct{})
		replaced := make(map[int64]struct{})
		for _, exception := range exceptionsBySeries[event.Id] {
			if exception.Suppressed() {
				skip[exception.OccurrenceStartAt.Unix()] = struct{}{}
			} else {
				replaced[exception.OccurrenceStartAt.Unix()] = struct{}{}
			}
		}
		for _, occurrence := range Expand(event, from, to, skip) {
			if _, ok := replaced[occurrence.StartTime.Unix()]; ok {
				continue
			}
			occurrences = append(occurrences, occurrence)
		}
	}

	occurrences = append(occurrences, <-feedCh...)

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].StartTime.Before(occurrences[j].StartTime)
	})

	return occurrences, nil
}
