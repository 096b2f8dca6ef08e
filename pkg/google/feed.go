package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthboard/hearthboard/pkg/calendar"
	"github.com/hearthboard/hearthboard/pkg/household"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// Feed adapts the household's configured Google Calendar to the read side of
// the local calendar. It is read-only: entries are merged into windowed
// listings but never edited here.
type Feed struct {
	auth       *GoogleAuth
	households household.Provider
}

func NewFeed(auth *GoogleAuth, households household.Provider) *Feed {
	return &Feed{auth: auth, households: households}
}

func (f *Feed) ListBetween(ctx context.Context, from, to time.Time) ([]calendar.Occurrence, error) {
	currentHousehold, err := f.households.GetCurrentHousehold(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current household: %w", err)
	}
	calendarId := currentHousehold.Settings.GoogleCalendarId
	if calendarId == "" {
		return nil, nil
	}

	service, err := f.prepareGoogleService(ctx, currentHousehold.Id)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			log.Debugf("household %d has a Google calendar configured but no valid auth", currentHousehold.Id)
			return nil, nil
		}
		return nil, err
	}

	googleEvents, err := service.Events.List(calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}

	return googleEventsToOccurrences(googleEvents.Items), nil
}

func (f *Feed) prepareGoogleService(ctx context.Context, householdId int) (*gcal.Service, error) {
	return (&ServiceImpl{auth: f.auth}).prepareGoogleService(ctx, householdId)
}

func googleEventsToOccurrences(googleEvents []*gcal.Event) []calendar.Occurrence {
	occurrences := make([]calendar.Occurrence, 0, len(googleEvents))
	for _, item := range googleEvents {
		occurrence, err := googleEventToOccurrence(item)
		if err != nil {
			log.Warnf("skipping unparseable Google Calendar event %s: %v", item.Id, err)
			continue
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences
}

func googleEventToOccurrence(item *gcal.Event) (calendar.Occurrence, error) {
	occurrence := calendar.Occurrence{
		OccurrenceId: "google:" + item.Id,
		Title:        item.Summary,
		Description:  item.Description,
		Location:     item.Location,
	}

	if item.Start == nil {
		return calendar.Occurrence{}, fmt.Errorf("event has no start")
	}
	if item.Start.Date != "" {
		// All-day entries carry a date only.
		startTime, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			return calendar.Occurrence{}, fmt.Errorf("invalid all-day start: %w", err)
		}
		occurrence.StartTime = startTime
		occurrence.AllDay = true
		if item.End != nil && item.End.Date != "" {
			endTime, err := time.Parse("2006-01-02", item.End.Date)
			if err == nil {
				occurrence.EndTime = &endTime
			}
		}
		return occurrence, nil
	}

	startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return calendar.Occurrence{}, fmt.Errorf("invalid start: %w", err)
	}
	occurrence.StartTime = startTime
	if item.End != nil && item.End.DateTime != "" {
		endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err == nil {
			occurrence.EndTime = &endTime
		}
	}
	return occurrence, nil
}
