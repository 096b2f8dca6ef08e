package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hearthboard/hearthboard/pkg/person"
	"github.com/hearthboard/hearthboard/pkg/tag"
)

// Occurrence is one concrete, displayable instance: either a generated
// instance of a series, a plain non-recurring event, or an entry from the
// external feed. It is derived, never stored.
type Occurrence struct {
	SeriesId     int64
	OccurrenceId string
	Title        string
	Description  string
	Location     string
	StartTime    time.Time
	EndTime      *time.Time
	AllDay       bool
	Recurrence   *Recurrence
	Persons      []person.Person
	Tag          *tag.Tag
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OccurrenceKey builds the stable external identifier of one occurrence.
// Clients hand it back verbatim when requesting occurrence-scoped edits.
func OccurrenceKey(seriesId int64, startAt time.Time) string {
	return fmt.Sprintf("%d:%s", seriesId, startAt.UTC().Format(time.RFC3339))
}

// ParseOccurrenceKey decodes an occurrence id back into its series id and
// occurrence start time.
func ParseOccurrenceKey(key string) (int64, time.Time, error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("invalid occurrence key: %s", key)
	}
	seriesId, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid series id in occurrence key: %w", err)
	}
	startAt, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid start time in occurrence key: %w", err)
	}
	return seriesId, startAt, nil
}

// occurrenceOf materializes one instance of an event at the given start,
// reusing the event's duration when an end time is set.
func occurrenceOf(e Event, startAt time.Time) Occurrence {
	var endAt *time.Time
	if e.EndTime != nil {
		end := startAt.Add(e.EndTime.Sub(e.StartTime))
		endAt = &end
	}
	return Occurrence{
		SeriesId:     e.Id,
		OccurrenceId: OccurrenceKey(e.Id, startAt),
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		StartTime:    startAt,
		EndTime:      endAt,
		AllDay:       e.AllDay,
		Recurrence:   e.Recurrence,
		Persons:      e.Persons,
		Tag:          e.Tag,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
