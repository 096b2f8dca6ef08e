package calendar

import (
	"time"

	"github.com/hearthboard/hearthboard/pkg/person"
	"github.com/hearthboard/hearthboard/pkg/tag"
)

type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Recurrence turns an Event into a series template. Until, when present, is
// compared inclusively against generated occurrence start times.
type Recurrence struct {
	Frequency Frequency
	Interval  int
	Until     *time.Time
}

// Event is a base calendar row. Without a Recurrence it is a single concrete
// instance; with one it is a series template and never itself a displayed
// occurrence.
type Event struct {
	Id          int64
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	// EndTime is nil for point-in-time events.
	EndTime    *time.Time
	AllDay     bool
	Tag        *tag.Tag
	Persons    []person.Person
	Recurrence *Recurrence
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e Event) Recurring() bool {
	return e.Recurrence != nil
}

// OccurrenceException overrides one generated instance of a series: a nil
// ReplacementEventId suppresses it, a non-nil one points at the standalone
// event holding the edited content. Unique per (event, occurrence start);
// once created it is only ever updated in place, never removed by the
// services (series deletion cascades at the schema level).
type OccurrenceException struct {
	Id                 int64
	EventId            int64
	OccurrenceStartAt  time.Time
	ReplacementEventId *int64
	UpdatedAt          time.Time
}

func (e OccurrenceException) Suppressed() bool {
	return e.ReplacementEventId == nil
}
