package event_bus

import "time"

const (
	CalendarEventCreatedType EventType = "calendar.event.created"
	CalendarEventUpdatedType EventType = "calendar.event.updated"
	CalendarEventDeletedType EventType = "calendar.event.deleted"
)

// CalendarEventCreated is published after a series or replacement event row
// has been committed.
type CalendarEventCreated struct {
	EventId   int64
	Title     string
	StartTime time.Time
	Recurring bool
}

// CalendarEventUpdated is published after a series patch or an
// occurrence-level override has been committed.
type CalendarEventUpdated struct {
	EventId    int64
	Occurrence *time.Time // nil for series-level updates
}

// CalendarEventDeleted is published after a series deletion or an
// occurrence-level suppression has been committed.
type CalendarEventDeleted struct {
	EventId    int64
	Occurrence *time.Time // nil for series-level deletes
}
