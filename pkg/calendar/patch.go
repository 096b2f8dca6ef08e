package calendar

import (
	"time"

	"github.com/hearthboard/hearthboard/pkg/tag"
)

// Optional wraps a patch field so that "not supplied" and "supplied with the
// zero value" stay distinguishable. Only fields with Set true are applied.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// EventPatch is a sparse field-level update: unset fields leave the stored
// row untouched. PersonIds, when set, replaces the whole association set.
type EventPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Location    Optional[string]
	StartTime   Optional[time.Time]
	EndTime     Optional[*time.Time]
	AllDay      Optional[bool]
	TagId       Optional[*int]
	Recurrence  Optional[*Recurrence]
	PersonIds   Optional[[]int]
}

func (p EventPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Location.Set &&
		!p.StartTime.Set && !p.EndTime.Set && !p.AllDay.Set &&
		!p.TagId.Set && !p.Recurrence.Set && !p.PersonIds.Set
}

// applyTo overlays the patch on a snapshot of the event, used when deriving
// a standalone replacement from a series template.
func (p EventPatch) applyTo(e Event) Event {
	if p.Title.Set {
		e.Title = p.Title.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Value
	}
	if p.Location.Set {
		e.Location = p.Location.Value
	}
	if p.StartTime.Set {
		e.StartTime = p.StartTime.Value
	}
	if p.EndTime.Set {
		e.EndTime = p.EndTime.Value
	}
	if p.AllDay.Set {
		e.AllDay = p.AllDay.Value
	}
	if p.TagId.Set {
		if p.TagId.Value == nil {
			e.Tag = nil
		} else {
			e.Tag = &tag.Tag{Id: *p.TagId.Value}
		}
	}
	return e
}
