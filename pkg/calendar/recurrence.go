package calendar

import "time"

// maxGeneratedOccurrences caps the expansion loop for open-ended series.
// Skipped candidates still consume budget slots; the loop counter advances
// whether or not a candidate is emitted.
const maxGeneratedOccurrences = 600

// Expand materializes the ordered occurrences of a recurring event inside
// [from, to]. skip holds the Unix seconds of suppressed occurrence starts
// (storage keeps second precision). Expand is pure: it reads only its
// arguments and can be called concurrently without coordination.
// Non-recurring events must not be passed here; callers emit those directly.
func Expand(base Event, from, to time.Time, skip map[int64]struct{}) []Occurrence {
	if base.Recurrence == nil {
		return nil
	}
	switch base.Recurrence.Frequency {
	case FrequencyWeekly:
		return expandWeekly(base, from, to, skip)
	case FrequencyMonthly:
		return expandMonthly(base, from, to, skip)
	}
	return nil
}

func expandWeekly(base Event, from, to time.Time, skip map[int64]struct{}) []Occurrence {
	r := base.Recurrence
	step := time.Duration(r.Interval) * 7 * 24 * time.Hour

	// Align the first candidate at or after max(startTime, from) by adding
	// whole steps from the series anchor, keeping weekday and time-of-day.
	candidate := base.StartTime
	if from.After(candidate) {
		diff := from.Sub(candidate)
		steps := diff / step
		if diff%step != 0 {
			steps++
		}
		candidate = candidate.Add(steps * step)
	}

	var occurrences []Occurrence
	for i := 0; i < maxGeneratedOccurrences; i++ {
		if candidate.After(to) {
			break
		}
		if r.Until != nil && candidate.After(*r.Until) {
			break
		}
		if _, skipped := skip[candidate.Unix()]; !skipped {
			occurrences = append(occurrences, occurrenceOf(base, candidate))
		}
		candidate = candidate.Add(step)
	}
	return occurrences
}

func expandMonthly(base Event, from, to time.Time, skip map[int64]struct{}) []Occurrence {
	r := base.Recurrence
	anchor := base.StartTime.UTC()
	dayOfMonth := anchor.Day()

	// Jump near the window start by whole-month offsets before iterating.
	months := 0
	if from.After(anchor) {
		fromUTC := from.UTC()
		months = (fromUTC.Year()-anchor.Year())*12 + int(fromUTC.Month()) - int(anchor.Month())
		months -= months % r.Interval
		if months < 0 {
			months = 0
		}
	}

	var occurrences []Occurrence
	for i := 0; i < maxGeneratedOccurrences; i++ {
		candidate := monthlyCandidate(anchor, months, dayOfMonth)
		if candidate.After(to) {
			break
		}
		if r.Until != nil && candidate.After(*r.Until) {
			break
		}
		if !candidate.Before(from) && !candidate.Before(base.StartTime) {
			if _, skipped := skip[candidate.Unix()]; !skipped {
				occurrences = append(occurrences, occurrenceOf(base, candidate))
			}
		}
		months += r.Interval
	}
	return occurrences
}

// monthlyCandidate returns the instance that falls the given number of months
// after the anchor, clamping the target day to the last day of shorter months
// and keeping the anchor's time-of-day.
func monthlyCandidate(anchor time.Time, months int, dayOfMonth int) time.Time {
	year := anchor.Year()
	month := int(anchor.Month()) - 1 + months
	year += month / 12
	month = month % 12

	day := dayOfMonth
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
