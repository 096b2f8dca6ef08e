package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyEvent(start time.Time, interval int, until *time.Time) Event {
	return Event{
		Id:        1,
		Title:     "Piano lesson",
		StartTime: start,
		Recurrence: &Recurrence{
			Frequency: FrequencyWeekly,
			Interval:  interval,
			Until:     until,
		},
	}
}

func monthlyEvent(start time.Time, interval int, until *time.Time) Event {
	return Event{
		Id:        2,
		Title:     "Rent due",
		StartTime: start,
		Recurrence: &Recurrence{
			Frequency: FrequencyMonthly,
			Interval:  interval,
			Until:     until,
		},
	}
}

func startTimes(occurrences []Occurrence) []time.Time {
	times := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		times = append(times, o.StartTime)
	}
	return times
}

func TestExpand_Weekly(t *testing.T) {
	t.Run("window fully after the series start returns only in-window instances", func(t *testing.T) {
		// given
		event := weeklyEvent(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.January, 21, 23, 59, 59, 0, time.UTC)

		// when
		occurrences := Expand(event, from, to, nil)

		// then
		assert.Equal(t, []time.Time{
			time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("series start inside the window is the first instance", func(t *testing.T) {
		event := weeklyEvent(time.Date(2024, time.March, 6, 18, 30, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.March, 6, 18, 30, 0, 0, time.UTC),
			time.Date(2024, time.March, 13, 18, 30, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("interval of two skips every other week and stays anchor-aligned", func(t *testing.T) {
		event := weeklyEvent(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), 2, nil)
		// The window opens one week after the anchor, between two instances.
		from := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 29, 10, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("until is inclusive of an instance starting exactly on it", func(t *testing.T) {
		until := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
		event := weeklyEvent(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), 1, &until)
		from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("window entirely before the series start yields nothing", func(t *testing.T) {
		event := weeklyEvent(time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Empty(t, occurrences)
	})

	t.Run("suppressed instance is absent while its neighbours remain", func(t *testing.T) {
		event := weeklyEvent(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.January, 21, 0, 0, 0, 0, time.UTC)
		skip := map[int64]struct{}{
			time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC).Unix(): {},
		}

		occurrences := Expand(event, from, to, skip)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("open-ended series over a huge window stops at the generation cap", func(t *testing.T) {
		event := weeklyEvent(time.Date(2020, time.January, 6, 8, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(50, 0, 0)

		occurrences := Expand(event, from, to, nil)

		require.Len(t, occurrences, maxGeneratedOccurrences)
		last := occurrences[len(occurrences)-1].StartTime
		expectedLast := event.StartTime.Add(time.Duration(maxGeneratedOccurrences-1) * 7 * 24 * time.Hour)
		assert.Equal(t, expectedLast, last)
	})

	t.Run("skipped instances still consume generation slots", func(t *testing.T) {
		// given a series where the first instance inside the window is
		// suppressed, the cap still counts it, so the horizon does not move.
		event := weeklyEvent(time.Date(2020, time.January, 6, 8, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(50, 0, 0)
		skip := map[int64]struct{}{event.StartTime.Unix(): {}}

		// when
		occurrences := Expand(event, from, to, skip)

		// then one fewer instance, same final horizon
		require.Len(t, occurrences, maxGeneratedOccurrences-1)
		expectedLast := event.StartTime.Add(time.Duration(maxGeneratedOccurrences-1) * 7 * 24 * time.Hour)
		assert.Equal(t, expectedLast, occurrences[len(occurrences)-1].StartTime)
	})

	t.Run("occurrence ids embed the series id and the instance start", func(t *testing.T) {
		event := weeklyEvent(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		require.Len(t, occurrences, 1)
		assert.Equal(t, "1:2024-01-01T10:00:00Z", occurrences[0].OccurrenceId)
	})

	t.Run("end time keeps the series duration on every instance", func(t *testing.T) {
		end := time.Date(2024, time.January, 1, 11, 30, 0, 0, time.UTC)
		event := weeklyEvent(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), 1, nil)
		event.EndTime = &end

		occurrences := Expand(event,
			time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 8, 23, 0, 0, 0, time.UTC), nil)

		require.Len(t, occurrences, 1)
		require.NotNil(t, occurrences[0].EndTime)
		assert.Equal(t, time.Date(2024, time.January, 8, 11, 30, 0, 0, time.UTC), *occurrences[0].EndTime)
	})
}

func TestExpand_Monthly(t *testing.T) {
	t.Run("day 31 clamps to the last day of shorter months", func(t *testing.T) {
		// given a monthly series anchored on January 31st
		event := monthlyEvent(time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.April, 30, 23, 59, 59, 0, time.UTC)

		// when
		occurrences := Expand(event, from, to, nil)

		// then February clamps to the 29th (leap year), April to the 30th
		assert.Equal(t, []time.Time{
			time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 31, 9, 0, 0, 0, time.UTC),
			time.Date(2024, time.April, 30, 9, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("clamping does not shift later months off the anchor day", func(t *testing.T) {
		event := monthlyEvent(time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		// 2025 is not a leap year: February clamps to the 28th, March is back
		// on the 31st.
		assert.Equal(t, []time.Time{
			time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 31, 9, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("interval of three emits quarterly instances", func(t *testing.T) {
		event := monthlyEvent(time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), 3, nil)
		from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2024, time.October, 15, 12, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("window starting mid-series aligns to the anchor's cycle", func(t *testing.T) {
		// Every second month from January: Jan, Mar, May... A window opening
		// in April must produce May, not April.
		event := monthlyEvent(time.Date(2024, time.January, 10, 7, 0, 0, 0, time.UTC), 2, nil)
		from := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.May, 10, 7, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("until cuts the series even when the window extends past it", func(t *testing.T) {
		until := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
		event := monthlyEvent(time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), 1, &until)
		from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

		occurrences := Expand(event, from, to, nil)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})

	t.Run("suppressed clamped instance is excluded", func(t *testing.T) {
		event := monthlyEvent(time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC), 1, nil)
		from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)
		skip := map[int64]struct{}{
			time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC).Unix(): {},
		}

		occurrences := Expand(event, from, to, skip)

		assert.Equal(t, []time.Time{
			time.Date(2024, time.March, 31, 9, 0, 0, 0, time.UTC),
		}, startTimes(occurrences))
	})
}

func TestExpand_NonRecurring(t *testing.T) {
	event := Event{Id: 3, Title: "Dentist", StartTime: time.Date(2024, time.May, 2, 14, 0, 0, 0, time.UTC)}

	occurrences := Expand(event,
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), nil)

	assert.Empty(t, occurrences)
}

func TestOccurrenceKey_RoundTrip(t *testing.T) {
	startAt := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	key := OccurrenceKey(42, startAt)
	assert.Equal(t, "42:2024-01-08T10:00:00Z", key)

	seriesId, parsed, err := ParseOccurrenceKey(key)
	require.NoError(t, err)
	assert.Equal(t, int64(42), seriesId)
	assert.True(t, parsed.Equal(startAt))
}

func TestParseOccurrenceKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "42", "abc:2024-01-08T10:00:00Z", "42:not-a-time"} {
		_, _, err := ParseOccurrenceKey(key)
		assert.Error(t, err, "key %q", key)
	}
}
