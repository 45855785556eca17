package streak

import (
	"math"
	"time"
)

// State is the streak slice of a user profile. WeeklyActivity is indexed
// Sunday=0..Saturday=6 and is a rolling "ever active on this weekday" flag
// set; it is not cleared at week boundaries.
type State struct {
	CurrentStreak  int
	BestStreak     int
	LastActiveDate *time.Time
	WeeklyActivity [7]bool
	CompletionRate int
}

// Touch advances the streak for a login or profile fetch on the given day.
// It is idempotent within one calendar day. Returns true if any field
// changed and the state needs persisting.
func Touch(s *State, today time.Time) bool {
	day := midnight(today)
	changed := false

	switch {
	case s.LastActiveDate == nil || s.CurrentStreak == 0:
		s.CurrentStreak = 1
		changed = true
	default:
		gap := dayGap(*s.LastActiveDate, day)
		switch {
		case gap == 0:
			// already counted today
		case gap == 1:
			s.CurrentStreak++
			changed = true
		default:
			s.CurrentStreak = 1
			changed = true
		}
	}

	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
		changed = true
	}

	if s.LastActiveDate == nil || !midnight(*s.LastActiveDate).Equal(day) {
		s.LastActiveDate = &day
		changed = true
	}

	weekday := int(day.Weekday())
	if !s.WeeklyActivity[weekday] {
		s.WeeklyActivity[weekday] = true
		changed = true
	}

	if rate := CompletionRate(s.WeeklyActivity); rate != s.CompletionRate {
		s.CompletionRate = rate
		changed = true
	}

	return changed
}

// CompletionRate is the percentage of weekdays ever active, 0-100.
func CompletionRate(week [7]bool) int {
	active := 0
	for _, day := range week {
		if day {
			active++
		}
	}
	return int(math.Round(float64(active) / 7 * 100))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayGap counts whole calendar days between two moments. Both dates are
// rebuilt in UTC from their components; subtracting wall-clock midnights
// directly undercounts across a DST transition, where a day is 23 or 25
// hours long.
func dayGap(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
