package streak

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 5, 0, time.UTC)
}

func TestTouchFirstEver(t *testing.T) {
	s := &State{}
	if !Touch(s, date(2024, time.March, 4)) {
		t.Fatal("first touch must report a change")
	}
	if s.CurrentStreak != 1 || s.BestStreak != 1 {
		t.Errorf("streak = %d/%d, want 1/1", s.CurrentStreak, s.BestStreak)
	}
	if s.LastActiveDate == nil || s.LastActiveDate.Hour() != 0 {
		t.Error("lastActiveDate must be normalized to midnight")
	}
}

func TestTouchSameDayNoOp(t *testing.T) {
	s := &State{}
	day := date(2024, time.March, 4)
	Touch(s, day)
	if Touch(s, day.Add(6*time.Hour)) {
		t.Error("second touch on the same calendar day must not change anything")
	}
	if s.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", s.CurrentStreak)
	}
}

func TestTouchConsecutiveDays(t *testing.T) {
	s := &State{}
	day := date(2024, time.March, 4)
	for i := 0; i < 5; i++ {
		Touch(s, day.AddDate(0, 0, i))
	}
	if s.CurrentStreak != 5 || s.BestStreak != 5 {
		t.Errorf("streak = %d/%d, want 5/5", s.CurrentStreak, s.BestStreak)
	}
}

func TestTouchGapResets(t *testing.T) {
	s := &State{}
	day := date(2024, time.March, 4)
	Touch(s, day)
	Touch(s, day.AddDate(0, 0, 1))
	Touch(s, day.AddDate(0, 0, 2))

	// Two missed days.
	Touch(s, day.AddDate(0, 0, 5))
	if s.CurrentStreak != 1 {
		t.Errorf("streak after gap = %d, want 1", s.CurrentStreak)
	}
	if s.BestStreak != 3 {
		t.Errorf("bestStreak = %d, want 3", s.BestStreak)
	}
}

func TestTouchZeroStreakRecovers(t *testing.T) {
	yesterday := date(2024, time.March, 3)
	s := &State{CurrentStreak: 0, LastActiveDate: &yesterday}
	Touch(s, date(2024, time.March, 4))
	if s.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", s.CurrentStreak)
	}
}

func TestWeeklyActivityAccumulates(t *testing.T) {
	s := &State{}
	// 2024-03-04 is a Monday.
	monday := date(2024, time.March, 4)
	Touch(s, monday)
	Touch(s, monday.AddDate(0, 0, 1))
	Touch(s, monday.AddDate(0, 0, 2))

	if !s.WeeklyActivity[time.Monday] || !s.WeeklyActivity[time.Tuesday] || !s.WeeklyActivity[time.Wednesday] {
		t.Errorf("weekday flags not set: %v", s.WeeklyActivity)
	}
	if s.WeeklyActivity[time.Sunday] {
		t.Error("untouched weekday flagged")
	}
	if s.CompletionRate != 43 {
		t.Errorf("completionRate = %d, want 43 (3/7)", s.CompletionRate)
	}

	// Flags roll over week boundaries: the next Monday resets the streak
	// but must not re-count the weekday.
	Touch(s, monday.AddDate(0, 0, 7))
	if s.CompletionRate != 43 {
		t.Errorf("completionRate after rollover = %d, want 43", s.CompletionRate)
	}
}

func TestTouchAcrossClockShift(t *testing.T) {
	// US eastern time jumps from -05 to -04 on 2024-03-10, so the days
	// around the shift are not 24 wall-clock hours apart.
	winter := time.FixedZone("EST", -5*3600)
	summer := time.FixedZone("EDT", -4*3600)

	// Skipping the shift day entirely is a two-day gap and resets the
	// streak, even though only 47 hours separate the midnights.
	last := time.Date(2024, time.March, 9, 0, 0, 0, 0, winter)
	s := &State{CurrentStreak: 3, BestStreak: 3, LastActiveDate: &last}
	Touch(s, time.Date(2024, time.March, 11, 12, 0, 0, 0, summer))
	if s.CurrentStreak != 1 {
		t.Errorf("streak = %d after skipping a calendar day, want reset to 1", s.CurrentStreak)
	}
	if s.BestStreak != 3 {
		t.Errorf("bestStreak = %d, want 3", s.BestStreak)
	}

	// Consecutive days across the shift are 23 hours apart and still
	// extend the streak.
	last = time.Date(2024, time.March, 10, 0, 0, 0, 0, winter)
	s = &State{CurrentStreak: 1, BestStreak: 1, LastActiveDate: &last}
	Touch(s, time.Date(2024, time.March, 11, 8, 0, 0, 0, summer))
	if s.CurrentStreak != 2 {
		t.Errorf("streak = %d across clock shift, want 2", s.CurrentStreak)
	}
}

func TestCompletionRateBounds(t *testing.T) {
	if got := CompletionRate([7]bool{}); got != 0 {
		t.Errorf("empty week rate = %d, want 0", got)
	}
	if got := CompletionRate([7]bool{true, true, true, true, true, true, true}); got != 100 {
		t.Errorf("full week rate = %d, want 100", got)
	}
}
