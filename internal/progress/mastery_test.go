package progress

import (
	"testing"
	"time"
)

func TestSeedLevels(t *testing.T) {
	levels := SeedLevels()
	if len(levels) != LevelsPerTopic {
		t.Fatalf("expected %d slots, got %d", LevelsPerTopic, len(levels))
	}
	for i, l := range levels {
		if l.Level != i+1 {
			t.Errorf("slot %d has level %d", i, l.Level)
		}
		if l.Completed || l.Score != 0 || l.Stars != 0 || l.Attempts != 0 {
			t.Errorf("slot %d not zeroed: %+v", i, l)
		}
	}
	if AllComplete(levels) {
		t.Error("fresh record must not be complete")
	}
}

func TestApplyCompletionRejectsOutOfRange(t *testing.T) {
	levels := SeedLevels()
	now := time.Now()
	for _, level := range []int{0, -1, 11, 100} {
		if err := ApplyCompletion(levels, level, 10, 30, 1, now); err == nil {
			t.Errorf("level %d should be rejected", level)
		}
	}
}

func TestApplyCompletionIdempotentStats(t *testing.T) {
	levels := SeedLevels()
	now := time.Now()

	if err := ApplyCompletion(levels, 3, 12, 40, 2, now); err != nil {
		t.Fatal(err)
	}
	if err := ApplyCompletion(levels, 3, 12, 40, 2, now); err != nil {
		t.Fatal(err)
	}

	entry := levels[2]
	if entry.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", entry.Attempts)
	}
	if !entry.Completed || entry.Score != 12 || entry.Stars != 2 {
		t.Errorf("repeat report changed stats: %+v", entry)
	}
}

func TestApplyCompletionMaxMerge(t *testing.T) {
	levels := SeedLevels()
	now := time.Now()

	if err := ApplyCompletion(levels, 1, 15, 20, 3, now); err != nil {
		t.Fatal(err)
	}
	// A worse retry must not lose the earlier best.
	if err := ApplyCompletion(levels, 1, 5, 90, 0, now); err != nil {
		t.Fatal(err)
	}

	entry := levels[0]
	if entry.Score != 15 {
		t.Errorf("score = %d, want 15 (max-merge)", entry.Score)
	}
	if entry.Stars != 3 {
		t.Errorf("stars = %d, want 3 (max-merge)", entry.Stars)
	}
	if entry.TimeSpent != 90 {
		t.Errorf("timeSpent = %d, want 90 (overwrite)", entry.TimeSpent)
	}
	if entry.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", entry.Attempts)
	}
}

func TestMasteryTransitionFiresOnce(t *testing.T) {
	levels := SeedLevels()
	now := time.Now()
	transitions := 0

	report := func(level, score int) {
		was := AllComplete(levels)
		if err := ApplyCompletion(levels, level, score, 30, 1, now); err != nil {
			t.Fatal(err)
		}
		if AllComplete(levels) && !was {
			transitions++
		}
	}

	for level := 1; level <= 9; level++ {
		report(level, 10)
	}
	if transitions != 0 {
		t.Fatalf("transition fired before all levels done")
	}
	if got := TotalScore(levels); got != 90 {
		t.Errorf("totalScore = %d, want 90", got)
	}

	report(10, 10)
	if transitions != 1 {
		t.Fatalf("transitions = %d after final level, want 1", transitions)
	}
	if got := TotalScore(levels); got != 100 {
		t.Errorf("totalScore = %d, want 100", got)
	}

	// Replaying a mastered topic only updates per-level stats.
	report(5, 12)
	if transitions != 1 {
		t.Fatalf("transitions = %d after replay, want 1", transitions)
	}
}

func TestAllCompleteNeedsEverySlot(t *testing.T) {
	levels := SeedLevels()
	now := time.Now()
	for level := 1; level <= LevelsPerTopic; level++ {
		if level != 7 {
			if err := ApplyCompletion(levels, level, 10, 10, 1, now); err != nil {
				t.Fatal(err)
			}
		}
	}
	if AllComplete(levels) {
		t.Error("nine of ten levels must not count as mastery")
	}
}
