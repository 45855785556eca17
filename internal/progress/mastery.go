package progress

import (
	"fmt"
	"time"
)

// SeedLevels returns the ten incomplete slots a fresh record starts with.
func SeedLevels() []LevelEntry {
	levels := make([]LevelEntry, LevelsPerTopic)
	for i := range levels {
		levels[i] = LevelEntry{Level: i + 1}
	}
	return levels
}

// AllComplete reports whether every level slot is completed. Callers that
// care about a mastery transition must evaluate it on the snapshot taken
// BEFORE ApplyCompletion mutates the slice, then again after.
func AllComplete(levels []LevelEntry) bool {
	if len(levels) < LevelsPerTopic {
		return false
	}
	for _, l := range levels {
		if !l.Completed {
			return false
		}
	}
	return true
}

// ApplyCompletion folds one completion report into the level slots.
// Score and stars are max-merged so a worse retry never loses progress;
// timeSpent is the last reported value and attempts always increments.
func ApplyCompletion(levels []LevelEntry, level, score, timeSpent, stars int, now time.Time) error {
	if level < 1 || level > LevelsPerTopic {
		return fmt.Errorf("level %d out of range [1,%d]", level, LevelsPerTopic)
	}

	entry := &levels[level-1]
	entry.Completed = true
	if score > entry.Score {
		entry.Score = score
	}
	if stars > entry.Stars {
		entry.Stars = stars
	}
	entry.TimeSpent = timeSpent
	entry.Attempts++
	entry.CompletedAt = &now

	return nil
}

// TotalScore sums the per-level best scores.
func TotalScore(levels []LevelEntry) int {
	total := 0
	for _, l := range levels {
		total += l.Score
	}
	return total
}
