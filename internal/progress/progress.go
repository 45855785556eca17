package progress

import (
	"time"

	"github.com/google/uuid"
)

// LevelsPerTopic is fixed across the whole game catalog: every topic ships
// exactly ten levels.
const LevelsPerTopic = 10

type LevelEntry struct {
	Level       int        `json:"level"`
	Completed   bool       `json:"completed"`
	Score       int        `json:"score"`
	TimeSpent   int        `json:"time_spent"`
	Attempts    int        `json:"attempts"`
	Stars       int        `json:"stars"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Record struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	TopicID      string       `json:"topic_id"`
	Levels       []LevelEntry `json:"levels"`
	TotalScore   int          `json:"total_score"`
	HighestLevel int          `json:"highest_level"`
	LastPlayed   time.Time    `json:"last_played"`
}

type CompleteLevelRequest struct {
	TopicID   string `json:"topicId"`
	Level     int    `json:"level"`
	Score     int    `json:"score"`
	TimeSpent int    `json:"timeSpent"`
}

type AllProgressResponse struct {
	Records      []*Record `json:"records"`
	AccountLevel int       `json:"account_level"`
}
