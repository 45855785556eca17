package leaderboard

import (
	"sort"

	"github.com/google/uuid"
)

type Entry struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	ImageURL *string   `json:"image_url"`
	Score    int       `json:"score"`
	Rank     int       `json:"rank"`
}

type Leaderboard struct {
	Entries      []*Entry `json:"entries"`
	UserPosition *Entry   `json:"user_position"`
	TotalUsers   int      `json:"total_users"`
}

// AssignRanks sorts entries by score descending and rewrites every rank as a
// dense 1..N sequence. Ties break on user ID so repeated recomputation yields
// the same ordering.
func AssignRanks(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID.String() < entries[j].UserID.String()
	})

	for i, e := range entries {
		e.Rank = i + 1
	}
}
