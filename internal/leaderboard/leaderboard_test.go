package leaderboard

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func TestAssignRanksDense(t *testing.T) {
	entries := []*Entry{
		{UserID: uuid.New(), Username: "a", Score: 100},
		{UserID: uuid.New(), Username: "b", Score: 300},
		{UserID: uuid.New(), Username: "c", Score: 200},
		{UserID: uuid.New(), Username: "d", Score: 200},
		{UserID: uuid.New(), Username: "e", Score: 0},
	}

	AssignRanks(entries)

	seen := make(map[int]bool)
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
		if seen[e.Rank] {
			t.Errorf("duplicate rank %d", e.Rank)
		}
		seen[e.Rank] = true
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Errorf("scores not descending at rank %d", i+1)
		}
	}

	if entries[0].Username != "b" || entries[len(entries)-1].Username != "e" {
		t.Errorf("expected b first and e last, got %s..%s", entries[0].Username, entries[len(entries)-1].Username)
	}
}

func TestAssignRanksTieBreakConsistent(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	build := func() []*Entry {
		entries := []*Entry{
			{UserID: ids[0], Score: 50},
			{UserID: ids[1], Score: 50},
			{UserID: ids[2], Score: 50},
		}
		rand.Shuffle(len(entries), func(i, j int) {
			entries[i], entries[j] = entries[j], entries[i]
		})
		return entries
	}

	first := build()
	AssignRanks(first)
	want := make(map[uuid.UUID]int)
	for _, e := range first {
		want[e.UserID] = e.Rank
	}

	// Any later pass over the same scores must reproduce the same ranks.
	for trial := 0; trial < 10; trial++ {
		entries := build()
		AssignRanks(entries)
		for _, e := range entries {
			if e.Rank != want[e.UserID] {
				t.Fatalf("tie-break not stable: user %s rank %d, want %d", e.UserID, e.Rank, want[e.UserID])
			}
		}
	}
}

func TestAssignRanksEmpty(t *testing.T) {
	AssignRanks(nil)
	AssignRanks([]*Entry{})
}
