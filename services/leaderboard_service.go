package services

import (
	"context"
	"errors"
	"fmt"

	"algoQuestAPI/internal/leaderboard"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaderboardService struct {
	db *pgxpool.Pool
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// Refresh recomputes the user's aggregate score, upserts their entry and
// re-ranks the entire table. Runs after every completion event. The re-rank
// happens outside the progress row lock; it may be momentarily stale across
// users but each pass writes a consistent dense ranking.
func (s *LeaderboardService) Refresh(ctx context.Context, userID uuid.UUID) error {
	var score int
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_score), 0) FROM progress WHERE user_id = $1
	`, userID).Scan(&score)
	if err != nil {
		return fmt.Errorf("failed to compute aggregate score: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO leaderboard (user_id, username, image_url, score, rank)
		SELECT id, username, NULLIF(image_url, ''), $2, 0 FROM users WHERE id = $1
		ON CONFLICT (user_id) DO UPDATE
		SET score = EXCLUDED.score, username = EXCLUDED.username, image_url = EXCLUDED.image_url
	`, userID, score)
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard entry: %w", err)
	}

	return s.rerankAll(ctx)
}

// rerankAll reads the whole table, assigns dense 1..N ranks and writes back
// only the ranks that moved.
func (s *LeaderboardService) rerankAll(ctx context.Context) error {
	rows, err := s.db.Query(ctx, `SELECT user_id, username, image_url, score, rank FROM leaderboard`)
	if err != nil {
		return fmt.Errorf("failed to read leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	oldRanks := make(map[uuid.UUID]int)
	for rows.Next() {
		entry := &leaderboard.Entry{}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.Score, &entry.Rank); err != nil {
			return fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		oldRanks[entry.UserID] = entry.Rank
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating leaderboard: %w", err)
	}

	leaderboard.AssignRanks(entries)

	batch := &pgx.Batch{}
	for _, entry := range entries {
		if oldRanks[entry.UserID] == entry.Rank {
			continue
		}
		batch.Queue(`UPDATE leaderboard SET rank = $2 WHERE user_id = $1`, entry.UserID, entry.Rank)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write ranks: %w", err)
	}

	return nil
}

// GetLeaderboard returns the top entries rank-ascending, plus the calling
// user's own position even when they are outside the window.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, clerkID string, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, username, image_url, score, rank
		FROM leaderboard
		ORDER BY rank ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	var userPosition *leaderboard.Entry
	for rows.Next() {
		entry := &leaderboard.Entry{}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.Score, &entry.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
		if entry.UserID == userID {
			userPosition = entry
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	if userPosition == nil {
		entry := &leaderboard.Entry{}
		err := s.db.QueryRow(ctx, `
			SELECT user_id, username, image_url, score, rank
			FROM leaderboard WHERE user_id = $1
		`, userID).Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.Score, &entry.Rank)
		if err == nil {
			userPosition = entry
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to fetch user position: %w", err)
		}
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboard`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   total,
	}, nil
}
