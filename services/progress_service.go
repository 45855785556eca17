package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"algoQuestAPI/internal/progress"
	"algoQuestAPI/middleware"
	"algoQuestAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProgressService struct {
	db          *pgxpool.Pool
	rewards     *RewardService
	leaderboard *LeaderboardService
	dispatcher  *NotificationDispatcher
}

func NewProgressService(db *pgxpool.Pool, rewards *RewardService, leaderboard *LeaderboardService) *ProgressService {
	return &ProgressService{db: db, rewards: rewards, leaderboard: leaderboard}
}

// SetDispatcher wires the push dispatcher. Optional: without it level-up and
// reward pushes are skipped.
func (s *ProgressService) SetDispatcher(d *NotificationDispatcher) {
	s.dispatcher = d
}

// RecordCompletion ingests one "level completed" event and runs the whole
// pipeline: progress write, conditional account level-up, reward evaluation,
// leaderboard refresh. Only a failure of the progress write itself is fatal
// to the caller; the later steps are best-effort and recompute from scratch
// on the next event anyway.
func (s *ProgressService) RecordCompletion(ctx context.Context, clerkID string, req *progress.CompleteLevelRequest) (*progress.Record, error) {
	if strings.TrimSpace(req.TopicID) == "" {
		return nil, fmt.Errorf("topicId is required")
	}
	if req.Level < 1 || req.Level > progress.LevelsPerTopic {
		return nil, fmt.Errorf("level must be between 1 and %d", progress.LevelsPerTopic)
	}
	if req.Score < 0 || req.TimeSpent < 0 {
		return nil, fmt.Errorf("score and timeSpent must be non-negative")
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	record, mastered, err := s.applyCompletion(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	middleware.RecordLevelCompletion(req.TopicID)

	if mastered {
		middleware.RecordTopicMastery()
		if err := s.levelUpAccount(ctx, userID, req.TopicID); err != nil {
			log.Printf("RecordCompletion: account level-up failed for user %s: %v", userID, err)
		}
	}

	newRewards, err := s.rewards.Evaluate(ctx, userID)
	if err != nil {
		log.Printf("RecordCompletion: reward evaluation failed for user %s: %v", userID, err)
	}

	if err := s.leaderboard.Refresh(ctx, userID); err != nil {
		log.Printf("RecordCompletion: leaderboard refresh failed for user %s: %v", userID, err)
	}

	if s.dispatcher != nil {
		for _, tier := range newRewards {
			s.dispatcher.PushRewardUnlocked(userID, tier)
		}
	}

	return record, nil
}

// applyCompletion is the atomic read-modify-write against the progress row.
// The record is locked for the duration so interleaved reports for the same
// (user, topic) cannot lose attempts or the score max-merge. The mastery
// transition is decided here, from the snapshot read before mutation.
func (s *ProgressService) applyCompletion(ctx context.Context, userID uuid.UUID, req *progress.CompleteLevelRequest) (*progress.Record, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	seeded, err := json.Marshal(progress.SeedLevels())
	if err != nil {
		return nil, false, fmt.Errorf("failed to seed levels: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO progress (id, user_id, topic_id, levels, total_score, highest_level, last_played)
		VALUES ($1, $2, $3, $4, 0, 0, NOW())
		ON CONFLICT (user_id, topic_id) DO NOTHING
	`, uuid.New(), userID, req.TopicID, seeded)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create progress record: %w", err)
	}

	record := &progress.Record{}
	var rawLevels []byte
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, topic_id, levels, total_score, highest_level, last_played
		FROM progress
		WHERE user_id = $1 AND topic_id = $2
		FOR UPDATE
	`, userID, req.TopicID).Scan(
		&record.ID,
		&record.UserID,
		&record.TopicID,
		&rawLevels,
		&record.TotalScore,
		&record.HighestLevel,
		&record.LastPlayed,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load progress record: %w", err)
	}

	if err := json.Unmarshal(rawLevels, &record.Levels); err != nil {
		return nil, false, fmt.Errorf("failed to decode level entries: %w", err)
	}

	// Snapshot BEFORE the write. Checking afterwards only would make the
	// transition undetectable.
	wasComplete := progress.AllComplete(record.Levels)

	now := time.Now()
	stars := utils.StarRating(req.Score, req.TimeSpent)
	if err := progress.ApplyCompletion(record.Levels, req.Level, req.Score, req.TimeSpent, stars, now); err != nil {
		return nil, false, err
	}

	record.TotalScore = progress.TotalScore(record.Levels)
	if req.Level > record.HighestLevel {
		record.HighestLevel = req.Level
	}
	record.LastPlayed = now

	updatedLevels, err := json.Marshal(record.Levels)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode level entries: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE progress
		SET levels = $2, total_score = $3, highest_level = $4, last_played = $5
		WHERE id = $1
	`, record.ID, updatedLevels, record.TotalScore, record.HighestLevel, record.LastPlayed)
	if err != nil {
		return nil, false, fmt.Errorf("failed to persist progress record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit progress record: %w", err)
	}

	isComplete := progress.AllComplete(record.Levels)
	return record, isComplete && !wasComplete, nil
}

// levelUpAccount bumps the account level by exactly one. Fired only on a
// mastery transition, so re-reporting a mastered topic never reaches here.
func (s *ProgressService) levelUpAccount(ctx context.Context, userID uuid.UUID, topicID string) error {
	var newLevel int
	err := s.db.QueryRow(ctx, `
		UPDATE users
		SET account_level = account_level + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING account_level
	`, userID).Scan(&newLevel)
	if err != nil {
		return fmt.Errorf("failed to increment account level: %w", err)
	}

	log.Printf("User %s mastered topic %q, account level now %d", userID, topicID, newLevel)

	if s.dispatcher != nil {
		s.dispatcher.PushLevelUp(userID, topicID, newLevel)
	}

	return nil
}

// GetProgress returns the record for one topic. A topic never played yet
// comes back as a fully seeded zeroed record, not an error.
func (s *ProgressService) GetProgress(ctx context.Context, clerkID string, topicID string) (*progress.Record, error) {
	if strings.TrimSpace(topicID) == "" {
		return nil, fmt.Errorf("topicId is required")
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	record := &progress.Record{}
	var rawLevels []byte
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, topic_id, levels, total_score, highest_level, last_played
		FROM progress
		WHERE user_id = $1 AND topic_id = $2
	`, userID, topicID).Scan(
		&record.ID,
		&record.UserID,
		&record.TopicID,
		&rawLevels,
		&record.TotalScore,
		&record.HighestLevel,
		&record.LastPlayed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &progress.Record{
				UserID:  userID,
				TopicID: topicID,
				Levels:  progress.SeedLevels(),
			}, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	if err := json.Unmarshal(rawLevels, &record.Levels); err != nil {
		return nil, fmt.Errorf("failed to decode level entries: %w", err)
	}

	return record, nil
}

func (s *ProgressService) GetAllProgress(ctx context.Context, clerkID string) (*progress.AllProgressResponse, error) {
	var userID uuid.UUID
	var accountLevel int
	err := s.db.QueryRow(ctx, `SELECT id, account_level FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &accountLevel)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, topic_id, levels, total_score, highest_level, last_played
		FROM progress
		WHERE user_id = $1
		ORDER BY last_played DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress records: %w", err)
	}
	defer rows.Close()

	records := []*progress.Record{}
	for rows.Next() {
		record := &progress.Record{}
		var rawLevels []byte
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.TopicID,
			&rawLevels,
			&record.TotalScore,
			&record.HighestLevel,
			&record.LastPlayed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		if err := json.Unmarshal(rawLevels, &record.Levels); err != nil {
			return nil, fmt.Errorf("failed to decode level entries: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress records: %w", err)
	}

	return &progress.AllProgressResponse{
		Records:      records,
		AccountLevel: accountLevel,
	}, nil
}
