package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"algoQuestAPI/internal/reward"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RewardService struct {
	db *pgxpool.Pool
}

func NewRewardService(db *pgxpool.Pool) *RewardService {
	return &RewardService{db: db}
}

// totalScore recomputes the user's aggregate from the progress rows every
// time. No cached counter to drift.
func (s *RewardService) totalScore(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var total int
	var row pgx.Row
	query := `SELECT COALESCE(SUM(total_score), 0) FROM progress WHERE user_id = $1`
	if tx != nil {
		row = tx.QueryRow(ctx, query, userID)
	} else {
		row = s.db.QueryRow(ctx, query, userID)
	}
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum progress scores: %w", err)
	}
	return total, nil
}

// Evaluate unlocks every tier the user's aggregate score now meets. Runs
// after each completion event; already-unlocked tiers are left alone, so the
// rewards set only grows. Returns the tiers unlocked by this call.
func (s *RewardService) Evaluate(ctx context.Context, userID uuid.UUID) ([]reward.Tier, error) {
	total, err := s.totalScore(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `SELECT reward_id FROM user_rewards WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unlocked rewards: %w", err)
	}
	defer rows.Close()

	unlocked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		unlocked[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewards: %w", err)
	}

	newTiers := reward.NewlyUnlocked(total, unlocked)
	for _, tier := range newTiers {
		_, err := s.db.Exec(ctx, `
			INSERT INTO user_rewards (id, user_id, reward_id, unlocked_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (user_id, reward_id) DO NOTHING
		`, uuid.New(), userID, tier.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to unlock reward %s: %w", tier.ID, err)
		}
		log.Printf("User %s unlocked reward %q at score %d", userID, tier.ID, total)
	}

	return newTiers, nil
}

// Redeem spends available points (total score minus points already spent) on
// an unlocked tier. The whole check-and-spend runs in one transaction with
// the user row locked, so the same points cannot be redeemed twice.
func (s *RewardService) Redeem(ctx context.Context, clerkID string, rewardID string) error {
	tier, ok := reward.TierByID(rewardID)
	if !ok {
		return reward.ErrNotUnlocked
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	var redeemedPoints int
	err = tx.QueryRow(ctx, `
		SELECT id, redeemed_points FROM users WHERE clerk_id = $1 FOR UPDATE
	`, clerkID).Scan(&userID, &redeemedPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	var unlockedAt time.Time
	var redeemedAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT unlocked_at, redeemed_at FROM user_rewards
		WHERE user_id = $1 AND reward_id = $2
	`, userID, rewardID).Scan(&unlockedAt, &redeemedAt)

	unlockedRow := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check reward: %w", err)
	}

	total, err := s.totalScore(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := reward.CanRedeem(tier, total, redeemedPoints, unlockedRow, redeemedAt != nil); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_rewards SET redeemed_at = NOW()
		WHERE user_id = $1 AND reward_id = $2
	`, userID, rewardID)
	if err != nil {
		return fmt.Errorf("failed to mark reward redeemed: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET redeemed_points = redeemed_points + $2, updated_at = NOW()
		WHERE id = $1
	`, userID, tier.ScoreThreshold)
	if err != nil {
		return fmt.Errorf("failed to spend points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit redemption: %w", err)
	}

	log.Printf("User %s redeemed reward %q for %d points", userID, rewardID, tier.ScoreThreshold)
	return nil
}

// GetOverview is the rewards read view: every tier with its unlock and
// redemption status plus the spendable balance.
func (s *RewardService) GetOverview(ctx context.Context, clerkID string) (*reward.Overview, error) {
	var userID uuid.UUID
	var redeemedPoints int
	err := s.db.QueryRow(ctx, `
		SELECT id, redeemed_points FROM users WHERE clerk_id = $1
	`, clerkID).Scan(&userID, &redeemedPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	total, err := s.totalScore(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT reward_id, unlocked_at, redeemed_at FROM user_rewards WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rewards: %w", err)
	}
	defer rows.Close()

	type unlockInfo struct {
		unlockedAt time.Time
		redeemedAt *time.Time
	}
	unlocks := make(map[string]unlockInfo)
	for rows.Next() {
		var id string
		var info unlockInfo
		if err := rows.Scan(&id, &info.unlockedAt, &info.redeemedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		unlocks[id] = info
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewards: %w", err)
	}

	overview := &reward.Overview{
		TotalScore:      total,
		RedeemedPoints:  redeemedPoints,
		AvailablePoints: total - redeemedPoints,
	}
	for _, tier := range reward.Tiers {
		status := &reward.Status{Tier: tier}
		if info, ok := unlocks[tier.ID]; ok {
			status.Unlocked = true
			unlockedAt := info.unlockedAt
			status.UnlockedAt = &unlockedAt
			if info.redeemedAt != nil {
				status.Redeemed = true
				status.RedeemedAt = info.redeemedAt
			}
		}
		overview.Tiers = append(overview.Tiers, status)
	}

	return overview, nil
}
