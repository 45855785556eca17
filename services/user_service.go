package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"algoQuestAPI/internal/streak"
	"algoQuestAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, clerk_id, email, username, first_name, last_name, image_url, email_verified,
	account_level, current_streak, best_streak, last_active_date, weekly_activity, completion_rate,
	redeemed_points, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var weekly []bool
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.AccountLevel,
		&u.CurrentStreak,
		&u.BestStreak,
		&u.LastActiveDate,
		&weekly,
		&u.CompletionRate,
		&u.RedeemedPoints,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(u.WeeklyActivity[:], weekly)
	return u, nil
}

// CreateUser registers a new player. Registration counts as the first active
// day: streak starts at 1 and the registration weekday is marked.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	now := time.Now()
	state := streak.State{}
	streak.Touch(&state, now)

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url,
		current_streak, best_streak, last_active_date, weekly_activity, completion_rate, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING ` + userColumns

	row := s.db.QueryRow(
		ctx,
		query,
		uuid.New().String(),
		req.ClerkID,
		req.Email,
		req.Username,
		req.FirstName,
		req.LastName,
		req.ImageURL,
		state.CurrentStreak,
		state.BestStreak,
		state.LastActiveDate,
		state.WeeklyActivity[:],
		state.CompletionRate,
		now,
		now,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// TouchStreak is called synchronously by the profile fetch flow before
// responding. It advances the daily streak and weekly-activity counters and
// persists only when something actually changed.
func (s *UserService) TouchStreak(ctx context.Context, u *user.User, now time.Time) (*user.User, error) {
	state := streak.State{
		CurrentStreak:  u.CurrentStreak,
		BestStreak:     u.BestStreak,
		LastActiveDate: u.LastActiveDate,
		WeeklyActivity: u.WeeklyActivity,
		CompletionRate: u.CompletionRate,
	}

	if !streak.Touch(&state, now) {
		return u, nil
	}

	query := `
	UPDATE users
	SET current_streak = $2, best_streak = $3, last_active_date = $4,
		weekly_activity = $5, completion_rate = $6, updated_at = NOW()
	WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query,
		u.ID,
		state.CurrentStreak,
		state.BestStreak,
		state.LastActiveDate,
		state.WeeklyActivity[:],
		state.CompletionRate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist streak: %w", err)
	}

	u.CurrentStreak = state.CurrentStreak
	u.BestStreak = state.BestStreak
	u.LastActiveDate = state.LastActiveDate
	u.WeeklyActivity = state.WeeklyActivity
	u.CompletionRate = state.CompletionRate

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID, req.Username, req.FirstName, req.LastName, req.ImageURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `
	UPDATE users
	SET email_verified = $2, updated_at = NOW()
	WHERE clerk_id = $1
	`

	_, err := s.db.Exec(ctx, query, clerkID, verified)
	return err
}

// GetUserIDByClerkID resolves the internal UUID behind a Clerk identity.
func (s *UserService) GetUserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}
