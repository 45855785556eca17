package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"algoQuestAPI/internal/progress"
	"algoQuestAPI/internal/reward"
	"algoQuestAPI/internal/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database-backed test")
	}

	db, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, svc *UserService) *user.User {
	clerkID := fmt.Sprintf("user_test_%d", time.Now().UnixNano())
	u, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     fmt.Sprintf("test+%s@example.com", clerkID),
		Username:  clerkID,
		FirstName: "Test",
		LastName:  "Player",
	})
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

func TestCompletionPipeline(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	userSvc := NewUserService(db)
	rewardSvc := NewRewardService(db)
	boardSvc := NewLeaderboardService(db)
	progressSvc := NewProgressService(db, rewardSvc, boardSvc)

	u := createTestUser(t, userSvc)
	defer userSvc.DeleteUserByClerkID(context.Background(), u.ClerkID)

	ctx := context.Background()

	// Registration seeds the streak.
	if u.CurrentStreak != 1 {
		t.Errorf("new user streak = %d, want 1", u.CurrentStreak)
	}

	// Levels 1..9 leave the account level alone.
	for level := 1; level <= 9; level++ {
		_, err := progressSvc.RecordCompletion(ctx, u.ClerkID, &progress.CompleteLevelRequest{
			TopicID: "bit-manipulation", Level: level, Score: 10, TimeSpent: 30,
		})
		if err != nil {
			t.Fatalf("RecordCompletion level %d: %v", level, err)
		}
	}

	all, err := progressSvc.GetAllProgress(ctx, u.ClerkID)
	if err != nil {
		t.Fatal(err)
	}
	if all.AccountLevel != 0 {
		t.Errorf("accountLevel = %d before mastery, want 0", all.AccountLevel)
	}
	if len(all.Records) != 1 || all.Records[0].TotalScore != 90 || all.Records[0].HighestLevel != 9 {
		t.Errorf("unexpected record state: %+v", all.Records[0])
	}

	// The tenth level masters the topic and levels the account up once.
	record, err := progressSvc.RecordCompletion(ctx, u.ClerkID, &progress.CompleteLevelRequest{
		TopicID: "bit-manipulation", Level: 10, Score: 10, TimeSpent: 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	if record.TotalScore != 100 {
		t.Errorf("totalScore = %d, want 100", record.TotalScore)
	}

	all, err = progressSvc.GetAllProgress(ctx, u.ClerkID)
	if err != nil {
		t.Fatal(err)
	}
	if all.AccountLevel != 1 {
		t.Errorf("accountLevel = %d after mastery, want 1", all.AccountLevel)
	}

	// Replaying a mastered level must not level up again.
	if _, err := progressSvc.RecordCompletion(ctx, u.ClerkID, &progress.CompleteLevelRequest{
		TopicID: "bit-manipulation", Level: 5, Score: 15, TimeSpent: 20,
	}); err != nil {
		t.Fatal(err)
	}
	all, err = progressSvc.GetAllProgress(ctx, u.ClerkID)
	if err != nil {
		t.Fatal(err)
	}
	if all.AccountLevel != 1 {
		t.Errorf("accountLevel = %d after replay, want 1", all.AccountLevel)
	}

	board, err := boardSvc.GetLeaderboard(ctx, u.ClerkID, 50)
	if err != nil {
		t.Fatal(err)
	}
	if board.UserPosition == nil || board.UserPosition.Rank < 1 {
		t.Errorf("user missing from leaderboard: %+v", board.UserPosition)
	}
}

func TestRewardRedemption(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	userSvc := NewUserService(db)
	rewardSvc := NewRewardService(db)
	boardSvc := NewLeaderboardService(db)
	progressSvc := NewProgressService(db, rewardSvc, boardSvc)

	u := createTestUser(t, userSvc)
	defer userSvc.DeleteUserByClerkID(context.Background(), u.ClerkID)

	ctx := context.Background()

	// Ten levels at 30 points cross the first unlock threshold.
	for level := 1; level <= 10; level++ {
		if _, err := progressSvc.RecordCompletion(ctx, u.ClerkID, &progress.CompleteLevelRequest{
			TopicID: "graphs", Level: level, Score: 30, TimeSpent: 15,
		}); err != nil {
			t.Fatalf("RecordCompletion level %d: %v", level, err)
		}
	}

	overview, err := rewardSvc.GetOverview(ctx, u.ClerkID)
	if err != nil {
		t.Fatal(err)
	}
	if overview.TotalScore != 300 || overview.AvailablePoints != 300 {
		t.Fatalf("overview = %+v, want 300 total and 300 available", overview)
	}
	if !overview.Tiers[0].Unlocked || overview.Tiers[0].Redeemed {
		t.Fatalf("first tier = %+v, want unlocked and unredeemed", overview.Tiers[0])
	}

	if err := rewardSvc.Redeem(ctx, u.ClerkID, "tt_kit"); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	overview, err = rewardSvc.GetOverview(ctx, u.ClerkID)
	if err != nil {
		t.Fatal(err)
	}
	if overview.RedeemedPoints != 250 || overview.AvailablePoints != 50 {
		t.Errorf("after redeem: %d spent / %d available, want 250/50", overview.RedeemedPoints, overview.AvailablePoints)
	}
	if !overview.Tiers[0].Redeemed {
		t.Errorf("first tier not marked redeemed: %+v", overview.Tiers[0])
	}

	// The same tier cannot be redeemed twice, and a locked tier not at all.
	if err := rewardSvc.Redeem(ctx, u.ClerkID, "tt_kit"); !errors.Is(err, reward.ErrAlreadyRedeemed) {
		t.Errorf("second redeem = %v, want ErrAlreadyRedeemed", err)
	}
	if err := rewardSvc.Redeem(ctx, u.ClerkID, "ipad"); !errors.Is(err, reward.ErrNotUnlocked) {
		t.Errorf("redeem of locked tier = %v, want ErrNotUnlocked", err)
	}
}

func TestGetProgressSeedsMissingRecord(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	userSvc := NewUserService(db)
	progressSvc := NewProgressService(db, NewRewardService(db), NewLeaderboardService(db))

	u := createTestUser(t, userSvc)
	defer userSvc.DeleteUserByClerkID(context.Background(), u.ClerkID)

	record, err := progressSvc.GetProgress(context.Background(), u.ClerkID, "heap")
	if err != nil {
		t.Fatalf("GetProgress on unplayed topic: %v", err)
	}
	if len(record.Levels) != progress.LevelsPerTopic || record.TotalScore != 0 {
		t.Errorf("expected zeroed seeded record, got %+v", record)
	}
}
