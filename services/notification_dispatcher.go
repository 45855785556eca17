package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"algoQuestAPI/internal/notification"
	"algoQuestAPI/internal/reward"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes level-up and reward-unlock messages to the
// user's registered devices. Delivery is fire-and-forget through a small
// worker pool so the completion pipeline never blocks on FCM.
type NotificationDispatcher struct {
	db           *pgxpool.Pool
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Push
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(db *pgxpool.Pool) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		db:       db,
		workers:  5,
		jobQueue: make(chan *notification.Push, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// SetPushProvider wires the concrete provider (FCM in production, mock in
// tests). Without one, pushes are dropped with a log line.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *notification.Push) {
	if d.pushProvider == nil {
		log.Printf("Dispatcher: no push provider configured, dropping %q for user %s", job.Title, job.UserID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.deviceTokens(ctx, job.UserID)
	if err != nil {
		log.Printf("Dispatcher: failed to load device tokens for %s: %v", job.UserID, err)
		return
	}

	if err := d.pushProvider.SendPush(ctx, tokens, job.Title, job.Body, job.Data); err != nil {
		log.Printf("Dispatcher: push failed for %s: %v", job.UserID, err)
	}
}

func (d *NotificationDispatcher) enqueue(job *notification.Push) {
	select {
	case d.jobQueue <- job:
	default:
		log.Printf("Dispatcher: queue full, dropping %q for user %s", job.Title, job.UserID)
	}
}

// PushLevelUp announces an account level-up after a topic mastery.
func (d *NotificationDispatcher) PushLevelUp(userID uuid.UUID, topicID string, newLevel int) {
	d.enqueue(&notification.Push{
		UserID: userID,
		Title:  "Topic mastered!",
		Body:   fmt.Sprintf("You completed every level of %s. Account level %d unlocked.", topicID, newLevel),
		Data:   map[string]any{"type": "level_up", "topic": topicID, "account_level": newLevel},
	})
}

// PushRewardUnlocked announces a newly unlocked reward tier.
func (d *NotificationDispatcher) PushRewardUnlocked(userID uuid.UUID, tier reward.Tier) {
	d.enqueue(&notification.Push{
		UserID: userID,
		Title:  "Reward unlocked!",
		Body:   fmt.Sprintf("Your score unlocked the %s. Redeem it from your profile.", tier.Label),
		Data:   map[string]any{"type": "reward_unlocked", "reward": tier.ID},
	})
}

// RegisterDevice stores or refreshes a push token for the user.
func (d *NotificationDispatcher) RegisterDevice(ctx context.Context, clerkID string, req notification.RegisterDeviceRequest) error {
	var userID uuid.UUID
	err := d.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	_, err = d.db.Exec(ctx, `
		INSERT INTO device_tokens (id, user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (token) DO UPDATE SET user_id = $2, platform = $4
	`, uuid.New(), userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}

func (d *NotificationDispatcher) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := d.db.Query(ctx, `
		SELECT id, user_id, token, platform, created_at FROM device_tokens WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

// MockPushProvider logs instead of sending. Used when FCM credentials are
// absent.
type MockPushProvider struct{}

func (m *MockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	log.Printf("MOCK PUSH to %d device(s): %s - %s", len(tokens), title, body)
	return nil
}
