package user

import "time"

type User struct {
	ID             string     `json:"id"`
	ClerkID        string     `json:"clerkId"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	EmailVerified  bool       `json:"emailVerified"`
	AccountLevel   int        `json:"accountLevel"`
	CurrentStreak  int        `json:"currentStreak"`
	BestStreak     int        `json:"bestStreak"`
	LastActiveDate *time.Time `json:"lastActiveDate,omitempty"`
	WeeklyActivity [7]bool    `json:"weeklyActivity"`
	CompletionRate int        `json:"completionRate"`
	RedeemedPoints int        `json:"redeemedPoints"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
