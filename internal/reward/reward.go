package reward

import (
	"errors"
	"time"
)

type Tier struct {
	ID             string `json:"id"`
	ScoreThreshold int    `json:"score_threshold"`
	Label          string `json:"label"`
}

// Tiers is the fixed reward catalog, cheapest first. Unlock and redemption
// both key off ScoreThreshold.
var Tiers = []Tier{
	{ID: "tt_kit", ScoreThreshold: 250, Label: "Table Tennis Kit"},
	{ID: "ipad", ScoreThreshold: 500, Label: "iPad"},
	{ID: "laptop", ScoreThreshold: 1000, Label: "Laptop"},
}

var (
	ErrNotUnlocked        = errors.New("reward not unlocked")
	ErrAlreadyRedeemed    = errors.New("reward already redeemed")
	ErrInsufficientPoints = errors.New("insufficient available points")
)

// TierByID looks a tier up in the catalog.
func TierByID(id string) (Tier, bool) {
	for _, t := range Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// NewlyUnlocked returns the tiers whose threshold totalScore now meets and
// that are not yet in the unlocked set. The unlocked set only ever grows.
func NewlyUnlocked(totalScore int, unlocked map[string]bool) []Tier {
	var newTiers []Tier
	for _, t := range Tiers {
		if totalScore >= t.ScoreThreshold && !unlocked[t.ID] {
			newTiers = append(newTiers, t)
		}
	}
	return newTiers
}

// CanRedeem validates a redemption against the spendable balance
// (totalScore minus points already spent on earlier redemptions).
func CanRedeem(tier Tier, totalScore, redeemedPoints int, unlocked, redeemed bool) error {
	if !unlocked {
		return ErrNotUnlocked
	}
	if redeemed {
		return ErrAlreadyRedeemed
	}
	if totalScore-redeemedPoints < tier.ScoreThreshold {
		return ErrInsufficientPoints
	}
	return nil
}

// Status is the per-user view of one tier for the rewards read endpoint.
type Status struct {
	Tier
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Redeemed   bool       `json:"redeemed"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

type Overview struct {
	Tiers           []*Status `json:"tiers"`
	TotalScore      int       `json:"total_score"`
	RedeemedPoints  int       `json:"redeemed_points"`
	AvailablePoints int       `json:"available_points"`
}
