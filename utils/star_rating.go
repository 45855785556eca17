package utils

// StarRating maps a level score to 0-3 stars. timeSpent is accepted because
// every game reports it, but the current formula is score-only.
func StarRating(score, timeSpent int) int {
	switch {
	case score >= 15:
		return 3
	case score >= 12:
		return 2
	case score >= 10:
		return 1
	default:
		return 0
	}
}
