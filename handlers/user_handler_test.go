package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestServiceErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing topic", errors.New("topicId is required"), http.StatusBadRequest},
		{"level out of range", errors.New("level must be between 1 and 10"), http.StatusBadRequest},
		{"negative inputs", errors.New("score and timeSpent must be non-negative"), http.StatusBadRequest},
		{"unknown user", fmt.Errorf("user not found: %w", errors.New("no rows in result set")), http.StatusNotFound},
		{"begin failure", fmt.Errorf("failed to begin transaction: %w", errors.New("pool closed")), http.StatusInternalServerError},
		{"write failure", fmt.Errorf("failed to persist progress record: %w", errors.New("connection reset")), http.StatusInternalServerError},
		{"commit failure", fmt.Errorf("failed to commit progress record: %w", errors.New("broken pipe")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := serviceErrorStatus(tc.err); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}
}
