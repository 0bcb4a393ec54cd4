package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrialDenies(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		count  int
		expiry *time.Time
		denied bool
	}{
		{"fresh trial", 3, &future, false},
		{"exhausted but within window", 0, &future, false},
		{"expired with remaining count", 2, &past, false},
		{"expired and exhausted", 0, &past, true},
		{"negative count treated as exhausted", -1, &past, true},
		{"no expiry never denies", 0, nil, false},
		{"expiry equal to now is not yet expired", 0, &now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trial := &TrialState{Count: tt.count, Expiry: tt.expiry}
			assert.Equal(t, tt.denied, trial.Denies(now))
		})
	}
}
