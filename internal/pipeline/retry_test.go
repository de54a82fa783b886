package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("constraint failed"), false},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"cancelled", fmt.Errorf("save: %w", context.Canceled), false},
		{"deadline", fmt.Errorf("save: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := range 6 {
		d := Backoff(attempt)
		if d <= 0 || d > 8*time.Second {
			t.Errorf("Backoff(%d) = %v out of range", attempt, d)
		}
	}
}
