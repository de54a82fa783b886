// Package session persists in-progress assessments so answers can be
// recorded one request at a time.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/cisaudit/internal/assess"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// AnswerEntry is one stored answer.
type AnswerEntry = assess.Entry

// Session is the persisted form of one assessment of a benchmark.
type Session struct {
	ID          string        `json:"session_id"`
	BenchmarkID string        `json:"benchmark_id"`
	Answers     []AnswerEntry `json:"answers"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Store saves and loads sessions.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
