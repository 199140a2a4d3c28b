// Package session holds the suspended state of a workflow run between the
// approval gate and the caller's decision. Records survive across independent
// requests; the store is the only state shared between pipeline runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/trendscout/config"
)

// ErrSessionNotFound is returned when deciding on an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Decision is the caller-supplied verdict on a parked research report.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRefine   Decision = "refine"
	DecisionRestart  Decision = "restart"
	DecisionNone     Decision = "none"
)

// TopicSnapshot is one trending topic as published to the caller for review.
type TopicSnapshot struct {
	Topic      string `json:"topic"`
	Reason     string `json:"reason"`
	URL        string `json:"url"`
	Timestamp  string `json:"timestamp"`
	Confidence string `json:"confidence"`
}

// ConfidenceSnapshot mirrors a per-trend confidence score.
type ConfidenceSnapshot struct {
	Level     string `json:"confidence"`
	Rationale string `json:"rationale"`
}

// Record is the unit of durability: everything a later, independent request
// needs to resume or restart the workflow under the same session id.
type Record struct {
	SessionID        string                        `json:"session_id"`
	ReportMarkdown   string                        `json:"research_report"`
	Sources          []string                      `json:"sources"`
	TrendingTopics   []TopicSnapshot               `json:"trending_topics"`
	ConfidenceScores map[string]ConfidenceSnapshot `json:"confidence_scores"`
	Scope            map[string]string             `json:"scope"`
	Platforms        []string                      `json:"platforms"`
	OriginalQuery    string                        `json:"original_query"`
	Mode             string                        `json:"mode"`
	Decision         Decision                      `json:"decision"`
	Refinement       string                        `json:"refinement,omitempty"`
	// Ideas caches generation output so replaying an approve decision never
	// triggers generation twice (approval is a latch, not an event counter).
	Ideas     map[string][]string `json:"ideas,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Store maps session ids to records. Operations on distinct ids must not
// block each other; operations on one id are linearizable.
type Store interface {
	// Submit upserts a record; the last submission for a session id wins.
	Submit(ctx context.Context, rec Record) error
	// Get returns the record for id or ErrSessionNotFound.
	Get(ctx context.Context, id string) (Record, error)
	// Decide records the caller's verdict and returns the updated record,
	// or ErrSessionNotFound. An already-approved record stays approved.
	Decide(ctx context.Context, id string, decision Decision, refinement string) (Record, error)
	// SetIdeas caches generated ideas on an existing record.
	SetIdeas(ctx context.Context, id string, ideas map[string][]string) error
}

// NewStore builds the configured store backend.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "inmemory":
		return NewInMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}
