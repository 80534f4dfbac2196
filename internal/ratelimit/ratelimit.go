// Package ratelimit bounds how often one caller may hit the user API. Each
// recommendation can cost a language model call, so limits are per user
// with the client IP as the key for anonymous requests.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store records hits in a sliding window. Allow admits the hit only if fewer
// than limit hits were recorded within window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Policy is the limit applied to every key.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}
