package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/fitplan/internal/config"
	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation keys the rate limiter counts separately.
const (
	OpGenerateWorkout = "generate_workout"
	OpAdaptWorkout    = "adapt_workout"
)

// RateLimitPolicy combines a short per-call cooldown with a capped window.
type RateLimitPolicy struct {
	Cooldown     time.Duration
	Window       time.Duration
	MaxPerWindow int
}

// PolicyFromConfig builds the policy from the ratelimit config section.
func PolicyFromConfig(cfg config.RateLimitConfig) RateLimitPolicy {
	return RateLimitPolicy{Cooldown: cfg.Cooldown, Window: cfg.Window, MaxPerWindow: cfg.MaxPerWindow}
}

// Apply records a call at now on rec, or reports how long the caller must
// wait. rec is only meaningful to persist when allowed is true.
func (p RateLimitPolicy) Apply(rec *domain.RateLimitRecord, now time.Time) (retryAfter time.Duration, allowed bool) {
	if !rec.IsNew() {
		if since := now.Sub(rec.LastCallAt); since < p.Cooldown {
			return p.Cooldown - since, false
		}
	}

	if rec.IsNew() || now.Sub(rec.WindowStart) >= p.Window {
		rec.WindowStart = now
		rec.Count = 0
	}
	if rec.Count >= p.MaxPerWindow {
		return rec.WindowStart.Add(p.Window).Sub(now), false
	}

	rec.Count++
	rec.LastCallAt = now
	return 0, true
}

// RateLimiter gates pipeline calls per (user, operation).
type RateLimiter struct {
	repo   repository.RateLimitRepository
	policy RateLimitPolicy
	now    func() time.Time
}

// NewRateLimiter creates a limiter. now may be nil, in which case the wall clock is used.
func NewRateLimiter(repo repository.RateLimitRepository, policy RateLimitPolicy, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{repo: repo, policy: policy, now: now}
}

// CheckAndRecord counts one call, or fails with a rate_limited GenerationError.
// The check and the increment happen in one atomic store update.
func (l *RateLimiter) CheckAndRecord(ctx context.Context, userID primitive.ObjectID, operation string) error {
	err := l.repo.Update(ctx, userID, operation, func(rec *domain.RateLimitRecord) error {
		if retryAfter, ok := l.policy.Apply(rec, l.now().UTC()); !ok {
			return rateLimited(retryAfter)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return fmt.Errorf("rate limit update: %w", err)
}
