package repository

import (
	"alcyxob/fitplan/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrInsertFailed = RepositoryError("insert failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProfileRepository reads canonical user profiles. Writes happen in the profile CRUD path.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
}

// SessionRepository reads logged workout sessions, newest first.
type SessionRepository interface {
	ListRecent(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error)
}

// ProgressRepository reads progress metric records, newest first.
type ProgressRepository interface {
	ListRecent(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ProgressRecord, error)
}

// WorkoutPlanRepository stores generated plans. It is append-only.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.PlanRecord) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanRecord, error)
}

// RateLimitMutator inspects and edits a rate limit record in place.
// Returning an error leaves the stored record untouched.
type RateLimitMutator func(rec *domain.RateLimitRecord) error

// RateLimitRepository performs an atomic read-modify-write of the record for
// (userID, operation). Concurrent callers for the same key are serialized; the
// mutator may run more than once if the store retries, so it must be pure.
type RateLimitRepository interface {
	Update(ctx context.Context, userID primitive.ObjectID, operation string, mutate RateLimitMutator) error
}
