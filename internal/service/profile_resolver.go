package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileResolver finds the profile a plan is generated for.
type ProfileResolver struct {
	repo     repository.ProfileRepository
	validate *validator.Validate
}

// NewProfileResolver creates a resolver over the profile store.
func NewProfileResolver(repo repository.ProfileRepository) *ProfileResolver {
	return &ProfileResolver{repo: repo, validate: validator.New()}
}

// Resolve returns the stored profile of userID. Only when none is stored does
// a complete override stand in for it. Anything else is profile_missing.
func (r *ProfileResolver) Resolve(ctx context.Context, userID primitive.ObjectID, override *domain.ProfileOverride) (*domain.UserProfile, error) {
	profile, err := r.repo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if verr := r.validate.StructCtx(ctx, profile); verr != nil {
			return nil, profileMissing(fmt.Errorf("stored profile is invalid: %w", verr))
		}
		return profile, nil

	case errors.Is(err, repository.ErrNotFound):
		if !override.Complete() {
			return nil, profileMissing(err)
		}
		synthesized := override.ToProfile(userID)
		if verr := r.validate.StructCtx(ctx, synthesized); verr != nil {
			return nil, &GenerationError{
				Kind:    KindInvalidRequest,
				Message: "profile fields in the request are invalid",
				Err:     verr,
			}
		}
		return synthesized, nil

	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}
}
