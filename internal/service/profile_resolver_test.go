package service

import (
	"context"
	"errors"
	"testing"

	"alcyxob/fitplan/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func beginnerProfile(userID primitive.ObjectID) *domain.UserProfile {
	return &domain.UserProfile{
		ID:                 primitive.NewObjectID(),
		UserID:             userID,
		FitnessLevel:       domain.FitnessBeginner,
		FitnessGoals:       []string{"lose weight"},
		AvailableEquipment: []string{"bodyweight"},
		TimeCommitment:     domain.TimeCommitment{DaysPerWeek: 3, MinutesPerSession: 30},
		Preferences:        domain.Preferences{Intensity: domain.IntensityLow},
	}
}

func completeOverride() *domain.ProfileOverride {
	return &domain.ProfileOverride{
		FitnessLevel:       domain.FitnessIntermediate,
		FitnessGoals:       []string{"strength"},
		AvailableEquipment: []string{"Dumbbells"},
		TimeCommitment:     &domain.TimeCommitment{DaysPerWeek: 4, MinutesPerSession: 45},
		Preferences:        &domain.Preferences{Intensity: domain.IntensityModerate},
	}
}

func TestResolveStoredProfile(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &fakeProfileRepo{profiles: map[primitive.ObjectID]*domain.UserProfile{userID: beginnerProfile(userID)}}

	profile, err := NewProfileResolver(repo).Resolve(context.Background(), userID, completeOverride())
	require.NoError(t, err)
	assert.Equal(t, domain.FitnessBeginner, profile.FitnessLevel, "stored profile wins over the override")
}

func TestResolveStoredProfileOutOfRange(t *testing.T) {
	userID := primitive.NewObjectID()
	bad := beginnerProfile(userID)
	bad.TimeCommitment.MinutesPerSession = 500
	repo := &fakeProfileRepo{profiles: map[primitive.ObjectID]*domain.UserProfile{userID: bad}}

	_, err := NewProfileResolver(repo).Resolve(context.Background(), userID, nil)
	assert.ErrorIs(t, err, ErrProfileMissing)
}

func TestResolveStoredProfileWithSystemMetrics(t *testing.T) {
	userID := primitive.NewObjectID()
	p := beginnerProfile(userID)
	p.System = &domain.SystemMetrics{WeeklyMinutes: 90, IntensityScore: 1, TrainingLoadIndex: 90, ProfileDigest: "d1"}
	repo := &fakeProfileRepo{profiles: map[primitive.ObjectID]*domain.UserProfile{userID: p}}

	profile, err := NewProfileResolver(repo).Resolve(context.Background(), userID, nil)
	require.NoError(t, err)
	require.NotNil(t, profile.Digest())
	assert.Equal(t, "d1", *profile.Digest())

	p.System.IntensityScore = 4
	_, err = NewProfileResolver(repo).Resolve(context.Background(), userID, nil)
	assert.ErrorIs(t, err, ErrProfileMissing)
}

func TestResolveFirstRunOverride(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &fakeProfileRepo{}

	profile, err := NewProfileResolver(repo).Resolve(context.Background(), userID, completeOverride())
	require.NoError(t, err)
	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, domain.FitnessIntermediate, profile.FitnessLevel)
	assert.Equal(t, 45, profile.TimeCommitment.MinutesPerSession)
	assert.Nil(t, profile.Digest())
}

func TestResolveMissing(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &fakeProfileRepo{}

	incomplete := completeOverride()
	incomplete.Preferences = nil

	for _, override := range []*domain.ProfileOverride{nil, {}, incomplete} {
		_, err := NewProfileResolver(repo).Resolve(context.Background(), userID, override)
		assert.ErrorIs(t, err, ErrProfileMissing)
	}
}

func TestResolveInvalidOverride(t *testing.T) {
	override := completeOverride()
	override.TimeCommitment.DaysPerWeek = 9

	_, err := NewProfileResolver(&fakeProfileRepo{}).Resolve(context.Background(), primitive.NewObjectID(), override)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestResolveStoreError(t *testing.T) {
	repo := &fakeProfileRepo{err: errors.New("connection reset")}
	_, err := NewProfileResolver(repo).Resolve(context.Background(), primitive.NewObjectID(), completeOverride())
	require.Error(t, err)

	var genErr *GenerationError
	assert.False(t, errors.As(err, &genErr))
}
