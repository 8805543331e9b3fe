package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessLevel is the self-reported training experience of a user.
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// Intensity is the preferred workout intensity.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// TimeCommitment describes how much time a user can train.
type TimeCommitment struct {
	DaysPerWeek       int      `bson:"daysPerWeek" json:"daysPerWeek" validate:"min=1,max=7"`
	MinutesPerSession int      `bson:"minutesPerSession" json:"minutesPerSession" validate:"omitempty,min=10,max=180"`
	PreferredTimes    []string `bson:"preferredTimes,omitempty" json:"preferredTimes,omitempty" validate:"max=5,dive,max=30"`
}

// Preferences holds the user's workout preferences.
type Preferences struct {
	WorkoutTypes []string  `bson:"workoutTypes,omitempty" json:"workoutTypes,omitempty" validate:"max=10,dive,max=50"`
	Intensity    Intensity `bson:"intensity" json:"intensity" validate:"required,oneof=low moderate high"`
	RestDay      *int      `bson:"restDay,omitempty" json:"restDay,omitempty" validate:"omitempty,min=0,max=6"`
	Injuries     []string  `bson:"injuries,omitempty" json:"injuries,omitempty" validate:"max=10,dive,max=100"`
}

// SystemMetrics is computed by the profile-write path and never edited by the user.
type SystemMetrics struct {
	WeeklyMinutes     int     `bson:"weeklyMinutes" json:"weeklyMinutes" validate:"min=0,max=1260"`
	IntensityScore    float64 `bson:"intensityScore" json:"intensityScore" validate:"min=0,max=3"`
	TrainingLoadIndex float64 `bson:"trainingLoadIndex" json:"trainingLoadIndex" validate:"min=0,max=3780"`
	ProfileDigest     string  `bson:"profileDigest,omitempty" json:"profileDigest,omitempty" validate:"max=128"`
}

// UserProfile is the canonical fitness profile of a user. The profile-write
// path clamps every numeric field before storing it.
type UserProfile struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	FitnessLevel       FitnessLevel       `bson:"fitnessLevel" json:"fitnessLevel" validate:"required,oneof=beginner intermediate advanced"`
	FitnessGoals       []string           `bson:"fitnessGoals" json:"fitnessGoals" validate:"max=10,dive,max=100"`
	AvailableEquipment []string           `bson:"availableEquipment" json:"availableEquipment" validate:"max=30,dive,max=50"`
	TimeCommitment     TimeCommitment     `bson:"timeCommitment" json:"timeCommitment"`
	Preferences        Preferences        `bson:"preferences" json:"preferences"`
	System             *SystemMetrics     `bson:"system,omitempty" json:"system,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Digest returns the stored profile digest, or nil when the profile has none.
func (p *UserProfile) Digest() *string {
	if p == nil || p.System == nil || p.System.ProfileDigest == "" {
		return nil
	}
	d := p.System.ProfileDigest
	return &d
}

// TrainingLoad returns the stored training-load index, or nil when absent.
func (p *UserProfile) TrainingLoad() *float64 {
	if p == nil || p.System == nil {
		return nil
	}
	tli := p.System.TrainingLoadIndex
	return &tli
}

// ProfileOverride carries client-supplied profile fields. It is only used on
// first run, when no canonical profile has been stored yet.
type ProfileOverride struct {
	FitnessLevel       FitnessLevel
	FitnessGoals       []string
	AvailableEquipment []string
	TimeCommitment     *TimeCommitment
	Preferences        *Preferences
}

// Complete reports whether the override has enough to stand in for a profile.
func (o *ProfileOverride) Complete() bool {
	return o != nil && o.FitnessLevel != "" && o.TimeCommitment != nil && o.Preferences != nil
}

// ToProfile synthesizes a profile for userID from the override.
func (o *ProfileOverride) ToProfile(userID primitive.ObjectID) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		FitnessLevel:       o.FitnessLevel,
		FitnessGoals:       o.FitnessGoals,
		AvailableEquipment: o.AvailableEquipment,
		TimeCommitment:     *o.TimeCommitment,
		Preferences:        *o.Preferences,
	}
}
