package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSession is a logged training session as stored by the tracking side of the app.
type WorkoutSession struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID      *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	WorkoutType string              `bson:"workoutType" json:"workoutType"`
	Rating      *int                `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5
	Feedback    string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	ExerciseIDs []string            `bson:"exerciseIds,omitempty" json:"exerciseIds,omitempty"`
	StartedAt   *time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// SessionHistoryEntry is the read-only view of a session used for personalization.
type SessionHistoryEntry struct {
	WorkoutType     string
	Rating          *int
	Feedback        string
	ExerciseIDs     []string
	DurationMinutes *int
}

// HistoryEntry derives the history view. Duration is nil unless both timestamps are set.
func (s WorkoutSession) HistoryEntry() SessionHistoryEntry {
	entry := SessionHistoryEntry{
		WorkoutType: s.WorkoutType,
		Rating:      s.Rating,
		Feedback:    s.Feedback,
		ExerciseIDs: s.ExerciseIDs,
	}
	if s.StartedAt != nil && s.CompletedAt != nil {
		minutes := int(s.CompletedAt.Sub(*s.StartedAt).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		entry.DurationMinutes = &minutes
	}
	return entry
}

// ProgressRecord is a single body or performance metric measurement.
type ProgressRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Metric     string             `bson:"metric" json:"metric"` // e.g. "weight", "bench_press_1rm"
	Value      float64            `bson:"value" json:"value"`
	Unit       string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedAt time.Time          `bson:"recordedAt" json:"recordedAt"`
}
