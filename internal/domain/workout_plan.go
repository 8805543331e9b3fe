package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty of a plan or a single exercise.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Exercise is one entry of a generated workout.
type Exercise struct {
	Name             string     `bson:"name" json:"name"`
	Description      string     `bson:"description" json:"description"`
	Instructions     []string   `bson:"instructions" json:"instructions"`
	TargetMuscles    []string   `bson:"targetMuscles" json:"targetMuscles"`
	Equipment        []string   `bson:"equipment" json:"equipment"`
	Difficulty       Difficulty `bson:"difficulty" json:"difficulty"`
	Sets             int        `bson:"sets" json:"sets"`
	Reps             *int       `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationSeconds  *int       `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	RestSeconds      int        `bson:"restSeconds" json:"restSeconds"`
	Tips             []string   `bson:"tips,omitempty" json:"tips,omitempty"`
	ProgressionNotes string     `bson:"progressionNotes,omitempty" json:"progressionNotes,omitempty"`
	Alternatives     []string   `bson:"alternatives,omitempty" json:"alternatives,omitempty"`
	FormCues         []string   `bson:"formCues,omitempty" json:"formCues,omitempty"`
}

// WorkoutPlan is the artifact produced by the model once it passed validation.
type WorkoutPlan struct {
	Name              string     `bson:"name" json:"name"`
	Description       string     `bson:"description" json:"description"`
	Type              string     `bson:"type" json:"type"`
	Difficulty        Difficulty `bson:"difficulty" json:"difficulty"`
	EstimatedDuration int        `bson:"estimatedDuration" json:"estimatedDuration"` // minutes
	Exercises         []Exercise `bson:"exercises" json:"exercises"`
	Equipment         []string   `bson:"equipment" json:"equipment"`
	TargetMuscles     []string   `bson:"targetMuscles" json:"targetMuscles"`
	WarmUp            []Exercise `bson:"warmUp,omitempty" json:"warmUp,omitempty"`
	CoolDown          []Exercise `bson:"coolDown,omitempty" json:"coolDown,omitempty"`
	ProgressionTips   []string   `bson:"progressionTips,omitempty" json:"progressionTips,omitempty"`
	MotivationalQuote string     `bson:"motivationalQuote,omitempty" json:"motivationalQuote,omitempty"`
	CalorieEstimate   *int       `bson:"calorieEstimate,omitempty" json:"calorieEstimate,omitempty"`
}

// PlanSource tells how a stored plan came to be.
type PlanSource string

const (
	SourceGenerated PlanSource = "generated"
	SourceAdapted   PlanSource = "adapted"
)

// DifficultyFeedback is the user's verdict on a finished workout.
type DifficultyFeedback string

const (
	FeedbackTooEasy   DifficultyFeedback = "too_easy"
	FeedbackJustRight DifficultyFeedback = "just_right"
	FeedbackTooHard   DifficultyFeedback = "too_hard"
)

// SessionFeedback is what the user reported after doing a plan.
type SessionFeedback struct {
	PerformanceRating  int                `bson:"performanceRating" json:"performanceRating"`
	CompletionRate     float64            `bson:"completionRate" json:"completionRate"`
	DifficultyFeedback DifficultyFeedback `bson:"difficultyFeedback" json:"difficultyFeedback"`
	TimeActual         int                `bson:"timeActual" json:"timeActual"` // minutes
}

// Adaptation records how an adapted plan was derived from its predecessor.
type Adaptation struct {
	PreviousLevel       int             `bson:"previousLevel" json:"previousLevel"`
	NewProgressionLevel int             `bson:"newProgressionLevel" json:"newProgressionLevel"`
	Reason              string          `bson:"reason" json:"reason"`
	Feedback            SessionFeedback `bson:"feedback" json:"feedback"`
}

// TokenUsage as reported by the model endpoint.
type TokenUsage struct {
	PromptTokens     int `bson:"promptTokens" json:"promptTokens"`
	CompletionTokens int `bson:"completionTokens" json:"completionTokens"`
	TotalTokens      int `bson:"totalTokens" json:"totalTokens"`
}

// PlanRecord is a persisted plan. Records are only ever inserted, never updated.
type PlanRecord struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID  `bson:"userId" json:"userId"`
	WorkoutPlan       `bson:",inline"`
	ProgressionLevel  int                 `bson:"progressionLevel" json:"progressionLevel"`
	TrainingLoadIndex *float64            `bson:"trainingLoadIndex,omitempty" json:"trainingLoadIndex,omitempty"`
	DedupeKey         string              `bson:"dedupeKey" json:"dedupeKey"`
	Source            PlanSource          `bson:"source" json:"source"`
	PreviousPlanID    *primitive.ObjectID `bson:"previousPlanId,omitempty" json:"previousPlanId,omitempty"`
	Adaptation        *Adaptation         `bson:"adaptation,omitempty" json:"adaptation,omitempty"`
	Usage             *TokenUsage         `bson:"usage,omitempty" json:"-"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
}
