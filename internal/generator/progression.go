package generator

import (
	"fmt"
	"math"
	"strings"

	"alcyxob/fitplan/internal/domain"
)

const (
	MinLevel = 1
	MaxLevel = 10

	// DefaultAdaptLevel is the starting level when a prior plan carries no training-load index.
	DefaultAdaptLevel = 5

	// trainingLoadPerLevel maps a training-load index onto the 1-10 scale (3780 max / ~4.2).
	trainingLoadPerLevel = 900.0
)

// BaseLevel is the starting progression level of a fitness level.
func BaseLevel(level domain.FitnessLevel) int {
	switch level {
	case domain.FitnessIntermediate:
		return 4
	case domain.FitnessAdvanced:
		return 7
	default:
		return 1
	}
}

// EstimateLevel computes the progression level of a first plan from the
// user's recent session history.
func EstimateLevel(history []domain.SessionHistoryEntry, level domain.FitnessLevel) int {
	base := BaseLevel(level)
	if len(history) == 0 {
		return base
	}

	completed := 0
	rated := 0
	sum := 0
	for _, h := range history {
		if h.Rating == nil {
			continue
		}
		rated++
		sum += *h.Rating
		if *h.Rating >= 3 {
			completed++
		}
	}

	avg := 0.0
	if rated > 0 {
		avg = float64(sum) / float64(rated)
	}

	result := base
	if completed >= 5 && avg >= 4 {
		result++
	}
	if completed >= 10 && avg >= 4.5 {
		result++
	}
	return clampLevel(result)
}

// AdaptInput is what the adaptive estimator needs to know about the finished plan.
type AdaptInput struct {
	CurrentLevel      int
	Feedback          domain.SessionFeedback
	EstimatedDuration int // minutes, of the prior plan
}

// AdaptResult is the new level plus a readable list of what moved it.
type AdaptResult struct {
	Level   int
	Reasons []string
}

// Reason joins the applied adjustments into one line.
func (r AdaptResult) Reason() string {
	if len(r.Reasons) == 0 {
		return "no adjustment, level kept"
	}
	return strings.Join(r.Reasons, "; ")
}

// AdaptLevel sums the independent feedback adjustments onto the current
// level, rounds half up and clamps to [1,10].
func AdaptLevel(in AdaptInput) AdaptResult {
	fb := in.Feedback
	adjustment := 0.0
	var reasons []string

	if fb.PerformanceRating >= 4 && fb.CompletionRate >= 0.9 {
		adjustment += 1
		reasons = append(reasons, "high performance and completion (+1)")
	}
	if fb.PerformanceRating <= 2 || fb.CompletionRate < 0.7 {
		adjustment -= 1
		reasons = append(reasons, "low performance or completion (-1)")
	}

	switch fb.DifficultyFeedback {
	case domain.FeedbackTooEasy:
		adjustment += 1
		reasons = append(reasons, "reported too easy (+1)")
	case domain.FeedbackTooHard:
		adjustment -= 1
		reasons = append(reasons, "reported too hard (-1)")
	}

	if in.EstimatedDuration > 0 {
		expected := float64(in.EstimatedDuration)
		actual := float64(fb.TimeActual)
		switch {
		case actual < 0.8*expected:
			adjustment += 0.5
			reasons = append(reasons, fmt.Sprintf("finished in %d of %d minutes (+0.5)", fb.TimeActual, in.EstimatedDuration))
		case actual > 1.2*expected:
			adjustment -= 0.5
			reasons = append(reasons, fmt.Sprintf("needed %d of %d minutes (-0.5)", fb.TimeActual, in.EstimatedDuration))
		}
	}

	level := roundHalfUp(float64(in.CurrentLevel) + adjustment)
	return AdaptResult{Level: clampLevel(level), Reasons: reasons}
}

// LevelFromTrainingLoad derives the current level of a prior plan from the
// training-load index stored with it.
func LevelFromTrainingLoad(tli *float64) int {
	if tli == nil || math.IsNaN(*tli) {
		return DefaultAdaptLevel
	}
	return clampLevel(roundHalfUp(*tli/trainingLoadPerLevel) + 1)
}

// ClampLevel bounds a caller-supplied level to [1,10].
func ClampLevel(level int) int {
	return clampLevel(level)
}

func clampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
