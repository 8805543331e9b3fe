package generator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"alcyxob/fitplan/internal/domain"
)

// Prompt is the message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// Caps on free text interpolated into prompts, in runes.
const (
	maxFeedbackLen    = 200
	maxTagLen         = 50
	maxGoalLen        = 100
	maxTagsPerList    = 20
	avoidRepeatThresh = 3
)

// History sample sizes personalization is built from.
const (
	HistorySessionLimit  = 10
	HistoryProgressLimit = 5
)

const systemPersona = `You are an expert certified personal trainer and exercise physiologist who designs safe, effective, individualized workouts.

Hard requirements:
1. Safety first: respect every listed injury or limitation and prescribe only exercises with proper form cues.
2. Progressive overload: match volume and intensity to the target progression level (1-10).
3. Specificity: serve the user's goals and use only the equipment they have.
4. Scheduling fit: the total session, including warm-up and cool-down, must fit the available minutes.
5. Recovery balance: realistic sets, reps, and rest for the user's level.

Respond with a single JSON object only. No markdown, no code fences, no commentary before or after the JSON.`

// JSONOnlyInstruction is appended as an extra system message when the model
// endpoint cannot enforce JSON mode itself.
const JSONOnlyInstruction = "Return raw JSON only: one object, starting with { and ending with }. Do not wrap it in code fences and do not add any explanation."

// GenerationContext is everything the first-plan prompt is rendered from.
type GenerationContext struct {
	Profile          *domain.UserProfile
	WorkoutType      string
	FocusAreas       []string
	PreviousWorkouts []string
	Level            int
	Minutes          int
	Equipment        []string // resolved, normalized
	History          []domain.SessionHistoryEntry
	Progress         []domain.ProgressRecord
}

// AdaptationContext is everything the adaptive prompt is rendered from.
type AdaptationContext struct {
	Previous      domain.WorkoutPlan
	Feedback      domain.SessionFeedback
	PreviousLevel int
	NewLevel      int
	Reason        string
	Equipment     []string
	Injuries      []string
}

// BuildGenerationPrompt renders the first-plan prompt. Identical contexts
// always render identical prompts.
func BuildGenerationPrompt(c GenerationContext) Prompt {
	var b strings.Builder
	p := c.Profile

	b.WriteString("Create a personalized workout plan.\n\n")

	b.WriteString("USER PROFILE\n")
	fmt.Fprintf(&b, "- Fitness level: %s\n", p.FitnessLevel)
	fmt.Fprintf(&b, "- Goals: %s\n", joinTags(p.FitnessGoals, maxGoalLen, "general fitness"))
	fmt.Fprintf(&b, "- Available equipment: %s\n", joinTags(c.Equipment, maxTagLen, Bodyweight))
	fmt.Fprintf(&b, "- Time: %d days/week, %d minutes/session", p.TimeCommitment.DaysPerWeek, c.Minutes)
	if len(p.TimeCommitment.PreferredTimes) > 0 {
		fmt.Fprintf(&b, ", preferred times: %s", joinTags(p.TimeCommitment.PreferredTimes, maxTagLen, ""))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Preferred intensity: %s\n", p.Preferences.Intensity)
	if len(p.Preferences.WorkoutTypes) > 0 {
		fmt.Fprintf(&b, "- Preferred workout types: %s\n", joinTags(p.Preferences.WorkoutTypes, maxTagLen, ""))
	}
	if p.Preferences.RestDay != nil {
		fmt.Fprintf(&b, "- Rest day: %s\n", weekday(*p.Preferences.RestDay))
	}
	fmt.Fprintf(&b, "- Injuries/limitations: %s\n", joinTags(p.Preferences.Injuries, maxGoalLen, "none reported"))
	if s := p.System; s != nil {
		fmt.Fprintf(&b, "- Weekly minutes: %d, intensity score: %s, training load index: %s\n",
			s.WeeklyMinutes, formatFloat(s.IntensityScore), formatFloat(s.TrainingLoadIndex))
	}

	b.WriteString("\nSESSION\n")
	fmt.Fprintf(&b, "- Workout type: %s\n", clip(c.WorkoutType, maxTagLen))
	fmt.Fprintf(&b, "- Focus areas: %s\n", joinTags(c.FocusAreas, maxTagLen, "balanced"))
	fmt.Fprintf(&b, "- Target progression level: %d/10\n", c.Level)

	b.WriteString("\nRECENT SESSIONS (newest first)\n")
	if len(c.History) == 0 {
		b.WriteString("- none yet\n")
	}
	for _, h := range c.History {
		fmt.Fprintf(&b, "- %s", clip(h.WorkoutType, maxTagLen))
		if h.Rating != nil {
			fmt.Fprintf(&b, ", rated %d/5", *h.Rating)
		}
		if h.DurationMinutes != nil {
			fmt.Fprintf(&b, ", %d min", *h.DurationMinutes)
		}
		if fb := strings.TrimSpace(h.Feedback); fb != "" {
			fmt.Fprintf(&b, ", feedback: %q", clip(fb, maxFeedbackLen))
		}
		b.WriteString("\n")
	}

	if len(c.Progress) > 0 {
		b.WriteString("\nRECENT PROGRESS\n")
		for _, r := range c.Progress {
			fmt.Fprintf(&b, "- %s: %s", clip(r.Metric, maxTagLen), formatFloat(r.Value))
			if r.Unit != "" {
				b.WriteString(" " + clip(r.Unit, maxTagLen))
			}
			fmt.Fprintf(&b, " (%s)\n", r.RecordedAt.UTC().Format("2006-01-02"))
		}
	}

	if avoid := ExercisesToAvoid(c.History); len(avoid) > 0 {
		fmt.Fprintf(&b, "\nAVOID REPEATING THESE EXERCISES: %s\n", joinTags(avoid, maxTagLen, ""))
	}
	if seen := normalizeTags(c.PreviousWorkouts); len(seen) > 0 {
		fmt.Fprintf(&b, "\nPREVIOUSLY SEEN WORKOUTS (do not reproduce): %s\n", joinTags(seen, maxTagLen, ""))
	}

	writeSchema(&b)
	b.WriteString("\nCONSTRAINTS\n")
	b.WriteString("- Use only the available equipment listed above; bodyweight exercises are always allowed.\n")
	fmt.Fprintf(&b, "- estimatedDuration must not exceed %d minutes, warm-up and cool-down included.\n", c.Minutes)
	b.WriteString("- Keep rest, sets, and reps realistic for the target progression level.\n")

	return Prompt{System: systemPersona, User: b.String()}
}

// BuildAdaptationPrompt renders the prompt for a plan adapted from feedback
// on a previous one.
func BuildAdaptationPrompt(c AdaptationContext) Prompt {
	var b strings.Builder
	prev := c.Previous

	b.WriteString("Adapt the previous workout plan based on the user's feedback.\n\n")

	b.WriteString("PREVIOUS PLAN\n")
	fmt.Fprintf(&b, "- Name: %s\n", clip(prev.Name, 100))
	fmt.Fprintf(&b, "- Type: %s, difficulty: %s, estimated duration: %d minutes\n",
		clip(prev.Type, maxTagLen), prev.Difficulty, prev.EstimatedDuration)
	fmt.Fprintf(&b, "- Equipment: %s\n", joinTags(c.Equipment, maxTagLen, Bodyweight))
	b.WriteString("- Exercises:\n")
	for _, e := range prev.Exercises {
		fmt.Fprintf(&b, "  - %s: %d sets", clip(e.Name, 100), e.Sets)
		if e.Reps != nil {
			fmt.Fprintf(&b, " x %d reps", *e.Reps)
		}
		if e.DurationSeconds != nil {
			fmt.Fprintf(&b, " x %ds", *e.DurationSeconds)
		}
		fmt.Fprintf(&b, ", rest %ds\n", e.RestSeconds)
	}
	if len(c.Injuries) > 0 {
		fmt.Fprintf(&b, "- Injuries/limitations: %s\n", joinTags(c.Injuries, maxGoalLen, ""))
	}

	fb := c.Feedback
	b.WriteString("\nFEEDBACK\n")
	fmt.Fprintf(&b, "- Performance rating: %d/5\n", fb.PerformanceRating)
	fmt.Fprintf(&b, "- Completion rate: %d%%\n", int(fb.CompletionRate*100+0.5))
	fmt.Fprintf(&b, "- Difficulty: %s\n", strings.ReplaceAll(string(fb.DifficultyFeedback), "_", " "))
	fmt.Fprintf(&b, "- Actual time: %d minutes\n", fb.TimeActual)

	b.WriteString("\nPROGRESSION\n")
	fmt.Fprintf(&b, "- Previous level: %d/10, new level: %d/10\n", c.PreviousLevel, c.NewLevel)
	fmt.Fprintf(&b, "- Why: %s\n", c.Reason)

	writeSchema(&b)
	b.WriteString("\nCONSTRAINTS\n")
	fmt.Fprintf(&b, "- Keep the workout type %q and the same equipment.\n", clip(prev.Type, maxTagLen))
	b.WriteString("- Adjust intensity, volume, and exercise complexity to the new level.\n")
	fmt.Fprintf(&b, "- estimatedDuration must stay within 10 minutes of %d.\n", prev.EstimatedDuration)

	return Prompt{System: systemPersona, User: b.String()}
}

// ExercisesToAvoid returns the exercise ids performed at least three times
// across the latest ten sessions, sorted.
func ExercisesToAvoid(history []domain.SessionHistoryEntry) []string {
	if len(history) > HistorySessionLimit {
		history = history[:HistorySessionLimit]
	}
	counts := make(map[string]int)
	for _, h := range history {
		for _, id := range h.ExerciseIDs {
			if id = strings.TrimSpace(id); id != "" {
				counts[id]++
			}
		}
	}
	var out []string
	for id, n := range counts {
		if n >= avoidRepeatThresh {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func writeSchema(b *strings.Builder) {
	b.WriteString("\nRESPOND WITH JSON MATCHING THIS SCHEMA\n")
	b.WriteString(PlanSchema.Describe())
	b.WriteString("\n")
}

func joinTags(tags []string, maxLen int, empty string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, clip(t, maxLen))
		}
		if len(out) == maxTagsPerList {
			break
		}
	}
	if len(out) == 0 {
		return empty
	}
	return strings.Join(out, ", ")
}

// clip truncates s to max runes.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var weekdays = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func weekday(i int) string {
	if i < 0 || i >= len(weekdays) {
		return "none"
	}
	return weekdays[i]
}
