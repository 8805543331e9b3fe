package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/generator"
	"alcyxob/fitplan/internal/llm"
	"alcyxob/fitplan/internal/repository"
	"alcyxob/fitplan/internal/storage"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// defaultSessionMinutes applies when the profile leaves the session length unset.
	defaultSessionMinutes = 30
	maxLoggedRawLen       = 2000
	archiveTimeout        = 10 * time.Second
)

// ModelInvoker turns a prompt into raw model text.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt generator.Prompt) (*llm.Completion, error)
}

// GenerateRequest asks for a first plan of a workout type.
type GenerateRequest struct {
	UserID           primitive.ObjectID
	WorkoutType      string
	ProgressionLevel *int
	FocusAreas       []string
	PreviousWorkouts []string
	Override         *domain.ProfileOverride
	IdempotencyKey   string
}

// AdaptRequest asks for a new plan derived from a finished one.
type AdaptRequest struct {
	UserID            primitive.ObjectID
	PreviousWorkoutID primitive.ObjectID
	Feedback          domain.SessionFeedback
}

// GenerationResult is a persisted plan plus what the caller needs to dedupe it.
type GenerationResult struct {
	Plan       *domain.PlanRecord
	DedupeKey  string
	Adaptation *domain.Adaptation
}

// WorkoutService runs the plan generation pipeline.
type WorkoutService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error)
	Adapt(ctx context.Context, req AdaptRequest) (*GenerationResult, error)
	GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.PlanRecord, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	limiter      *RateLimiter
	profiles     *ProfileResolver
	history      *HistorySampler
	plans        repository.WorkoutPlanRepository
	model        ModelInvoker
	archive      storage.ResponseArchive
	modelTimeout time.Duration
	logger       zerolog.Logger
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	limiter *RateLimiter,
	profiles *ProfileResolver,
	history *HistorySampler,
	plans repository.WorkoutPlanRepository,
	model ModelInvoker,
	archive storage.ResponseArchive,
	modelTimeout time.Duration,
	logger zerolog.Logger,
) WorkoutService {
	if archive == nil {
		archive = storage.NewNoopArchive()
	}
	return &workoutService{
		limiter:      limiter,
		profiles:     profiles,
		history:      history,
		plans:        plans,
		model:        model,
		archive:      archive,
		modelTimeout: modelTimeout,
		logger:       logger.With().Str("component", "workout_service").Logger(),
	}
}

// Generate creates a first plan for the user.
func (s *workoutService) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	if req.UserID.IsZero() {
		return nil, invalidRequest("user id is required")
	}
	req.WorkoutType = strings.TrimSpace(req.WorkoutType)
	if req.WorkoutType == "" {
		return nil, invalidRequest("workout type is required")
	}
	log := s.logger.With().Str("userId", req.UserID.Hex()).Str("operation", OpGenerateWorkout).Logger()

	if err := s.limiter.CheckAndRecord(ctx, req.UserID, OpGenerateWorkout); err != nil {
		return nil, s.fail(log, err)
	}

	profile, err := s.profiles.Resolve(ctx, req.UserID, req.Override)
	if err != nil {
		return nil, s.fail(log, err)
	}

	sample, err := s.history.Sample(ctx, req.UserID)
	if err != nil {
		return nil, s.fail(log, err)
	}

	level := generator.ClampLevel(generator.ResolvePtr(
		generator.EstimateLevel(sample.History, profile.FitnessLevel),
		req.ProgressionLevel,
	))
	minutes := generator.Resolve(defaultSessionMinutes, profile.TimeCommitment.MinutesPerSession)
	equipment := generator.NormalizeEquipment(
		generator.ResolveSlice([]string{generator.Bodyweight}, profile.AvailableEquipment),
	)

	prompt := generator.BuildGenerationPrompt(generator.GenerationContext{
		Profile:          profile,
		WorkoutType:      req.WorkoutType,
		FocusAreas:       req.FocusAreas,
		PreviousWorkouts: req.PreviousWorkouts,
		Level:            level,
		Minutes:          minutes,
		Equipment:        equipment,
		History:          sample.History,
		Progress:         sample.Progress,
	})

	completion, plan, err := s.runModel(ctx, log, req.UserID, OpGenerateWorkout, prompt)
	if err != nil {
		return nil, s.fail(log, err)
	}
	generator.EnforceEquipment(plan, equipment)

	key := generator.ResolveKey(req.IdempotencyKey, generator.KeyInput{
		UserID:        req.UserID.Hex(),
		WorkoutType:   req.WorkoutType,
		Minutes:       minutes,
		Level:         level,
		Equipment:     equipment,
		ProfileDigest: profile.Digest(),
	})

	record := &domain.PlanRecord{
		UserID:            req.UserID,
		WorkoutPlan:       *plan,
		ProgressionLevel:  level,
		TrainingLoadIndex: profile.TrainingLoad(),
		DedupeKey:         key,
		Source:            domain.SourceGenerated,
		Usage:             completion.Usage,
	}
	if err := s.persist(ctx, record); err != nil {
		return nil, s.fail(log, err)
	}

	log.Info().
		Str("planId", record.ID.Hex()).
		Int("progressionLevel", level).
		Str("dedupeKey", key).
		Int("exercises", len(plan.Exercises)).
		Msg("workout plan generated")

	return &GenerationResult{Plan: record, DedupeKey: key}, nil
}

// Adapt creates a plan from a previous one and the user's feedback on it.
func (s *workoutService) Adapt(ctx context.Context, req AdaptRequest) (*GenerationResult, error) {
	if req.UserID.IsZero() || req.PreviousWorkoutID.IsZero() {
		return nil, invalidRequest("user id and previous workout id are required")
	}
	if err := validateFeedback(req.Feedback); err != nil {
		return nil, err
	}
	log := s.logger.With().
		Str("userId", req.UserID.Hex()).
		Str("operation", OpAdaptWorkout).
		Str("previousPlanId", req.PreviousWorkoutID.Hex()).
		Logger()

	if err := s.limiter.CheckAndRecord(ctx, req.UserID, OpAdaptWorkout); err != nil {
		return nil, s.fail(log, err)
	}

	prev, err := s.ownedPlan(ctx, req.UserID, req.PreviousWorkoutID)
	if err != nil {
		return nil, s.fail(log, err)
	}

	// The stored profile is optional here; the previous plan carries what is needed.
	profile, err := s.profiles.Resolve(ctx, req.UserID, nil)
	if err != nil {
		if !errors.Is(err, ErrProfileMissing) {
			return nil, s.fail(log, err)
		}
		log.Debug().Err(err).Msg("no usable profile, adapting from the previous plan alone")
		profile = nil
	}

	current := generator.LevelFromTrainingLoad(prev.TrainingLoadIndex)
	adapted := generator.AdaptLevel(generator.AdaptInput{
		CurrentLevel:      current,
		Feedback:          req.Feedback,
		EstimatedDuration: prev.EstimatedDuration,
	})

	var (
		profileEquipment []string
		injuries         []string
	)
	if profile != nil {
		profileEquipment = profile.AvailableEquipment
		injuries = profile.Preferences.Injuries
	}
	equipment := generator.NormalizeEquipment(
		generator.ResolveSlice([]string{generator.Bodyweight}, profileEquipment, prev.Equipment),
	)

	prompt := generator.BuildAdaptationPrompt(generator.AdaptationContext{
		Previous:      prev.WorkoutPlan,
		Feedback:      req.Feedback,
		PreviousLevel: current,
		NewLevel:      adapted.Level,
		Reason:        adapted.Reason(),
		Equipment:     equipment,
		Injuries:      injuries,
	})

	completion, plan, err := s.runModel(ctx, log, req.UserID, OpAdaptWorkout, prompt)
	if err != nil {
		return nil, s.fail(log, err)
	}
	generator.EnforceEquipment(plan, equipment)

	key := generator.DeriveKey(generator.KeyInput{
		UserID:        req.UserID.Hex(),
		WorkoutType:   prev.Type,
		Minutes:       prev.EstimatedDuration,
		Level:         adapted.Level,
		Equipment:     equipment,
		ProfileDigest: profile.Digest(),
	})

	adaptation := &domain.Adaptation{
		PreviousLevel:       current,
		NewProgressionLevel: adapted.Level,
		Reason:              adapted.Reason(),
		Feedback:            req.Feedback,
	}
	prevID := prev.ID
	tli := prev.TrainingLoadIndex
	if profile.TrainingLoad() != nil {
		tli = profile.TrainingLoad()
	}
	record := &domain.PlanRecord{
		UserID:            req.UserID,
		WorkoutPlan:       *plan,
		ProgressionLevel:  adapted.Level,
		TrainingLoadIndex: tli,
		DedupeKey:         key,
		Source:            domain.SourceAdapted,
		PreviousPlanID:    &prevID,
		Adaptation:        adaptation,
		Usage:             completion.Usage,
	}
	if err := s.persist(ctx, record); err != nil {
		return nil, s.fail(log, err)
	}

	log.Info().
		Str("planId", record.ID.Hex()).
		Int("previousLevel", current).
		Int("newProgressionLevel", adapted.Level).
		Str("reason", adaptation.Reason).
		Msg("workout plan adapted")

	return &GenerationResult{Plan: record, DedupeKey: key, Adaptation: adaptation}, nil
}

// GetPlan returns a stored plan owned by userID.
func (s *workoutService) GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.PlanRecord, error) {
	return s.ownedPlan(ctx, userID, planID)
}

func (s *workoutService) ownedPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.PlanRecord, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, planNotFound(err)
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, permissionDenied()
	}
	return plan, nil
}

// runModel invokes the model under the configured timeout and turns its text
// into a validated plan. Rejected output is logged and archived.
func (s *workoutService) runModel(ctx context.Context, log zerolog.Logger, userID primitive.ObjectID, op string, prompt generator.Prompt) (*llm.Completion, *domain.WorkoutPlan, error) {
	modelCtx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	defer cancel()

	start := time.Now()
	completion, err := s.model.Invoke(modelCtx, prompt)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded)
		return nil, nil, modelFailed(err, timeout)
	}
	log.Debug().Dur("latency", time.Since(start)).Int("rawLen", len(completion.Text)).Msg("model responded")

	jsonText, err := generator.ExtractJSON(completion.Text)
	if err != nil {
		s.reject(ctx, log, userID, op, completion.Text, nil)
		return nil, nil, noJSONFound(err)
	}

	plan, err := generator.ValidatePlan(jsonText)
	if err != nil {
		var schemaErr *generator.SchemaError
		if !errors.As(err, &schemaErr) {
			schemaErr = &generator.SchemaError{Issues: []generator.Issue{{Path: "$", Message: err.Error()}}}
		}
		s.reject(ctx, log, userID, op, completion.Text, schemaErr.Issues)
		return nil, nil, invalidPlan(schemaErr)
	}
	return completion, plan, nil
}

// reject logs unusable model output and archives the full text when enabled.
func (s *workoutService) reject(ctx context.Context, log zerolog.Logger, userID primitive.ObjectID, op, raw string, issues []generator.Issue) {
	event := log.Warn().Str("raw", truncate(raw, maxLoggedRawLen)).Int("rawLen", len(raw))
	if len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, issue := range issues {
			msgs[i] = issue.String()
		}
		event = event.Strs("issues", msgs)
	}

	if s.archive.Enabled() {
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()
		if key, err := s.archive.ArchiveRejected(archiveCtx, userID, op, raw); err == nil {
			event = event.Str("archiveKey", key)
			if url, err := s.archive.GeneratePresignedDownloadURL(archiveCtx, key, storage.DefaultPresignedURLExpiry); err == nil {
				event = event.Str("archiveUrl", url)
			}
		}
	}
	event.Msg("model output rejected")
}

func (s *workoutService) persist(ctx context.Context, record *domain.PlanRecord) error {
	id, err := s.plans.Create(ctx, record)
	if err != nil {
		return fmt.Errorf("store plan: %w", err)
	}
	record.ID = id
	return nil
}

// fail logs err with its kind and passes it through.
func (s *workoutService) fail(log zerolog.Logger, err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		event := log.Warn()
		if genErr.Kind == KindModelError {
			event = log.Error()
		}
		event.Err(genErr.Err).Str("kind", string(genErr.Kind)).Bool("timeout", genErr.Timeout).Msg(genErr.Message)
		return err
	}
	log.Error().Err(err).Msg("workout pipeline failed")
	return err
}

func validateFeedback(fb domain.SessionFeedback) error {
	switch {
	case fb.PerformanceRating < 1 || fb.PerformanceRating > 5:
		return invalidRequest("performanceRating must be between 1 and 5")
	case fb.CompletionRate < 0 || fb.CompletionRate > 1:
		return invalidRequest("completionRate must be between 0 and 1")
	case fb.TimeActual < 0:
		return invalidRequest("timeActual must not be negative")
	}
	switch fb.DifficultyFeedback {
	case domain.FeedbackTooEasy, domain.FeedbackJustRight, domain.FeedbackTooHard:
		return nil
	default:
		return invalidRequest("difficultyFeedback must be too_easy, just_right, or too_hard")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "...(truncated)"
}
