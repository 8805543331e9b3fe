package api

import (
	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/service"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const idempotencyKeyHeader = "Idempotency-Key"

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs for API (Data Transfer Objects) ---

type TimeCommitmentRequest struct {
	DaysPerWeek       int      `json:"daysPerWeek" binding:"required,min=1,max=7"`
	MinutesPerSession int      `json:"minutesPerSession" binding:"required,min=10,max=180"`
	PreferredTimes    []string `json:"preferredTimes" binding:"omitempty,max=5,dive,max=30"`
}

type PreferencesRequest struct {
	WorkoutTypes []string `json:"workoutTypes" binding:"omitempty,max=10,dive,max=50"`
	Intensity    string   `json:"intensity" binding:"required,oneof=low moderate high"`
	RestDay      *int     `json:"restDay" binding:"omitempty,min=0,max=6"`
	Injuries     []string `json:"injuries" binding:"omitempty,max=10,dive,max=100"`
}

// GenerateWorkoutRequest defines the expected JSON for a first plan. The
// profile fields are only used when the user has no stored profile yet.
type GenerateWorkoutRequest struct {
	WorkoutType        string                 `json:"workoutType" binding:"required,max=50"`
	ProgressionLevel   *int                   `json:"progressionLevel" binding:"omitempty,min=1,max=10"`
	FocusAreas         []string               `json:"focusAreas" binding:"omitempty,max=10,dive,max=50"`
	PreviousWorkouts   []string               `json:"previousWorkouts" binding:"omitempty,max=20,dive,max=50"`
	FitnessLevel       string                 `json:"fitnessLevel" binding:"omitempty,oneof=beginner intermediate advanced"`
	FitnessGoals       []string               `json:"fitnessGoals" binding:"omitempty,max=10,dive,max=100"`
	AvailableEquipment []string               `json:"availableEquipment" binding:"omitempty,max=30,dive,max=50"`
	TimeCommitment     *TimeCommitmentRequest `json:"timeCommitment"`
	Preferences        *PreferencesRequest    `json:"preferences"`
	IdempotencyKey     string                 `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// AdaptWorkoutRequest defines the expected JSON for adapting a finished plan.
type AdaptWorkoutRequest struct {
	PreviousWorkoutID  string   `json:"previousWorkoutId" binding:"required"`
	PerformanceRating  int      `json:"performanceRating" binding:"required,min=1,max=5"`
	CompletionRate     *float64 `json:"completionRate" binding:"required,min=0,max=1"`
	DifficultyFeedback string   `json:"difficultyFeedback" binding:"required,oneof=too_easy just_right too_hard"`
	TimeActual         *int     `json:"timeActual" binding:"required,min=0,max=600"`
}

type AdaptationResponse struct {
	NewProgressionLevel int    `json:"newProgressionLevel"`
	Reason              string `json:"reason"`
}

// GenerationResponse wraps a freshly stored plan.
type GenerationResponse struct {
	Success     bool                `json:"success"`
	WorkoutPlan *domain.PlanRecord  `json:"workoutPlan"`
	DedupeKey   string              `json:"dedupeKey"`
	Adaptations *AdaptationResponse `json:"adaptations,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (r GenerateWorkoutRequest) override() *domain.ProfileOverride {
	o := &domain.ProfileOverride{
		FitnessLevel:       domain.FitnessLevel(r.FitnessLevel),
		FitnessGoals:       r.FitnessGoals,
		AvailableEquipment: r.AvailableEquipment,
	}
	if tc := r.TimeCommitment; tc != nil {
		o.TimeCommitment = &domain.TimeCommitment{
			DaysPerWeek:       tc.DaysPerWeek,
			MinutesPerSession: tc.MinutesPerSession,
			PreferredTimes:    tc.PreferredTimes,
		}
	}
	if p := r.Preferences; p != nil {
		o.Preferences = &domain.Preferences{
			WorkoutTypes: p.WorkoutTypes,
			Intensity:    domain.Intensity(p.Intensity),
			RestDay:      p.RestDay,
			Injuries:     p.Injuries,
		}
	}
	return o
}

// --- Handlers ---

// Generate handles POST /api/v1/workouts/generate
func (h *WorkoutHandler) Generate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	var req GenerateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithKind(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), service.KindInvalidRequest)
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader(idempotencyKeyHeader)
	}

	result, err := h.workoutService.Generate(c.Request.Context(), service.GenerateRequest{
		UserID:           userID,
		WorkoutType:      req.WorkoutType,
		ProgressionLevel: req.ProgressionLevel,
		FocusAreas:       req.FocusAreas,
		PreviousWorkouts: req.PreviousWorkouts,
		Override:         req.override(),
		IdempotencyKey:   key,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GenerationResponse{
		Success:     true,
		WorkoutPlan: result.Plan,
		DedupeKey:   result.DedupeKey,
	})
}

// Adapt handles POST /api/v1/workouts/adapt
func (h *WorkoutHandler) Adapt(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	var req AdaptWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithKind(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), service.KindInvalidRequest)
		return
	}
	prevID, err := primitive.ObjectIDFromHex(req.PreviousWorkoutID)
	if err != nil {
		abortWithKind(c, http.StatusBadRequest, "Invalid previousWorkoutId format", service.KindInvalidRequest)
		return
	}

	result, err := h.workoutService.Adapt(c.Request.Context(), service.AdaptRequest{
		UserID:            userID,
		PreviousWorkoutID: prevID,
		Feedback: domain.SessionFeedback{
			PerformanceRating:  req.PerformanceRating,
			CompletionRate:     *req.CompletionRate,
			DifficultyFeedback: domain.DifficultyFeedback(req.DifficultyFeedback),
			TimeActual:         *req.TimeActual,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := GenerationResponse{
		Success:     true,
		WorkoutPlan: result.Plan,
		DedupeKey:   result.DedupeKey,
	}
	if a := result.Adaptation; a != nil {
		resp.Adaptations = &AdaptationResponse{NewProgressionLevel: a.NewProgressionLevel, Reason: a.Reason}
	}
	c.JSON(http.StatusCreated, resp)
}

// GetPlan handles GET /api/v1/workouts/{id}
func (h *WorkoutHandler) GetPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user identity")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithKind(c, http.StatusBadRequest, "Invalid workout ID format", service.KindInvalidRequest)
		return
	}

	plan, err := h.workoutService.GetPlan(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// statusForError maps a pipeline error kind onto an HTTP status.
func statusForError(e *service.GenerationError) int {
	switch e.Kind {
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	case service.KindProfileMissing:
		return http.StatusPreconditionFailed
	case service.KindModelError:
		if e.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case service.KindNoJSONFound, service.KindInvalidPlanSchema:
		return http.StatusBadGateway
	case service.KindPermissionDenied:
		return http.StatusForbidden
	case service.KindPlanNotFound:
		return http.StatusNotFound
	case service.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var genErr *service.GenerationError
	if !errors.As(err, &genErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Kind: "internal"})
		return
	}
	if genErr.Kind == service.KindRateLimited && genErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(genErr.RetryAfter.Seconds())))
	}
	c.AbortWithStatusJSON(statusForError(genErr), ErrorResponse{Error: genErr.Message, Kind: string(genErr.Kind)})
}

func abortWithKind(c *gin.Context, code int, message string, kind service.ErrorKind) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message, Kind: string(kind)})
}
