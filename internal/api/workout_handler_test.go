package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testSecret = "test-secret"
	testIssuer = "fitness-app"
)

type fakeWorkoutService struct {
	generateReq *service.GenerateRequest
	adaptReq    *service.AdaptRequest
	result      *service.GenerationResult
	plan        *domain.PlanRecord
	err         error
}

func (f *fakeWorkoutService) Generate(_ context.Context, req service.GenerateRequest) (*service.GenerationResult, error) {
	f.generateReq = &req
	return f.result, f.err
}

func (f *fakeWorkoutService) Adapt(_ context.Context, req service.AdaptRequest) (*service.GenerationResult, error) {
	f.adaptReq = &req
	return f.result, f.err
}

func (f *fakeWorkoutService) GetPlan(_ context.Context, _, _ primitive.ObjectID) (*domain.PlanRecord, error) {
	return f.plan, f.err
}

func newTestRouter(svc service.WorkoutService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, testSecret, testIssuer, svc)
	return router
}

func signToken(t *testing.T, uid, issuer string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwtClaims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func samplePlanRecord(userID primitive.ObjectID) *domain.PlanRecord {
	reps := 10
	return &domain.PlanRecord{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		WorkoutPlan: domain.WorkoutPlan{
			Name:              "Bodyweight Basics",
			Type:              "strength_training",
			Difficulty:        domain.DifficultyBeginner,
			EstimatedDuration: 30,
			Exercises: []domain.Exercise{{
				Name: "Push-up", Sets: 3, Reps: &reps, RestSeconds: 60,
				Equipment: []string{"bodyweight"}, Difficulty: domain.DifficultyBeginner,
			}},
			Equipment: []string{"bodyweight"},
		},
		ProgressionLevel: 3,
		DedupeKey:        "abc123",
		Source:           domain.SourceGenerated,
		Usage:            &domain.TokenUsage{TotalTokens: 900},
		CreatedAt:        time.Now().UTC(),
	}
}

func TestAuthMiddleware(t *testing.T) {
	uid := primitive.NewObjectID().Hex()
	router := newTestRouter(&fakeWorkoutService{})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, uid, testIssuer, -time.Minute), http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signToken(t, uid, "someone-else", time.Hour), http.StatusUnauthorized},
		{"uid not an object id", "Bearer " + signToken(t, "user-42", testIssuer, time.Hour), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/workouts/"+primitive.NewObjectID().Hex(), nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPing(t *testing.T) {
	w := doRequest(newTestRouter(&fakeWorkoutService{}), http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateSuccess(t *testing.T) {
	userID := primitive.NewObjectID()
	plan := samplePlanRecord(userID)
	svc := &fakeWorkoutService{result: &service.GenerationResult{Plan: plan, DedupeKey: plan.DedupeKey}}
	router := newTestRouter(svc)

	body := map[string]any{
		"workoutType":        "strength_training",
		"progressionLevel":   4,
		"focusAreas":         []string{"legs"},
		"fitnessLevel":       "beginner",
		"fitnessGoals":       []string{"build strength"},
		"availableEquipment": []string{"Dumbbells"},
		"timeCommitment":     map[string]any{"daysPerWeek": 3, "minutesPerSession": 30},
		"preferences":        map[string]any{"intensity": "moderate"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts/generate", func() *bytes.Buffer {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(body)
		return &buf
	}())
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID.Hex(), testIssuer, time.Hour))
	req.Header.Set(idempotencyKeyHeader, "client-key-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, svc.generateReq)
	assert.Equal(t, userID, svc.generateReq.UserID)
	assert.Equal(t, "strength_training", svc.generateReq.WorkoutType)
	require.NotNil(t, svc.generateReq.ProgressionLevel)
	assert.Equal(t, 4, *svc.generateReq.ProgressionLevel)
	assert.Equal(t, "client-key-1", svc.generateReq.IdempotencyKey)
	require.NotNil(t, svc.generateReq.Override)
	assert.Equal(t, domain.FitnessLevel("beginner"), svc.generateReq.Override.FitnessLevel)
	require.NotNil(t, svc.generateReq.Override.TimeCommitment)
	assert.Equal(t, 30, svc.generateReq.Override.TimeCommitment.MinutesPerSession)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "abc123", resp["dedupeKey"])
	assert.NotContains(t, resp, "adaptations")

	wp, ok := resp["workoutPlan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, plan.ID.Hex(), wp["id"])
	assert.Equal(t, "Bodyweight Basics", wp["name"])
	assert.NotContains(t, wp, "usage")
}

func TestGenerateBodyKeyWinsOverHeader(t *testing.T) {
	userID := primitive.NewObjectID()
	svc := &fakeWorkoutService{result: &service.GenerationResult{Plan: samplePlanRecord(userID)}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts/generate",
		bytes.NewBufferString(`{"workoutType":"cardio","idempotencyKey":"from-body"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID.Hex(), testIssuer, time.Hour))
	req.Header.Set(idempotencyKeyHeader, "from-header")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "from-body", svc.generateReq.IdempotencyKey)
}

func TestGenerateRejectsBadBody(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, userID.Hex(), testIssuer, time.Hour)

	tests := []struct {
		name string
		body any
	}{
		{"missing workout type", map[string]any{}},
		{"level out of range", map[string]any{"workoutType": "cardio", "progressionLevel": 11}},
		{"unknown fitness level", map[string]any{"workoutType": "cardio", "fitnessLevel": "elite"}},
		{"bad intensity", map[string]any{"workoutType": "cardio", "preferences": map[string]any{"intensity": "extreme"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeWorkoutService{}
			w := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/workouts/generate", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, svc.generateReq)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(service.KindInvalidRequest), resp.Kind)
		})
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, userID.Hex(), testIssuer, time.Hour)

	tests := []struct {
		name string
		err  error
		want int
		kind string
	}{
		{"rate limited", &service.GenerationError{Kind: service.KindRateLimited, Message: "slow down", RetryAfter: 12 * time.Second}, http.StatusTooManyRequests, "rate_limited"},
		{"profile missing", &service.GenerationError{Kind: service.KindProfileMissing, Message: "no profile"}, http.StatusPreconditionFailed, "profile_missing"},
		{"model error", &service.GenerationError{Kind: service.KindModelError, Message: "boom"}, http.StatusBadGateway, "model_error"},
		{"model timeout", &service.GenerationError{Kind: service.KindModelError, Message: "slow", Timeout: true}, http.StatusGatewayTimeout, "model_error"},
		{"no json", &service.GenerationError{Kind: service.KindNoJSONFound, Message: "bad"}, http.StatusBadGateway, "no_json_found"},
		{"invalid schema", &service.GenerationError{Kind: service.KindInvalidPlanSchema, Message: "bad"}, http.StatusBadGateway, "invalid_plan_schema"},
		{"store outage", errors.New("mongo down"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeWorkoutService{err: tt.err})
			w := doRequest(router, http.MethodPost, "/api/v1/workouts/generate", token, map[string]any{"workoutType": "cardio"})
			assert.Equal(t, tt.want, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotContains(t, resp.Error, "mongo down")
		})
	}
}

func TestGenerateRateLimitedSetsRetryAfter(t *testing.T) {
	userID := primitive.NewObjectID()
	svc := &fakeWorkoutService{err: &service.GenerationError{Kind: service.KindRateLimited, Message: "slow down", RetryAfter: 12 * time.Second}}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/workouts/generate",
		signToken(t, userID.Hex(), testIssuer, time.Hour), map[string]any{"workoutType": "cardio"})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "12", w.Header().Get("Retry-After"))
}

func TestAdaptSuccess(t *testing.T) {
	userID := primitive.NewObjectID()
	prevID := primitive.NewObjectID()
	plan := samplePlanRecord(userID)
	plan.Source = domain.SourceAdapted
	svc := &fakeWorkoutService{result: &service.GenerationResult{
		Plan:      plan,
		DedupeKey: plan.DedupeKey,
		Adaptation: &domain.Adaptation{
			PreviousLevel:       6,
			NewProgressionLevel: 7,
			Reason:              "high performance and completion (+1)",
		},
	}}

	body := map[string]any{
		"previousWorkoutId":  prevID.Hex(),
		"performanceRating":  5,
		"completionRate":     0.95,
		"difficultyFeedback": "just_right",
		"timeActual":         40,
	}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/workouts/adapt",
		signToken(t, userID.Hex(), testIssuer, time.Hour), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, svc.adaptReq)
	assert.Equal(t, prevID, svc.adaptReq.PreviousWorkoutID)
	assert.Equal(t, 5, svc.adaptReq.Feedback.PerformanceRating)
	assert.InDelta(t, 0.95, svc.adaptReq.Feedback.CompletionRate, 1e-9)
	assert.Equal(t, domain.FeedbackJustRight, svc.adaptReq.Feedback.DifficultyFeedback)

	var resp GenerationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Adaptations)
	assert.Equal(t, 7, resp.Adaptations.NewProgressionLevel)
	assert.Equal(t, "high performance and completion (+1)", resp.Adaptations.Reason)
}

func TestAdaptAcceptsZeroCompletion(t *testing.T) {
	userID := primitive.NewObjectID()
	svc := &fakeWorkoutService{result: &service.GenerationResult{Plan: samplePlanRecord(userID)}}
	body := map[string]any{
		"previousWorkoutId":  primitive.NewObjectID().Hex(),
		"performanceRating":  1,
		"completionRate":     0,
		"difficultyFeedback": "too_hard",
		"timeActual":         0,
	}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/workouts/adapt",
		signToken(t, userID.Hex(), testIssuer, time.Hour), body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAdaptRejectsBadBody(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, userID.Hex(), testIssuer, time.Hour)
	valid := func() map[string]any {
		return map[string]any{
			"previousWorkoutId":  primitive.NewObjectID().Hex(),
			"performanceRating":  3,
			"completionRate":     0.5,
			"difficultyFeedback": "just_right",
			"timeActual":         30,
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"bad previous id", func(b map[string]any) { b["previousWorkoutId"] = "nope" }},
		{"rating too high", func(b map[string]any) { b["performanceRating"] = 6 }},
		{"completion above one", func(b map[string]any) { b["completionRate"] = 1.5 }},
		{"missing completion", func(b map[string]any) { delete(b, "completionRate") }},
		{"unknown difficulty", func(b map[string]any) { b["difficultyFeedback"] = "meh" }},
		{"negative time", func(b map[string]any) { b["timeActual"] = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.mutate(body)
			svc := &fakeWorkoutService{}
			w := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/workouts/adapt", token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, svc.adaptReq)
		})
	}
}

func TestAdaptErrorMapping(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, userID.Hex(), testIssuer, time.Hour)
	body := map[string]any{
		"previousWorkoutId":  primitive.NewObjectID().Hex(),
		"performanceRating":  3,
		"completionRate":     0.5,
		"difficultyFeedback": "just_right",
		"timeActual":         30,
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not owner", &service.GenerationError{Kind: service.KindPermissionDenied, Message: "no"}, http.StatusForbidden},
		{"not found", &service.GenerationError{Kind: service.KindPlanNotFound, Message: "gone"}, http.StatusNotFound},
		{"invalid request", &service.GenerationError{Kind: service.KindInvalidRequest, Message: "bad"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(newTestRouter(&fakeWorkoutService{err: tt.err}), http.MethodPost, "/api/v1/workouts/adapt", token, body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestGetPlan(t *testing.T) {
	userID := primitive.NewObjectID()
	plan := samplePlanRecord(userID)
	token := signToken(t, userID.Hex(), testIssuer, time.Hour)

	w := doRequest(newTestRouter(&fakeWorkoutService{plan: plan}), http.MethodGet, "/api/v1/workouts/"+plan.ID.Hex(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, plan.ID.Hex(), resp["id"])

	w = doRequest(newTestRouter(&fakeWorkoutService{}), http.MethodGet, "/api/v1/workouts/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
