package service

import (
	"fmt"
	"time"

	"alcyxob/fitplan/internal/generator"
)

// ErrorKind is the machine-readable class of a pipeline failure.
type ErrorKind string

const (
	KindRateLimited       ErrorKind = "rate_limited"
	KindProfileMissing    ErrorKind = "profile_missing"
	KindModelError        ErrorKind = "model_error"
	KindNoJSONFound       ErrorKind = "no_json_found"
	KindInvalidPlanSchema ErrorKind = "invalid_plan_schema"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindPlanNotFound      ErrorKind = "plan_not_found"
	KindInvalidRequest    ErrorKind = "invalid_request"
)

// GenerationError is returned for every pipeline failure the caller can act
// on. Store outages come back as plain wrapped errors.
// Message is safe to show to the caller; Err keeps the detail for logs.
type GenerationError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration     // rate_limited only
	Timeout    bool              // model_error only
	Issues     []generator.Issue // invalid_plan_schema only
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches any GenerationError of the same kind, so the sentinels below work with errors.Is.
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	return ok && t.Kind == e.Kind
}

// --- Error Definitions ---
var (
	ErrRateLimited       = &GenerationError{Kind: KindRateLimited}
	ErrProfileMissing    = &GenerationError{Kind: KindProfileMissing}
	ErrModel             = &GenerationError{Kind: KindModelError}
	ErrNoJSONFound       = &GenerationError{Kind: KindNoJSONFound}
	ErrInvalidPlanSchema = &GenerationError{Kind: KindInvalidPlanSchema}
	ErrPermissionDenied  = &GenerationError{Kind: KindPermissionDenied}
	ErrPlanNotFound      = &GenerationError{Kind: KindPlanNotFound}
	ErrInvalidRequest    = &GenerationError{Kind: KindInvalidRequest}
)

func rateLimited(retryAfter time.Duration) *GenerationError {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &GenerationError{
		Kind:       KindRateLimited,
		Message:    fmt.Sprintf("too many workout requests, try again in %d seconds", secs),
		RetryAfter: time.Duration(secs) * time.Second,
	}
}

func profileMissing(err error) *GenerationError {
	return &GenerationError{
		Kind:    KindProfileMissing,
		Message: "complete your fitness profile before generating a workout",
		Err:     err,
	}
}

func modelFailed(err error, timeout bool) *GenerationError {
	msg := "workout generation failed, please try again"
	if timeout {
		msg = "workout generation timed out, please try again"
	}
	return &GenerationError{Kind: KindModelError, Message: msg, Timeout: timeout, Err: err}
}

func noJSONFound(err error) *GenerationError {
	return &GenerationError{Kind: KindNoJSONFound, Message: "model returned an invalid plan", Err: err}
}

func invalidPlan(err *generator.SchemaError) *GenerationError {
	return &GenerationError{Kind: KindInvalidPlanSchema, Message: "model returned an invalid plan", Issues: err.Issues, Err: err}
}

func permissionDenied() *GenerationError {
	return &GenerationError{Kind: KindPermissionDenied, Message: "you do not have access to this workout plan"}
}

func planNotFound(err error) *GenerationError {
	return &GenerationError{Kind: KindPlanNotFound, Message: "workout plan not found", Err: err}
}

func invalidRequest(msg string) *GenerationError {
	return &GenerationError{Kind: KindInvalidRequest, Message: msg}
}
