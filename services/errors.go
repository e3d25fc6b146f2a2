// Package services holds the adoption domain logic: answer validation,
// match scoring, the submission and consent state machines, and the
// outbound event dispatcher.
package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a stable machine readable code carried by every domain
// failure so clients can tell "pet no longer available" apart from
// "you already applied".
type ErrorCode string

const (
	// Validation of submitted answers
	ErrCodeUnknownQuestion       ErrorCode = "UNKNOWN_QUESTION"
	ErrCodeMissingRequiredAnswer ErrorCode = "MISSING_REQUIRED_ANSWER"
	ErrCodeMalformedAnswer       ErrorCode = "MALFORMED_ANSWER"
	ErrCodeInvalidSelection      ErrorCode = "INVALID_SELECTION"

	// Submission creation preconditions
	ErrCodeFormNotActive            ErrorCode = "FORM_NOT_ACTIVE"
	ErrCodePetNotAvailable          ErrorCode = "PET_NOT_AVAILABLE"
	ErrCodeDuplicateSubmission      ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeApplicantIsShelterMember ErrorCode = "APPLICANT_IS_SHELTER_MEMBER"

	// Submission lifecycle
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodeStaleStatus          ErrorCode = "STALE_STATUS"
	ErrCodeStaffNotInShelter    ErrorCode = "STAFF_NOT_IN_SHELTER"
	ErrCodeAlreadySelected      ErrorCode = "ALREADY_SELECTED"
	ErrCodeOutOfRange           ErrorCode = "OUT_OF_RANGE"
	ErrCodeFeedbackAlreadyGiven ErrorCode = "FEEDBACK_ALREADY_GIVEN"

	// Consent lifecycle
	ErrCodeConsentCancelled ErrorCode = "CONSENT_CANCELLED"
	ErrCodeDuplicateConsent ErrorCode = "DUPLICATE_CONSENT"

	// Generic
	ErrCodeValidation      ErrorCode = "VALIDATION"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE"
)

// Error is the one error type the services package returns for domain
// failures. Anything else bubbling out of a service is an infrastructure
// error (database down etc.) and maps to a 500.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Allowed is filled on INVALID_TRANSITION errors with the target
	// statuses the current status permits.
	Allowed []string `json:"allowed,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to the response status the controllers
// should use.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict, ErrCodeStaleStatus, ErrCodeDuplicateSubmission,
		ErrCodeDuplicateConsent, ErrCodeConsentCancelled:
		return http.StatusConflict
	case ErrCodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// AsDomainError unwraps err into *Error when it carries one.
func AsDomainError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound builds a NOT_FOUND error for the named entity.
func ErrNotFound(entity string) *Error {
	return newError(ErrCodeNotFound, "%s not found", entity)
}

// ErrForbidden builds a FORBIDDEN error.
func ErrForbidden(format string, args ...interface{}) *Error {
	return newError(ErrCodeForbidden, format, args...)
}

// ErrInvalidTransition reports a requested status outside the allowed
// set of the current one.
func ErrInvalidTransition(current, requested string, allowed []string) *Error {
	return &Error{
		Code: ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot move from %q to %q, allowed: %s",
			current, requested, strings.Join(allowed, ", ")),
		Allowed: allowed,
	}
}
