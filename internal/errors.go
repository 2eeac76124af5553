package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeState        ErrorType = "STATE_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
)

type ErrorCode string

const (
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidGearTag         ErrorCode = "INVALID_GEAR_TAG"
	ErrCodeInvalidInstitutionalID ErrorCode = "INVALID_INSTITUTIONAL_ID"
	ErrCodeInvalidCheckFlag       ErrorCode = "INVALID_CHECK_FLAG"
	ErrCodeInvalidDate            ErrorCode = "INVALID_DATE"
	ErrCodeInvalidEmail           ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidPassword        ErrorCode = "INVALID_PASSWORD"
	ErrCodeInvalidName            ErrorCode = "INVALID_NAME"
	ErrCodeInvalidPermLevel       ErrorCode = "INVALID_PERM_LEVEL"
	ErrCodeInvalidPhone           ErrorCode = "INVALID_PHONE"
	ErrCodeInvalidWaiver          ErrorCode = "INVALID_WAIVER"
	ErrCodeInvalidCategory        ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidIdentifier      ErrorCode = "INVALID_IDENTIFIER"

	ErrCodeBorrowerNotFound ErrorCode = "BORROWER_NOT_FOUND"
	ErrCodeLeaderNotFound   ErrorCode = "LEADER_NOT_FOUND"
	ErrCodeGearNotFound     ErrorCode = "GEAR_NOT_FOUND"
	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"

	ErrCodeGearNotInPossession ErrorCode = "GEAR_NOT_IN_POSSESSION"
	ErrCodeGearHeldByOther     ErrorCode = "GEAR_HELD_BY_OTHER"
	ErrCodeLeaderRoleRequired  ErrorCode = "LEADER_ROLE_REQUIRED"
	ErrCodeDuplicateGearTag    ErrorCode = "DUPLICATE_GEAR_TAG"
	ErrCodeDuplicateSpireID    ErrorCode = "DUPLICATE_SPIRE_ID"
	ErrCodeUserHoldsGear       ErrorCode = "USER_HOLDS_GEAR"

	ErrCodeDuplicateAccount   ErrorCode = "DUPLICATE_ACCOUNT"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"

	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches app errors by type and code so that sentinel values can be
// compared with errors.Is after being copied or wrapped.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewStateError reports a request that is well formed but not allowed in
// the current state of the stored documents.
func NewStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewExternalError wraps a failure reported by the identity provider. The
// provider message is kept verbatim.
func NewExternalError(message string, code ErrorCode, status int) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: status,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       ErrCodeRateLimitExceeded,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

var (
	ErrBorrowerNotFound    = NewNotFoundError("borrower not found", ErrCodeBorrowerNotFound)
	ErrLeaderNotFound      = NewNotFoundError("leader not found", ErrCodeLeaderNotFound)
	ErrGearNotFound        = NewNotFoundError("gear not found", ErrCodeGearNotFound)
	ErrUserNotFound        = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrGearNotInPossession = NewStateError("gear is not in the borrower's possession", ErrCodeGearNotInPossession)
	ErrGearHeldByOther     = NewStateError("gear is checked out to another user", ErrCodeGearHeldByOther)
	ErrLeaderRoleRequired  = NewForbiddenError("approving user is not a leader", ErrCodeLeaderRoleRequired)
	ErrDuplicateGearTag    = NewConflictError("gear tag already exists", ErrCodeDuplicateGearTag)
	ErrDuplicateSpireID    = NewConflictError("institutional id belongs to another user", ErrCodeDuplicateSpireID)
	ErrUserHoldsGear       = NewStateError("user still has gear checked out", ErrCodeUserHoldsGear)

	ErrDuplicateAccount   = NewExternalError("an account already exists for this email", ErrCodeDuplicateAccount, http.StatusConflict)
	ErrInvalidCredentials = NewUnauthorizedError("invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrInsufficientRole   = NewForbiddenError("insufficient permission level", ErrCodeInsufficientRole)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
