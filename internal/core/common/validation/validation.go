package validation

import (
	"fmt"
	"regexp"

	errors "github.com/umoc-outing-club/gear-locker/internal"
)

var (
	GearTagPattern         = regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`)
	InstitutionalIDPattern = regexp.MustCompile(`^[0-9]{8}$`)
	EmailPattern           = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	NamePattern            = regexp.MustCompile(`(?i)^[a-z ,.'-]+$`)
	PhonePattern           = regexp.MustCompile(`^([0-9]{1,2})?[0-9]{10}$`)
)

const (
	MinPasswordLength = 8
	MinPermLevel      = 0
	MaxPermLevel      = 2
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case string:
			missing = v == ""
		case *string:
			missing = v == nil || *v == ""
		case *bool:
			missing = v == nil
		case *int:
			missing = v == nil
		case nil:
			missing = true
		}
		if missing {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// Matches checks string values against pattern. Empty values are left to
// Required so optional fields can share the same chain.
func (fv *FieldValidator) Matches(pattern *regexp.Regexp, code errors.ErrorCode, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case *string:
			if v == nil {
				return nil
			}
			s = *v
		default:
			return nil
		}
		if s == "" {
			return nil
		}
		if !pattern.MatchString(s) {
			return errors.NewValidationFieldError(fv.FieldName, message, code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) IntRange(min, max int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		var n int
		switch v := value.(type) {
		case int:
			n = v
		case *int:
			if v == nil {
				return nil
			}
			n = *v
		default:
			return nil
		}
		if n < min || n > max {
			message := fmt.Sprintf("%s must be between %d and %d", fv.FieldName, min, max)
			return errors.NewValidationFieldError(fv.FieldName, message, code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) < min {
				message := fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min)
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) > max {
				message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every field and reports all failures. The returned error
// carries the code of the first failing field so callers can branch on it.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError
	var firstCode errors.ErrorCode

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if firstCode == "" {
				firstCode = appErr.Code
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: appErr.Message,
					Code:    string(appErr.Code),
				})
			}
			// one message per field is enough for a client to act on
			break
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("validation failed", firstCode).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

func ValidateGearTag(field, tag string) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, tag).
		Required().
		Matches(GearTagPattern, errors.ErrCodeInvalidGearTag, fmt.Sprintf("%s must be 3 uppercase letters followed by 3 digits", field))
	return validator.Validate()
}

func ValidateInstitutionalID(field, id string) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, id).
		Required().
		Matches(InstitutionalIDPattern, errors.ErrCodeInvalidInstitutionalID, fmt.Sprintf("%s must be an 8 digit institutional id", field))
	return validator.Validate()
}

func ValidateEmail(email string) *errors.AppError {
	validator := NewValidator()
	validator.Field("email", email).
		Required().
		Matches(EmailPattern, errors.ErrCodeInvalidEmail, "email is not a valid address")
	return validator.Validate()
}

func ValidatePassword(password string) *errors.AppError {
	validator := NewValidator()
	validator.Field("password", password).
		Required().
		MinLength(MinPasswordLength, errors.ErrCodeInvalidPassword)
	return validator.Validate()
}

// IsInstitutionalID reports whether identifier looks like an 8 digit
// institutional id rather than an email address.
func IsInstitutionalID(identifier string) bool {
	return InstitutionalIDPattern.MatchString(identifier)
}

func IsEmail(identifier string) bool {
	return EmailPattern.MatchString(identifier)
}
