package custody

import (
	"strings"
	"time"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
)

// CheckGearRequest is the body of POST /api/checkGear/{flag}.
type CheckGearRequest struct {
	Date     string `json:"date"`
	GearTag  string `json:"gearID"`
	UserID   string `json:"userID"`
	LeaderID string `json:"leaderID"`
}

func (r *CheckGearRequest) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.GearTag = strings.TrimSpace(r.GearTag)
	r.UserID = strings.TrimSpace(r.UserID)
	r.LeaderID = strings.TrimSpace(r.LeaderID)
}

func (r CheckGearRequest) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("gearID", r.GearTag).
		Required().
		Matches(validation.GearTagPattern, apperrors.ErrCodeInvalidGearTag, "gearID must be 3 uppercase letters followed by 3 digits")
	v.Field("userID", r.UserID).
		Required().
		Matches(validation.InstitutionalIDPattern, apperrors.ErrCodeInvalidInstitutionalID, "userID must be an 8 digit institutional id")
	v.Field("leaderID", r.LeaderID).
		Required().
		Matches(validation.InstitutionalIDPattern, apperrors.ErrCodeInvalidInstitutionalID, "leaderID must be an 8 digit institutional id")
	v.Field("date", r.Date).
		Required().
		Custom(validDate)
	return v.Validate()
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func validDate(value interface{}) *apperrors.AppError {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return apperrors.NewValidationFieldError("date", "date must be YYYY-MM-DD or RFC 3339", apperrors.ErrCodeInvalidDate)
}

// LogQuery filters the transaction log. Empty fields match everything.
type LogQuery struct {
	GearTag    string
	BorrowerID string
	Limit      int
	Offset     int
}

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500
)

func (q *LogQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultLogLimit
	}
	if q.Limit > MaxLogLimit {
		q.Limit = MaxLogLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

func (q LogQuery) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("gearID", q.GearTag).
		Matches(validation.GearTagPattern, apperrors.ErrCodeInvalidGearTag, "gearID must be 3 uppercase letters followed by 3 digits")
	v.Field("userID", q.BorrowerID).
		Matches(validation.InstitutionalIDPattern, apperrors.ErrCodeInvalidInstitutionalID, "userID must be an 8 digit institutional id")
	return v.Validate()
}

type RecordsResponse struct {
	Records []*Record `json:"records"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}
