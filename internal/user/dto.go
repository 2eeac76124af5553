package user

import (
	"strings"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
)

// SignUpDTO is the body of POST /api/createUser.
type SignUpDTO struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	PermLvl  *int    `json:"permLvl"`
	PhoneNum string  `json:"phoneNum"`
	SpireID  *string `json:"SPIRE_ID,omitempty"`
	Waiver   *bool   `json:"waiver"`
}

func (d *SignUpDTO) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
	d.Name = strings.TrimSpace(d.Name)
	d.PhoneNum = strings.TrimSpace(d.PhoneNum)
	if d.SpireID != nil {
		trimmed := strings.TrimSpace(*d.SpireID)
		if trimmed == "" {
			d.SpireID = nil
		} else {
			d.SpireID = &trimmed
		}
	}
}

func (d SignUpDTO) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).
		Required().
		Matches(validation.EmailPattern, apperrors.ErrCodeInvalidEmail, "email is not a valid address")
	v.Field("password", d.Password).
		Required().
		MinLength(validation.MinPasswordLength, apperrors.ErrCodeInvalidPassword)
	v.Field("name", d.Name).
		Required().
		Matches(validation.NamePattern, apperrors.ErrCodeInvalidName, "name may only contain letters, spaces and , . ' -")
	v.Field("permLvl", d.PermLvl).
		Required().
		IntRange(validation.MinPermLevel, validation.MaxPermLevel, apperrors.ErrCodeInvalidPermLevel)
	v.Field("phoneNum", d.PhoneNum).
		Required().
		Matches(validation.PhonePattern, apperrors.ErrCodeInvalidPhone, "phoneNum must be 10 digits with an optional country code")
	v.Field("SPIRE_ID", d.SpireID).
		Matches(validation.InstitutionalIDPattern, apperrors.ErrCodeInvalidInstitutionalID, "SPIRE_ID must be an 8 digit institutional id")
	v.Field("waiver", d.Waiver).
		Required()
	return v.Validate()
}

// UpdateUserDTO is a merge patch. Absent fields are left alone; the
// possession list is owned by the custody flow and cannot be patched.
type UpdateUserDTO struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	PermLvl  *int    `json:"permLvl,omitempty"`
	PhoneNum *string `json:"phoneNum,omitempty"`
	SpireID  *string `json:"SPIRE_ID,omitempty"`
	Waiver   *bool   `json:"waiver,omitempty"`
}

func (d UpdateUserDTO) IsEmpty() bool {
	return d.Email == nil && d.Name == nil && d.PermLvl == nil &&
		d.PhoneNum == nil && d.SpireID == nil && d.Waiver == nil
}

func (d UpdateUserDTO) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	if d.Email != nil {
		v.Field("email", *d.Email).
			Required().
			Matches(validation.EmailPattern, apperrors.ErrCodeInvalidEmail, "email is not a valid address")
	}
	if d.Name != nil {
		v.Field("name", *d.Name).
			Required().
			Matches(validation.NamePattern, apperrors.ErrCodeInvalidName, "name may only contain letters, spaces and , . ' -")
	}
	v.Field("permLvl", d.PermLvl).
		IntRange(validation.MinPermLevel, validation.MaxPermLevel, apperrors.ErrCodeInvalidPermLevel)
	if d.PhoneNum != nil {
		v.Field("phoneNum", *d.PhoneNum).
			Required().
			Matches(validation.PhonePattern, apperrors.ErrCodeInvalidPhone, "phoneNum must be 10 digits with an optional country code")
	}
	v.Field("SPIRE_ID", d.SpireID).
		Matches(validation.InstitutionalIDPattern, apperrors.ErrCodeInvalidInstitutionalID, "SPIRE_ID must be an 8 digit institutional id")
	return v.Validate()
}

// Fields maps the patch onto store columns.
func (d UpdateUserDTO) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if d.Email != nil {
		fields["email"] = strings.TrimSpace(*d.Email)
	}
	if d.Name != nil {
		fields["name"] = strings.TrimSpace(*d.Name)
	}
	if d.PermLvl != nil {
		fields["perm_lvl"] = *d.PermLvl
	}
	if d.PhoneNum != nil {
		fields["phone_num"] = strings.TrimSpace(*d.PhoneNum)
	}
	if d.SpireID != nil {
		if id := strings.TrimSpace(*d.SpireID); id != "" {
			fields["spire_id"] = id
		} else {
			fields["spire_id"] = nil
		}
	}
	if d.Waiver != nil {
		fields["waiver"] = *d.Waiver
	}
	return fields
}

type UserResponse struct {
	ID   string `json:"id"`
	Data *User  `json:"data"`
}

type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

type PossessionResponse struct {
	ID         string   `json:"id"`
	Possession []string `json:"possession"`
}
