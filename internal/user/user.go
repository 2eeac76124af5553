package user

import (
	"time"

	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
)

type User struct {
	ID         string    `json:"-"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PermLvl    int       `json:"permLvl"`
	PhoneNum   string    `json:"phoneNum"`
	SpireID    *string   `json:"SPIRE_ID,omitempty"`
	Waiver     bool      `json:"waiver"`
	Possession []string  `json:"possession"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) IsLeader() bool {
	return u.PermLvl >= userDatamodel.PermLeader
}

func (u *User) IsLockerManager() bool {
	return u.PermLvl >= userDatamodel.PermLockerManager
}

// ToResponse wraps the user the way the document API returns it.
func (u *User) ToResponse() UserResponse {
	if u.Possession == nil {
		u.Possession = []string{}
	}
	return UserResponse{ID: u.ID, Data: u}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		PermLvl:    u.PermLvl,
		PhoneNum:   u.PhoneNum,
		SpireID:    u.SpireID,
		Waiver:     u.Waiver,
		Possession: u.Possession,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	possession := u.Possession
	if possession == nil {
		possession = []string{}
	}
	return &User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		PermLvl:    u.PermLvl,
		PhoneNum:   u.PhoneNum,
		SpireID:    u.SpireID,
		Waiver:     u.Waiver,
		Possession: possession,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
