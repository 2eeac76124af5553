package user

import "time"

// User is the stored user document. ID is the identity-provider id.
type User struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Email      string    `gorm:"column:email;index;not null"`
	Name       string    `gorm:"column:name;not null"`
	PermLvl    int       `gorm:"column:perm_lvl;not null;default:0"`
	PhoneNum   string    `gorm:"column:phone_num"`
	SpireID    *string   `gorm:"column:spire_id;index"`
	Waiver     bool      `gorm:"column:waiver;not null;default:false"`
	Possession []string  `gorm:"column:possession;type:text;serializer:json"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Permission levels stored in PermLvl.
const (
	PermMember        = 0
	PermLeader        = 1
	PermLockerManager = 2
)
