package checkout

import "time"

// CheckOut is one append-only row of the custody transaction log.
type CheckOut struct {
	ID          string    `gorm:"column:id;primaryKey" db:"id"`
	Date        string    `gorm:"column:date;not null" db:"date"`
	GearTag     string    `gorm:"column:gear_tag;index;not null" db:"gear_tag"`
	UserSpireID string    `gorm:"column:user_spire_id;index;not null" db:"user_spire_id"`
	LeadSpireID string    `gorm:"column:lead_spire_id;not null" db:"lead_spire_id"`
	Direction   string    `gorm:"column:direction;not null" db:"direction"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
}

func (CheckOut) TableName() string {
	return "check_outs"
}
