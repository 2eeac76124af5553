package gear

import "time"

type Gear struct {
	ID            string            `gorm:"column:id;primaryKey"`
	GearTag       string            `gorm:"column:gear_tag;uniqueIndex;not null"`
	Name          string            `gorm:"column:name;not null"`
	Photo         string            `gorm:"column:photo"`
	Category      []string          `gorm:"column:category;type:text;serializer:json"`
	CheckedOut    bool              `gorm:"column:checked_out;not null;default:false"`
	GearFields    GearFields        `gorm:"column:gear_fields;type:text;serializer:json"`
	LeaderFields  LeaderFields      `gorm:"column:leader_fields;type:text;serializer:json"`
	ManagerFields ManagerFields     `gorm:"column:manager_fields;type:text;serializer:json"`
	Extra         map[string]string `gorm:"column:extra;type:text;serializer:json"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Gear) TableName() string {
	return "gear"
}

type GearFields struct {
	Brand string `json:"brand"`
	Color string `json:"color"`
	Notes string `json:"notes,omitempty"`
	Size  string `json:"size,omitempty"`
}

type LeaderFields struct {
	LeaderNotes string `json:"leaderNotes,omitempty"`
}

type ManagerFields struct {
	Created      string  `json:"created,omitempty"`
	LastUpdated  string  `json:"lastUpdated,omitempty"`
	ManagerNotes string  `json:"managerNotes,omitempty"`
	Price        float64 `json:"price,omitempty"`
}
