package gear

import (
	"time"

	gearDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/gear"
)

type (
	GearFields    = gearDatamodel.GearFields
	LeaderFields  = gearDatamodel.LeaderFields
	ManagerFields = gearDatamodel.ManagerFields
)

// Gear is a lendable item. GearTag is the human facing id printed on the
// item and is what clients call "id".
type Gear struct {
	ID            string            `json:"-"`
	GearTag       string            `json:"id"`
	Name          string            `json:"name"`
	Photo         string            `json:"photo"`
	Category      []string          `json:"category"`
	CheckedOut    bool              `json:"checkedOut"`
	GearFields    GearFields        `json:"gearFields"`
	LeaderFields  LeaderFields      `json:"leaderFields"`
	ManagerFields ManagerFields     `json:"managerFields"`
	Extra         map[string]string `json:"extra,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (g *Gear) ToResponse() GearResponse {
	return GearResponse{ID: g.ID, Data: g}
}

func ToDataModel(g *Gear) *gearDatamodel.Gear {
	return &gearDatamodel.Gear{
		ID:            g.ID,
		GearTag:       g.GearTag,
		Name:          g.Name,
		Photo:         g.Photo,
		Category:      g.Category,
		CheckedOut:    g.CheckedOut,
		GearFields:    g.GearFields,
		LeaderFields:  g.LeaderFields,
		ManagerFields: g.ManagerFields,
		Extra:         g.Extra,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func FromDataModel(g *gearDatamodel.Gear) *Gear {
	category := g.Category
	if category == nil {
		category = []string{}
	}
	return &Gear{
		ID:            g.ID,
		GearTag:       g.GearTag,
		Name:          g.Name,
		Photo:         g.Photo,
		Category:      category,
		CheckedOut:    g.CheckedOut,
		GearFields:    g.GearFields,
		LeaderFields:  g.LeaderFields,
		ManagerFields: g.ManagerFields,
		Extra:         g.Extra,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}
