package gear

import (
	"strings"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
)

// CreateGearDTO is the body of POST /api/gear. The checked-out flag is not
// accepted; new gear always starts in the locker.
type CreateGearDTO struct {
	GearTag       string            `json:"id"`
	Name          string            `json:"name"`
	Photo         string            `json:"photo"`
	Category      []string          `json:"category"`
	GearFields    GearFields        `json:"gearFields"`
	LeaderFields  LeaderFields      `json:"leaderFields"`
	ManagerFields ManagerFields     `json:"managerFields"`
	Extra         map[string]string `json:"extra,omitempty"`
}

func (d *CreateGearDTO) Normalize() {
	d.GearTag = strings.TrimSpace(d.GearTag)
	d.Name = strings.TrimSpace(d.Name)
	d.Photo = strings.TrimSpace(d.Photo)
	d.Category = normalizeCategories(d.Category)
}

func (d CreateGearDTO) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("id", d.GearTag).
		Required().
		Matches(validation.GearTagPattern, apperrors.ErrCodeInvalidGearTag, "id must be 3 uppercase letters followed by 3 digits")
	v.Field("name", d.Name).
		Required().
		MaxLength(120)
	v.Field("photo", d.Photo).
		MaxLength(2048)
	return v.Validate()
}

// UpdateGearDTO is a merge patch. Nested objects replace the stored ones
// whole; extra keys are merged one by one. The checked-out flag belongs to
// the custody flow and is not part of the patch.
type UpdateGearDTO struct {
	Name          *string           `json:"name,omitempty"`
	Photo         *string           `json:"photo,omitempty"`
	Category      *[]string         `json:"category,omitempty"`
	GearFields    *GearFields       `json:"gearFields,omitempty"`
	LeaderFields  *LeaderFields     `json:"leaderFields,omitempty"`
	ManagerFields *ManagerFields    `json:"managerFields,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

func (d UpdateGearDTO) IsEmpty() bool {
	return d.Name == nil && d.Photo == nil && d.Category == nil &&
		d.GearFields == nil && d.LeaderFields == nil && d.ManagerFields == nil &&
		len(d.Extra) == 0
}

func (d UpdateGearDTO) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", strings.TrimSpace(*d.Name)).
			Required().
			MaxLength(120)
	}
	if d.Photo != nil {
		v.Field("photo", *d.Photo).MaxLength(2048)
	}
	return v.Validate()
}

// Apply merges the patch into g.
func (d UpdateGearDTO) Apply(g *Gear) {
	if d.Name != nil {
		g.Name = strings.TrimSpace(*d.Name)
	}
	if d.Photo != nil {
		g.Photo = strings.TrimSpace(*d.Photo)
	}
	if d.Category != nil {
		g.Category = normalizeCategories(*d.Category)
	}
	if d.GearFields != nil {
		g.GearFields = *d.GearFields
	}
	if d.LeaderFields != nil {
		g.LeaderFields = *d.LeaderFields
	}
	if d.ManagerFields != nil {
		g.ManagerFields = *d.ManagerFields
	}
	if len(d.Extra) > 0 {
		if g.Extra == nil {
			g.Extra = make(map[string]string, len(d.Extra))
		}
		for k, val := range d.Extra {
			g.Extra[k] = val
		}
	}
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

type GearResponse struct {
	ID   string `json:"id"`
	Data *Gear  `json:"data"`
}

type SavedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}
