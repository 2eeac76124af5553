package custody

import (
	"fmt"
	"time"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	checkoutDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/checkout"
)

// Direction is the custody transition requested by a leader.
type Direction int

const (
	CheckOut Direction = iota + 1
	CheckIn
)

const (
	flagCheckOut = "checkOut"
	flagCheckIn  = "checkIn"
)

func (d Direction) String() string {
	switch d {
	case CheckOut:
		return flagCheckOut
	case CheckIn:
		return flagCheckIn
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func (d Direction) Valid() bool {
	return d == CheckOut || d == CheckIn
}

// ParseDirection accepts the two URL flags and nothing else.
func ParseDirection(flag string) (Direction, error) {
	switch flag {
	case flagCheckOut:
		return CheckOut, nil
	case flagCheckIn:
		return CheckIn, nil
	default:
		return 0, apperrors.NewValidationFieldError("flag",
			fmt.Sprintf("flag must be %q or %q", flagCheckOut, flagCheckIn),
			apperrors.ErrCodeInvalidCheckFlag)
	}
}

// Record is one entry of the transaction log.
type Record struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	GearTag    string    `json:"gearID"`
	BorrowerID string    `json:"userSPIRE_ID"`
	LeaderID   string    `json:"leadSPIRE_ID"`
	Direction  string    `json:"direction"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToDataModel(r *Record) *checkoutDatamodel.CheckOut {
	return &checkoutDatamodel.CheckOut{
		ID:          r.ID,
		Date:        r.Date,
		GearTag:     r.GearTag,
		UserSpireID: r.BorrowerID,
		LeadSpireID: r.LeaderID,
		Direction:   r.Direction,
		CreatedAt:   r.CreatedAt,
	}
}

func FromDataModel(c *checkoutDatamodel.CheckOut) *Record {
	return &Record{
		ID:         c.ID,
		Date:       c.Date,
		GearTag:    c.GearTag,
		BorrowerID: c.UserSpireID,
		LeaderID:   c.LeadSpireID,
		Direction:  c.Direction,
		CreatedAt:  c.CreatedAt,
	}
}

func containsTag(possession []string, tag string) bool {
	for _, t := range possession {
		if t == tag {
			return true
		}
	}
	return false
}

// withoutTag drops every occurrence of tag and reports whether any was found.
func withoutTag(possession []string, tag string) ([]string, bool) {
	out := make([]string, 0, len(possession))
	found := false
	for _, t := range possession {
		if t == tag {
			found = true
			continue
		}
		out = append(out, t)
	}
	return out, found
}
