package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeGearCheckedOut = "gear.checked_out"
	EventTypeGearCheckedIn  = "gear.checked_in"
	EventTypeGearChanged    = "gear.changed"
)

// GearCustodyEvent is published after a custody transition has committed.
type GearCustodyEvent struct {
	BaseEvent
	RecordID   string `json:"record_id"`
	GearTag    string `json:"gear_tag"`
	BorrowerID string `json:"borrower_id"`
	LeaderID   string `json:"leader_id"`
	Date       string `json:"date"`
}

func NewGearCheckedOutEvent(recordID, gearTag, borrowerID, leaderID, date string) *GearCustodyEvent {
	return newGearCustodyEvent(EventTypeGearCheckedOut, recordID, gearTag, borrowerID, leaderID, date)
}

func NewGearCheckedInEvent(recordID, gearTag, borrowerID, leaderID, date string) *GearCustodyEvent {
	return newGearCustodyEvent(EventTypeGearCheckedIn, recordID, gearTag, borrowerID, leaderID, date)
}

func newGearCustodyEvent(eventType, recordID, gearTag, borrowerID, leaderID, date string) *GearCustodyEvent {
	return &GearCustodyEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"record_id":   recordID,
				"gear_tag":    gearTag,
				"borrower_id": borrowerID,
				"leader_id":   leaderID,
				"date":        date,
			},
		},
		RecordID:   recordID,
		GearTag:    gearTag,
		BorrowerID: borrowerID,
		LeaderID:   leaderID,
		Date:       date,
	}
}

// GearChangedEvent is published when a gear document is created or edited
// outside the custody flow.
type GearChangedEvent struct {
	BaseEvent
	GearTag string `json:"gear_tag"`
}

func NewGearChangedEvent(gearTag string) *GearChangedEvent {
	return &GearChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGearChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"gear_tag": gearTag,
			},
		},
		GearTag: gearTag,
	}
}
