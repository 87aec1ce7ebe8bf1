package models

import "time"

// Coordination request types.
const (
	RequestTypeBooking  = "booking"
	RequestTypeSlotSwap = "slot_swap"
	RequestTypeConflict = "conflict"
)

// Coordination request statuses. Pending is the only non-terminal state.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Resolution actions accepted by the workflow.
const (
	RequestActionApproved = "approved"
	RequestActionRejected = "rejected"
)

// CoordinationRequest is an asynchronous swap/booking request between
// members. Once terminal it is immutable.
type CoordinationRequest struct {
	ID                string     `db:"id" json:"id"`
	RoomID            string     `db:"room_id" json:"roomId"`
	Requester         string     `db:"requester" json:"requester"`
	TargetUser        *string    `db:"target_user" json:"targetUser,omitempty"`
	Type              string     `db:"type" json:"type"`
	TimeSlot          TimeWindow `db:"-" json:"timeSlot"`
	Status            string     `db:"status" json:"status"`
	ConflictingUserID *string    `db:"conflicting_user_id" json:"conflictingUserId,omitempty"`
	Message           *string    `db:"message" json:"message,omitempty"`
	Version           int        `db:"version" json:"version"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// Terminal reports whether the request reached a final state.
func (r CoordinationRequest) Terminal() bool {
	return r.Status == RequestStatusApproved || r.Status == RequestStatusRejected
}

// Targeted reports whether the request names a specific counterpart.
func (r CoordinationRequest) Targeted() bool {
	return r.TargetUser != nil && *r.TargetUser != ""
}

// SameSlot compares date, day codes, start and end against another
// request's slot. Used by the duplicate check.
func (r CoordinationRequest) SameSlot(other CoordinationRequest) bool {
	if r.TimeSlot.StartTime != other.TimeSlot.StartTime || r.TimeSlot.EndTime != other.TimeSlot.EndTime {
		return false
	}
	if dateOf(r.TimeSlot) != dateOf(other.TimeSlot) {
		return false
	}
	if len(r.TimeSlot.Days) != len(other.TimeSlot.Days) {
		return false
	}
	seen := make(map[DayCode]bool, len(r.TimeSlot.Days))
	for _, d := range r.TimeSlot.Days {
		seen[d] = true
	}
	for _, d := range other.TimeSlot.Days {
		if !seen[d] {
			return false
		}
	}
	return true
}

func dateOf(w TimeWindow) string {
	if w.Date == nil {
		return ""
	}
	return *w.Date
}
