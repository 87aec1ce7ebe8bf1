package models

import "time"

// Activity actions recorded by the coordination workflow.
const (
	ActivityActionChangeApprove = "change_approve"
	ActivityActionChangeReject  = "change_reject"
	ActivityActionSlotSwap      = "slot_swap"
	ActivityActionSlotAdjust    = "slot_adjust"
)

// ActivityLogEntry is an immutable audit record, appended on every
// approval, rejection and slot change.
type ActivityLogEntry struct {
	ID        string    `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"roomId"`
	ActorID   string    `db:"actor_id" json:"actorId"`
	ActorName string    `db:"actor_name" json:"actorName"`
	Action    string    `db:"action" json:"action"`
	Detail    string    `db:"detail" json:"detail"`
	Metadata  []byte    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
