package models

import "time"

// RoomSettings defines the working-hours window and the weekly minimum
// each member should receive.
type RoomSettings struct {
	ScheduleStartHour int     `db:"schedule_start_hour" json:"scheduleStartHour"`
	ScheduleEndHour   int     `db:"schedule_end_hour" json:"scheduleEndHour"`
	MinHoursPerWeek   float64 `db:"min_hours_per_week" json:"minHoursPerWeek"`
}

// Room owns its members, settings, coordination requests and activity
// log entries.
type Room struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	OwnerID   string       `db:"owner_id" json:"ownerId"`
	Settings  RoomSettings `db:"-" json:"settings"`
	Version   int          `db:"version" json:"version"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt,omitempty"`
}

// AssignedSlot is one entry of a travel-plan run. Travel slots consume
// time but are attributed to no member.
type AssignedSlot struct {
	ID        string  `db:"id" json:"id,omitempty"`
	RoomID    string  `db:"room_id" json:"roomId,omitempty"`
	MemberID  *string `db:"member_id" json:"memberId"`
	Date      string  `db:"date" json:"date"`
	StartTime string  `db:"start_time" json:"startTime"`
	EndTime   string  `db:"end_time" json:"endTime"`
	Day       DayCode `db:"day" json:"day"`
	IsTravel  bool    `db:"is_travel" json:"isTravel"`
	Label     string  `db:"label" json:"label"`
}

// OverlapsOnDay reports whether two slots on the same date intersect.
func (s AssignedSlot) OverlapsOnDay(other AssignedSlot) bool {
	if s.Date != other.Date {
		return false
	}
	sStart, err := MinutesOfDay(s.StartTime)
	if err != nil {
		return false
	}
	sEnd, err := MinutesOfDay(s.EndTime)
	if err != nil {
		return false
	}
	oStart, err := MinutesOfDay(other.StartTime)
	if err != nil {
		return false
	}
	oEnd, err := MinutesOfDay(other.EndTime)
	if err != nil {
		return false
	}
	return sStart < oEnd && sEnd > oStart
}
