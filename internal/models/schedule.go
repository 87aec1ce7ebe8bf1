package models

import (
	"sort"
	"strings"
	"time"
)

// Schedule is a candidate or existing commitment.
type Schedule struct {
	ID    string `db:"id" json:"id,omitempty"`
	Title string `db:"title" json:"title"`
	TimeWindow
	MemberID  string    `db:"member_id" json:"memberId,omitempty"`
	RoomID    string    `db:"room_id" json:"roomId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// Combination is an ordered, pairwise conflict-free list of schedules.
type Combination []Schedule

// Signature identifies a combination for deduplication: the sorted
// multiset of (title, startTime, days) tuples.
func (c Combination) Signature() string {
	parts := make([]string, 0, len(c))
	for _, s := range c {
		days := make([]string, 0, len(s.Days))
		for _, d := range s.Days {
			days = append(days, string(d))
		}
		sort.Strings(days)
		parts = append(parts, s.Title+"@"+s.StartTime+"@"+strings.Join(days, ","))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Event is an absolute-time commitment used by the recommendation
// engine; timestamps are timezone-qualified.
type Event struct {
	ID        string    `db:"id" json:"id,omitempty"`
	Title     string    `db:"title" json:"title,omitempty"`
	StartTime time.Time `db:"start_time" json:"startTime"`
	EndTime   time.Time `db:"end_time" json:"endTime"`
}

// Duration returns the event length in whole minutes.
func (e Event) Duration() int {
	return int(e.EndTime.Sub(e.StartTime).Minutes())
}

// Overlaps applies the half-open interval test on absolute times.
func (e Event) Overlaps(other Event) bool {
	return e.StartTime.Before(other.EndTime) && e.EndTime.After(other.StartTime)
}
