package models

import "time"

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `db:"lat" json:"lat"`
	Lng float64 `db:"lng" json:"lng"`
}

// CarryOverRecord tracks one week's unmet minimum in hours.
type CarryOverRecord struct {
	ID       string    `db:"id" json:"id,omitempty"`
	MemberID string    `db:"member_id" json:"memberId,omitempty"`
	Week     time.Time `db:"week" json:"week"`
	Amount   float64   `db:"amount" json:"amount"`
}

// Member belongs to a room; the owner shares the same shape and anchors
// the travel loop.
type Member struct {
	ID               string            `db:"id" json:"id"`
	RoomID           string            `db:"room_id" json:"roomId,omitempty"`
	Name             string            `db:"name" json:"name"`
	Location         *GeoPoint         `db:"-" json:"location,omitempty"`
	PreferredBlocks  []TimeWindow      `db:"-" json:"preferredBlocks,omitempty"`
	CarryOverHours   float64           `db:"carry_over_hours" json:"carryOverHours"`
	CarryOverHistory []CarryOverRecord `db:"-" json:"carryOverHistory,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updatedAt,omitempty"`
}

// PreferredRangesFor merges the member's blocks on the given day into
// maximal contiguous minute ranges.
func (m Member) PreferredRangesFor(day DayCode) []MinuteRange {
	var ranges []MinuteRange
	for _, block := range m.PreferredBlocks {
		for _, d := range block.Days {
			if d != day {
				continue
			}
			start := block.StartMinutes()
			end := block.EndMinutes()
			if start < 0 || end < 0 || start >= end {
				continue
			}
			ranges = append(ranges, MinuteRange{Start: start, End: end})
		}
	}
	return MergeRanges(ranges)
}
