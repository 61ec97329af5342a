package models

import "fmt"

// Weekday indexes follow ISO numbering for the teaching week.
const (
	Monday = 1 + iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// TimeSlot is an immutable position on the weekly grid. Start and End are
// minutes since midnight.
type TimeSlot struct {
	ID     string `db:"id" json:"id"`
	Day    int    `db:"day_of_week" json:"day_of_week"`
	Start  int    `db:"start_minute" json:"start_minute"`
	End    int    `db:"end_minute" json:"end_minute"`
	Period int    `db:"period_number" json:"period_number"`
}

// Overlaps reports whether two slots intersect on the same day.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.Start < other.End && other.Start < t.End
}

// Duration returns the slot length in minutes.
func (t TimeSlot) Duration() int {
	return t.End - t.Start
}

// AfternoonCutoffMinute marks 13:00; complex courses placed at or after it
// accrue a penalty proportional to their complexity.
const AfternoonCutoffMinute = 13 * 60

// StandardTimeGrid returns the default Monday-Friday grid of eight teaching
// periods used for construction and slot randomization.
func StandardTimeGrid() []TimeSlot {
	periods := []struct{ start, end int }{
		{8 * 60, 8*60 + 45},
		{8*60 + 50, 9*60 + 35},
		{9*60 + 40, 10*60 + 25},
		{10*60 + 30, 11*60 + 15},
		{11*60 + 20, 12*60 + 5},
		{12*60 + 35, 13*60 + 20},
		{13*60 + 25, 14*60 + 10},
		{14*60 + 15, 15 * 60},
	}

	grid := make([]TimeSlot, 0, len(periods)*5)
	for day := Monday; day <= Friday; day++ {
		for i, p := range periods {
			grid = append(grid, TimeSlot{
				ID:     timeSlotID(day, i+1),
				Day:    day,
				Start:  p.start,
				End:    p.end,
				Period: i + 1,
			})
		}
	}
	return grid
}

func timeSlotID(day, period int) string {
	days := [...]string{"", "mon", "tue", "wed", "thu", "fri"}
	if day < 1 || day >= len(days) {
		return ""
	}
	return fmt.Sprintf("%s-p%d", days[day], period)
}
