package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Schedule restricts a coupon to certain days of the week and time slots.
// Day names are stored lowercase ("monday"); slot boundaries are "HH:MM"
// in the server's local time, compared lexically.
type Schedule struct {
	DaysOfWeek []string   `json:"days_of_week,omitempty"`
	TimeSlots  []TimeSlot `json:"time_slots,omitempty"`
}

// TimeSlot is an inclusive window within a day.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the given instant falls inside the schedule.
// An empty DaysOfWeek matches every day; empty TimeSlots match the whole
// day.
func (s *Schedule) Contains(t time.Time) bool {
	if len(s.DaysOfWeek) > 0 {
		day := strings.ToLower(t.Weekday().String())
		if !contains(s.DaysOfWeek, day) {
			return false
		}
	}

	if len(s.TimeSlots) == 0 {
		return true
	}

	clock := t.Format("15:04")
	for _, slot := range s.TimeSlots {
		if clock >= slot.Start && clock <= slot.End {
			return true
		}
	}
	return false
}

// Validate checks day names and slot formats.
func (s *Schedule) Validate() error {
	for _, day := range s.DaysOfWeek {
		switch day {
		case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		default:
			return fmt.Errorf("invalid day of week: %q", day)
		}
	}

	for _, slot := range s.TimeSlots {
		if !timeOfDayRe.MatchString(slot.Start) {
			return fmt.Errorf("invalid slot start: %q", slot.Start)
		}
		if !timeOfDayRe.MatchString(slot.End) {
			return fmt.Errorf("invalid slot end: %q", slot.End)
		}
		if slot.Start > slot.End {
			return fmt.Errorf("slot start %q is after end %q", slot.Start, slot.End)
		}
	}

	return nil
}
