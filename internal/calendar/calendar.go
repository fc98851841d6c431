package calendar

import "time"

// Day is a single cell of the month grid.
type Day struct {
	Date        time.Time
	InMonth     bool
	Selectable  bool
	HasOpenSlot bool
	HasSession  bool
}

// DateKey is the map key format for the indicator sets.
const DateKey = "2006-01-02"

// MonthGrid builds the day grid for the given month: leading days of the
// previous month back to Sunday, every day of the target month, trailing
// days of the next month through Saturday. The result length is always a
// multiple of 7.
//
// openSlotDates and sessionDates are sets keyed by DateKey; nil means no
// indicators. Days strictly before today's date are not selectable.
//
// Pure function: no I/O, no errors. A month outside January..December is a
// caller bug and will produce a normalized adjacent-year grid, per
// time.Date semantics.
func MonthGrid(year int, month time.Month, today time.Time, openSlotDates, sessionDates map[string]bool) []Day {
	loc := today.Location()

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Last day of the target month: day zero of the next month.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)

	gridStart := first.AddDate(0, 0, -int(first.Weekday()))
	gridEnd := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	var days []Day
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateKey)
		days = append(days, Day{
			Date:        d,
			InMonth:     d.Month() == first.Month() && d.Year() == first.Year(),
			Selectable:  !d.Before(todayDate),
			HasOpenSlot: openSlotDates[key],
			HasSession:  sessionDates[key],
		})
	}

	return days
}
