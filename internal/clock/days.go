package clock

import "time"

// DaysPerWeek is the number of day columns in a full week grid.
const DaysPerWeek = 7

// DayNames maps a day index (0 = Monday) to its English name.
var DayNames = [DaysPerWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayName returns the name for a day index, or "" when out of range.
func DayName(day int) string {
	if !ValidDay(day) {
		return ""
	}
	return DayNames[day]
}

// ValidDay reports whether day is in 0..6.
func ValidDay(day int) bool {
	return day >= 0 && day < DaysPerWeek
}

// NormalizeDay maps the legacy 1..7 Sunday value (7) onto 6. Everything else
// passes through unchanged.
func NormalizeDay(day int) int {
	if day == 7 {
		return 6
	}
	return day
}

// AllDays returns the day indices of a full week in Monday-first order.
func AllDays() []int {
	days := make([]int, DaysPerWeek)
	for i := range days {
		days[i] = i
	}
	return days
}

// DayIndex returns the Monday-based weekday index of t (Monday = 0).
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekRange returns midnight of the Monday and of the Sunday of the week
// containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	monday = StartOfDay(t).AddDate(0, 0, -DayIndex(t))
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// DatesInRange returns every calendar date from start to end inclusive, each
// truncated to midnight. It returns nil when end is before start.
func DatesInRange(start, end time.Time) []time.Time {
	s := StartOfDay(start)
	e := StartOfDay(end)
	if e.Before(s) {
		return nil
	}
	var out []time.Time
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// MinutesOfDay returns the minutes elapsed since midnight for t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
