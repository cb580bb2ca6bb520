package model

import "strings"

// Weekday — рабочий день недели, по которому ведётся учёт ёмкости.
// Выходные в расписании агентств не участвуют.
type Weekday string

const (
	WeekdayMonday    Weekday = "Monday"
	WeekdayTuesday   Weekday = "Tuesday"
	WeekdayWednesday Weekday = "Wednesday"
	WeekdayThursday  Weekday = "Thursday"
	WeekdayFriday    Weekday = "Friday"
)

// AllWeekdays — канонический порядок дней для отчётов и обходов.
var AllWeekdays = []Weekday{
	WeekdayMonday,
	WeekdayTuesday,
	WeekdayWednesday,
	WeekdayThursday,
	WeekdayFriday,
}

var weekdayAliases = map[string]Weekday{
	"mon":       WeekdayMonday,
	"monday":    WeekdayMonday,
	"tue":       WeekdayTuesday,
	"tues":      WeekdayTuesday,
	"tuesday":   WeekdayTuesday,
	"wed":       WeekdayWednesday,
	"weds":      WeekdayWednesday,
	"wednesday": WeekdayWednesday,
	"thu":       WeekdayThursday,
	"thur":      WeekdayThursday,
	"thurs":     WeekdayThursday,
	"thursday":  WeekdayThursday,
	"fri":       WeekdayFriday,
	"friday":    WeekdayFriday,
}

// ParseWeekday нормализует пользовательский ввод ("mon", "Tues", "FRIDAY")
// к каноническому дню. Второе значение — признак успеха.
func ParseWeekday(s string) (Weekday, bool) {
	d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Valid сообщает, является ли значение одним из пяти рабочих дней.
func (w Weekday) Valid() bool {
	switch w {
	case WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday, WeekdayFriday:
		return true
	default:
		return false
	}
}
