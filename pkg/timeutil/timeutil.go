// Package timeutil provides timezone utilities for the São Paulo timezone (UTC-3).
// Streaks and "activity day" boundaries are calendar-day based, and the
// dashboard's students live in Brazil, so days follow Brasília time.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// SaoPauloTZ is the Brasília timezone (UTC-3, no DST).
// Brazil abolished DST in 2019, so this is constant year-round.
var SaoPauloTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Now returns the current time in São Paulo timezone.
func Now() time.Time {
	return time.Now().In(SaoPauloTZ)
}

// In converts a time to São Paulo timezone.
func In(t time.Time) time.Time {
	return t.In(SaoPauloTZ)
}

// Date creates a midnight time in São Paulo timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SaoPauloTZ)
}

// StartOfDay returns the start of the day (00:00:00) in the given location.
// A nil location defaults to São Paulo.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = SaoPauloTZ
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of whole calendar days from a to b in the
// given location. Negative when b falls on an earlier day than a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	start := StartOfDay(a, loc)
	end := StartOfDay(b, loc)
	return int(end.Sub(start).Hours() / 24)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// IsToday reports whether t falls on the current São Paulo calendar day.
func IsToday(t time.Time) bool {
	return SameDay(t, Now(), SaoPauloTZ)
}

// IsYesterday reports whether t falls on the previous São Paulo calendar day.
func IsYesterday(t time.Time) bool {
	return SameDay(t, Now().AddDate(0, 0, -1), SaoPauloTZ)
}
