package progress

import (
	"sort"
	"time"

	"github.com/edudash-hub/edudash-engine/pkg/timeutil"
)

// CalculateStreak counts consecutive calendar days of activity, walking
// backward from today's date. The most recent activity day must be today for
// the streak to reach past zero on day one; the first gap stops the walk.
// Multiple events on the same day count once. today may be any time within
// the current day; loc defines day boundaries (nil means São Paulo).
func CalculateStreak(events []CompletionEvent, today time.Time, loc *time.Location) int {
	if len(events) == 0 {
		return 0
	}

	sorted := make([]CompletionEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	streak := 0
	expectedDaysAgo := 0
	for _, ev := range sorted {
		daysAgo := timeutil.DaysBetween(ev.CompletedAt, today, loc)
		switch {
		case daysAgo == expectedDaysAgo:
			streak++
			expectedDaysAgo++
		case daysAgo > expectedDaysAgo:
			return streak
		}
		// daysAgo < expectedDaysAgo: another event on an already-counted
		// day; skip without breaking the streak.
	}
	return streak
}
