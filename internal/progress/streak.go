package progress

import (
	"sort"
	"time"
)

// SubmissionDays returns the distinct calendar dates (in loc) of every ledger
// entry, superseded ones included, sorted ascending. Dates are normalised to
// midnight UTC so they can be compared with AddDate.
func SubmissionDays(entries []Entry, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[time.Time]struct{}, len(entries))
	days := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		if entry.SubmittedAt.IsZero() {
			continue
		}
		y, m, d := entry.SubmittedAt.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// HasConsecutiveDayRun reports whether runLength consecutive calendar days
// appear anywhere in the sorted distinct days, not only ending today.
func HasConsecutiveDayRun(days []time.Time, runLength int) bool {
	if runLength <= 0 {
		return true
	}
	return LongestRun(days) >= runLength
}

// LongestRun returns the length of the longest consecutive-day run.
func LongestRun(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}

	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}
