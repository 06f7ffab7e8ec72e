package task

import "time"

// DateFormat is the persisted calendar-day format. Dates are plain strings
// compared in UTC everywhere, never timestamps.
const DateFormat = "2006-01-02"

// Dates names the three days of the rolling window.
type Dates struct {
	Today            string `json:"today"`
	Tomorrow         string `json:"tomorrow"`
	DayAfterTomorrow string `json:"dayAfterTomorrow"`
}

// windowDates computes the 3-day window for the given instant, in UTC.
func windowDates(now time.Time) Dates {
	day := now.UTC()
	return Dates{
		Today:            day.Format(DateFormat),
		Tomorrow:         day.AddDate(0, 0, 1).Format(DateFormat),
		DayAfterTomorrow: day.AddDate(0, 0, 2).Format(DateFormat),
	}
}

func validDate(s string) bool {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return false
	}
	// Reject inputs time.Parse normalizes, e.g. "2026-1-02".
	return t.Format(DateFormat) == s
}
