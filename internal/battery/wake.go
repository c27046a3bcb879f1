package battery

import "time"

// Refresh window: the panel is only refreshed between these hours.
const (
	firstHour = 8
	lastHour  = 19
)

// NextWake returns when the board should next power on: five to the hour,
// two hours from now on weekdays and four at weekends. Anything outside
// 08:00-19:00 is moved to the next 07:55.
func NextWake(now time.Time) time.Time {
	base := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 55, 0, 0, now.Location())

	step := 2 * time.Hour
	if wd := base.Weekday(); wd == time.Saturday || wd == time.Sunday {
		step = 4 * time.Hour
	}
	next := base.Add(step)
	if next.Hour() < firstHour || next.Hour() >= lastHour {
		next = time.Date(base.Year(), base.Month(), base.Day(), firstHour-1, 55, 0, 0, base.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}
