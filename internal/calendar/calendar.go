// Package calendar resolves calendar-month boundaries in a fixed reference
// time zone, so "month to date" is stable regardless of the host's local zone.
package calendar

import (
	"sync"
	"time"
)

// referenceZone anchors all month computations. Using one fixed zone keeps
// month-to-date figures reproducible across machines.
const referenceZone = "Europe/Paris"

var loadZone = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation(referenceZone)
	if err != nil {
		// Degraded fallback when the zone database is unavailable.
		return time.FixedZone("UTC+1", 3600)
	}
	return loc
})

// MonthStart returns the absolute instant of midnight on the 1st of the
// current month in the reference zone. The zone's offset is resolved at that
// historical moment, so the result stays correct across DST transitions.
func MonthStart(now time.Time) time.Time {
	loc := loadZone()
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthLabel returns a human-readable "Month YYYY" label for the current
// month in the reference zone.
func MonthLabel(now time.Time) string {
	return now.In(loadZone()).Format("January 2006")
}
