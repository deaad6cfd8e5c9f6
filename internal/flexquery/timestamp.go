package flexquery

import (
	"fmt"
	"time"
)

// Timestamp layouts seen across broker Flex exports.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02, 15:04:05",
	"20060102 15:04:05",
	"20060102;150405",
}

// ParseTimestamp parses a broker timestamp string as wall-clock time in loc
// and returns the UTC instant. Ambiguous wall clocks (the repeated hour when
// daylight saving ends) and non-existent ones (the skipped hour when it
// starts) both resolve to the standard-time reading, so the same string
// always maps to the same instant.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	var wall time.Time
	var err error
	for _, layout := range timestampLayouts {
		wall, err = time.Parse(layout, s)
		if err == nil {
			return resolveWall(wall, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// resolveWall maps a naive wall-clock reading (carried in UTC fields) to an
// instant, preferring the standard-time interpretation.
func resolveWall(wall time.Time, loc *time.Location) time.Time {
	std := standardOffset(loc, wall.Year())
	stdInstant := wall.Add(-time.Duration(std) * time.Second)
	if sameWall(stdInstant.In(loc), wall) {
		return stdInstant
	}

	// The wall clock is only valid under the daylight offset.
	resolved := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
	if sameWall(resolved.In(loc), wall) {
		return resolved
	}

	// Non-existent wall clock inside the spring-forward gap.
	return stdInstant
}

// standardOffset returns loc's non-DST UTC offset in seconds for a year.
func standardOffset(loc *time.Location, year int) int {
	_, jan := time.Date(year, time.January, 15, 12, 0, 0, 0, loc).Zone()
	_, jul := time.Date(year, time.July, 15, 12, 0, 0, 0, loc).Zone()
	if jul < jan {
		return jul
	}
	return jan
}

func sameWall(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}
