// README: Civil-time helpers; expiry is computed against a fixed policy offset.
package ride

import "time"

// PolicyZone returns the fixed civil-time zone used for expiration
// comparisons, offset in minutes east of UTC.
func PolicyZone(offsetMin int) *time.Location {
	return time.FixedZone("policy", offsetMin*60)
}

// DateOf truncates t to its calendar date, normalized to midnight UTC so
// dates compare with Equal/Before regardless of the wall zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MinuteOf returns minutes since midnight in t's own location.
func MinuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
