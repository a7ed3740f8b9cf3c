// Package timestamp implements the compact timestamp formats used by the
// device storage naming convention and the console query API. Image files and
// storage sub-directories are named with a 17-digit yyyyMMddHHmmssfff stamp;
// query window bounds use the 12-digit minute-granularity prefix. Both formats
// are a stable external contract and carry no timezone offset.
package timestamp

import (
	"fmt"
	"strconv"
	"time"
)

// FullLen is the length of a full timestamp (yyyyMMddHHmmssfff).
const FullLen = 17

// Parse decodes a 17-digit yyyyMMddHHmmssfff string into an instant.
// The string must be exactly 17 numeric characters. Component ranges are not
// checked beyond that: out-of-range values (month 13, day 32) roll over via
// time.Date normalization, matching the naming convention's historical
// behavior. The instant is constructed in UTC; no offset is applied.
func Parse(ts string) (time.Time, error) {
	if len(ts) != FullLen {
		return time.Time{}, fmt.Errorf("timestamp %q is not %d digits", ts, FullLen)
	}
	for i := 0; i < FullLen; i++ {
		if ts[i] < '0' || ts[i] > '9' {
			return time.Time{}, fmt.Errorf("timestamp %q is not numeric at offset %d", ts, i)
		}
	}
	fields := [7]int{}
	widths := [7]int{4, 2, 2, 2, 2, 2, 3}
	pos := 0
	for i, w := range widths {
		n, _ := strconv.Atoi(ts[pos : pos+w])
		fields[i] = n
		pos += w
	}
	year, month, day := fields[0], fields[1], fields[2]
	hour, min, sec, msec := fields[3], fields[4], fields[5], fields[6]
	return time.Date(year, time.Month(month), day, hour, min, sec, msec*int(time.Millisecond), time.UTC), nil
}

// FormatFull renders an instant as a 17-digit yyyyMMddHHmmssfff string.
func FormatFull(t time.Time) string {
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}

// FormatMinute renders an instant at minute granularity (yyyyMMddHHmm),
// the form the console expects for query window bounds.
func FormatMinute(t time.Time) string {
	return t.Format("200601021504")
}
