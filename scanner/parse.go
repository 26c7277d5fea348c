package scanner

import (
	"regexp"
	"strings"
	"time"
)

// Recording filenames follow SENSOR_YYYYMMDD_HHMMSS.ext. The sensor id is
// everything before the first underscore; the capture time is an 8-digit
// date token followed somewhere later by a 6-digit time token.
var captureTokens = regexp.MustCompile(`(?:^|[^0-9])([0-9]{8})[^0-9]+([0-9]{6})(?:[^0-9]|$)`)

const captureLayout = "20060102150405"

// ParseName extracts the sensor id and capture timestamp from a recording
// filename. ok is false when the name does not follow the convention;
// callers keep such records with nil identity fields rather than failing.
func ParseName(name string) (sensorID string, ts time.Time, ok bool) {
	sep := strings.Index(name, "_")
	if sep <= 0 {
		return "", time.Time{}, false
	}
	sensorID = name[:sep]

	m := captureTokens.FindStringSubmatch(name)
	if m == nil {
		return "", time.Time{}, false
	}
	ts, err := time.Parse(captureLayout, m[1]+m[2])
	if err != nil {
		return "", time.Time{}, false
	}
	return sensorID, ts, true
}
