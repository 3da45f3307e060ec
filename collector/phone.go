// ABOUTME: Display formatting for recipient numbers and timestamps
// ABOUTME: Renders 10-digit numbers as 1 (AAA) BBB-CCCC and times in the display zone
package collector

import (
	"strings"
	"time"
)

// DisplayTimeLayout matches en-US locale output, e.g. "10/14/2026, 3:04:05 PM".
const DisplayTimeLayout = "1/2/2006, 3:04:05 PM"

// FormatPhoneNumber strips non-digits and renders exactly ten digits as
// "1 (AAA) BBB-CCCC". Any other input is returned unchanged.
func FormatPhoneNumber(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) != 10 {
		return raw
	}
	return "1 (" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
}

// FormatDisplayTime renders an RFC 3339 timestamp in loc. Values that do
// not parse are returned as-is.
func FormatDisplayTime(value string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayTimeLayout)
}
