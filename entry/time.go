package entry

import (
	"strings"
	"time"
)

// Timestamp layouts accepted from stores, tried in order. Layouts without
// an offset are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601-ish timestamp. It tolerates a trailing
// Z, an explicit offset, or no offset at all. The second result reports
// whether parsing succeeded; callers decide their own fallback.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if strings.ContainsAny(layout, "Z") {
			if t, err := time.Parse(layout, value); err == nil {
				return t, true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a time the way stored entries carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
