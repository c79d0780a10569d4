package sqlite

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// timeLayout keeps fractional seconds at a fixed width so that stored
// timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats t in UTC using timeLayout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// hashBody computes the xxHash of a response body as a hex string.
func hashBody(body []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(body))
}
