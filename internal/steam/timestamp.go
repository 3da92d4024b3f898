package steam

import (
	"fmt"
	"strings"
	"time"
)

// The history endpoint renders timestamps like "Nov 12 2014 01: +0":
// month name, day, year, hour, and a fixed "+0" zone suffix. Minutes
// are never present; every point lands on the hour, UTC.
const marketTimeLayout = "Jan 2 2006 15:"

// ParseMarketTime parses the history endpoint's timestamp format.
func ParseMarketTime(s string) (time.Time, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "+0")
	trimmed = strings.TrimSpace(trimmed)

	t, err := time.ParseInLocation(marketTimeLayout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing market timestamp %q: %w", s, err)
	}
	return t, nil
}
