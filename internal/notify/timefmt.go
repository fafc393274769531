package notify

import (
	"fmt"
	"time"
)

// relativeTime renders a coarse display phrase for a timestamp in epoch
// milliseconds, relative to now.
func relativeTime(now time.Time, tsMillis int64) string {
	elapsed := now.Sub(time.UnixMilli(tsMillis))
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}
