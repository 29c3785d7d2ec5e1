package service

import (
	"fmt"
	"time"
)

// relativeTime renders t relative to now: "just now", "N minutes ago",
// "N hours ago", "N days ago", and a plain date from a week on.
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d/(24*time.Hour)))
	default:
		return t.Local().Format("2006-01-02")
	}
}
