package triage

import (
	"fmt"
	"time"
)

// Age buckets for how long ago a tab was last active.
const (
	AgeRecent = "recent"
	AgeMedium = "medium"
	AgeOld    = "old"
)

// RelativeAge describes a timestamp relative to now, e.g. "5 minutes ago".
type RelativeAge struct {
	Text   string `json:"text"`
	Bucket string `json:"bucket"`
}

// DescribeAge formats t relative to now.
func DescribeAge(t, now time.Time) RelativeAge {
	diff := now.Sub(t)
	seconds := int(diff / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	weeks := days / 7

	switch {
	case seconds < 60:
		return RelativeAge{Text: "Just now", Bucket: AgeRecent}
	case minutes < 60:
		return RelativeAge{Text: plural(minutes, "minute"), Bucket: AgeRecent}
	case hours < 24:
		bucket := AgeMedium
		if hours < 6 {
			bucket = AgeRecent
		}
		return RelativeAge{Text: plural(hours, "hour"), Bucket: bucket}
	case days < 7:
		bucket := AgeOld
		if days < 2 {
			bucket = AgeMedium
		}
		return RelativeAge{Text: plural(days, "day"), Bucket: bucket}
	default:
		return RelativeAge{Text: plural(weeks, "week"), Bucket: AgeOld}
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
