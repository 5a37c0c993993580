package index

import "time"

const (
	SizeTiny   = "tiny"
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
	SizeHuge   = "huge"
)

const (
	AgeToday     = "today"
	AgeThisWeek  = "this_week"
	AgeThisMonth = "this_month"
	AgeThisYear  = "this_year"
	AgeOld       = "old"
)

func SizeBucket(size uint64) string {
	switch {
	case size < 1<<10:
		return SizeTiny
	case size < 1<<20:
		return SizeSmall
	case size < 10<<20:
		return SizeMedium
	case size < 100<<20:
		return SizeLarge
	default:
		return SizeHuge
	}
}

// AgeBucket classifies a modification time relative to now. The result is
// only as fresh as the last rebuild; see Indexes.RebuildAll.
func AgeBucket(modified, now time.Time) string {
	age := now.Sub(modified)
	switch {
	case age < 24*time.Hour:
		return AgeToday
	case age < 7*24*time.Hour:
		return AgeThisWeek
	case age < 30*24*time.Hour:
		return AgeThisMonth
	case age < 365*24*time.Hour:
		return AgeThisYear
	default:
		return AgeOld
	}
}
